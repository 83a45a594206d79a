// Package discord implements the chat-platform gateway: the discordgo
// session glue, invite-use attribution, membership event handlers, prefix
// commands, and embed rendering.
//
// This file holds the per-guild invite cache and the attribution resolver.
// The cache maps invite code to its last-known use count; it is rebuilt on
// ready, replaced wholesale after every join, and never persisted. It is an
// explicit object owned by the Bot and passed into the resolver by handle,
// not ambient state. Two joins dispatched back-to-back can still race the
// cache before the first update lands; attribution is then undefined. That
// gap is documented and accepted, not mitigated.
package discord

import (
	"sync"

	"github.com/nrrp/referral-tracker/internal/services"
)

// InviteObservation is one entry of a freshly fetched invite listing, in
// listing order.
type InviteObservation struct {
	Code        string
	Uses        int
	InviterID   string
	InviterName string
}

// InviteCache tracks last-known invite use counts for a single guild.
// Safe for concurrent use; discordgo dispatches handlers on separate
// goroutines.
type InviteCache struct {
	mu   sync.Mutex
	uses map[string]int
}

// NewInviteCache returns an empty cache.
func NewInviteCache() *InviteCache {
	return &InviteCache{uses: make(map[string]int)}
}

// Replace swaps the cached snapshot for the given listing.
func (c *InviteCache) Replace(obs []InviteObservation) {
	next := make(map[string]int, len(obs))
	for _, o := range obs {
		next[o.Code] = o.Uses
	}
	c.mu.Lock()
	c.uses = next
	c.mu.Unlock()
}

// Len returns the number of cached invite codes.
func (c *InviteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.uses)
}

// Resolve identifies the invite consumed by a join: the first invite in the
// fresh listing whose use count exceeds its cached count, or which has no
// cached counterpart (first use of a new invite). First match wins, not the
// largest delta. Returns nil when no invite shows an increase (vanity or
// direct join). The cache is not updated here; callers Replace it once the
// join has been fully processed.
func (c *InviteCache) Resolve(obs []InviteObservation) *services.Attribution {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range obs {
		cached, ok := c.uses[o.Code]
		if !ok || o.Uses > cached {
			return &services.Attribution{
				Code:        o.Code,
				InviterID:   o.InviterID,
				InviterName: o.InviterName,
			}
		}
	}
	return nil
}
