// Package services – live roster contract.
//
// The validation engine compares stored referral rows against the guild's
// current membership. The Roster interface is the narrow seam between the
// services and the chat-platform gateway: the Discord layer implements it by
// paging through guild members and resolving the required role, while tests
// substitute an in-memory map.
package services

import "context"

// Member is a roster snapshot entry for a single guild member.
type Member struct {
	// ID is the platform member id.
	ID string
	// DisplayName is the nickname when set, else the username.
	DisplayName string
	// HasRequiredRole reports whether the member currently carries the
	// designated membership role.
	HasRequiredRole bool
}

// Roster provides a snapshot of current guild membership keyed by member id.
type Roster interface {
	// Members fetches the live membership roster. Implementations should
	// resolve the required role before returning.
	Members(ctx context.Context) (map[string]Member, error)
}

// RosterFunc adapts a function to the Roster interface.
type RosterFunc func(ctx context.Context) (map[string]Member, error)

// Members implements Roster.
func (f RosterFunc) Members(ctx context.Context) (map[string]Member, error) { return f(ctx) }
