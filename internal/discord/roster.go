// Package discord – live roster provider.
//
// GuildRoster implements services.Roster by paging through the guild member
// list (Discord caps each page at 1000) and resolving the required role by
// name. The role is matched case-insensitively; earlier revisions of the
// bot looked it up as both "resident" and "Resident".
package discord

import (
	"context"
	"strings"

	"github.com/nrrp/referral-tracker/internal/services"
)

const memberPageSize = 1000

// GuildRoster fetches the current membership of a single guild.
type GuildRoster struct {
	Session  MemberLister
	GuildID  string
	RoleName string
}

// NewGuildRoster constructs a GuildRoster for the configured guild and role.
func NewGuildRoster(s MemberLister, guildID, roleName string) *GuildRoster {
	return &GuildRoster{Session: s, GuildID: guildID, RoleName: roleName}
}

// Members implements services.Roster. It resolves the required role id,
// then pages through guild members building the snapshot. Returns
// services.ErrRoleNotFound when the role does not exist.
func (g *GuildRoster) Members(ctx context.Context) (map[string]services.Member, error) {
	roleID, err := g.requiredRoleID()
	if err != nil {
		return nil, err
	}

	out := make(map[string]services.Member)
	var after string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		members, err := g.Session.GuildMembers(g.GuildID, after, memberPageSize)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			break
		}
		for _, m := range members {
			if m.User == nil {
				continue
			}
			name := m.Nick
			if name == "" {
				name = m.User.Username
			}
			out[m.User.ID] = services.Member{
				ID:              m.User.ID,
				DisplayName:     name,
				HasRequiredRole: hasRole(m.Roles, roleID),
			}
			after = m.User.ID
		}
		if len(members) < memberPageSize {
			break
		}
	}
	return out, nil
}

// requiredRoleID resolves the configured role name to its id.
func (g *GuildRoster) requiredRoleID() (string, error) {
	roles, err := g.Session.GuildRoles(g.GuildID)
	if err != nil {
		return "", err
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, g.RoleName) {
			return r.ID, nil
		}
	}
	return "", services.ErrRoleNotFound
}

func hasRole(roleIDs []string, roleID string) bool {
	for _, id := range roleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
