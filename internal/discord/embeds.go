// Package discord – embed builders.
//
// All user-facing output goes through these constructors so the command
// handlers stay free of presentation noise. The copy mirrors what the bot
// has always answered; colors follow the guild's red theme.
package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nrrp/referral-tracker/internal/domain"
	"github.com/nrrp/referral-tracker/internal/repo"
	"github.com/nrrp/referral-tracker/internal/services"
)

const (
	colorRed     = 0xE74C3C
	colorDarkRed = 0x992D22

	leaderboardTitle = "Referral Leaderboard"
	guideTitle       = "Referral Bot Guide"
)

func leaderboardEmbed(table string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       leaderboardTitle,
		Color:       colorRed,
		Description: "**Reminder:** the joinee needs to hold the resident role for your invite to be verified!",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "​", Value: "```\n" + table + "```"},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func emptyLeaderboardEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       leaderboardTitle,
		Color:       colorRed,
		Description: "No referrals tracked yet! Be the first one to invite someone!",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "How to start?", Value: "Create an invite link and share it with your friends!"},
			{Name: "Available commands", Value: "• `!myreferrals` — view your referral history\n• `!leaderboard` — show the referral rankings"},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Tip: your invites will appear here once someone joins using your invite link!",
		},
	}
}

func myReferralsEmbed(referrals []domain.Referral, resolveName func(id string) string) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "Your Referrals",
		Color:       colorRed,
		Description: fmt.Sprintf("Total referrals: %d", len(referrals)),
	}
	for _, r := range referrals {
		name := ""
		if resolveName != nil {
			name = resolveName(r.InvitedID)
		}
		if name == "" {
			name = r.InvitedName
		}
		status := "❌ Left Server"
		if r.IsMemberActive {
			if r.IsValidated {
				status = "✅ Validated"
			} else {
				status = "⏳ Pending"
			}
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name: name,
			Value: fmt.Sprintf("Status: %s\nJoined: %s\nInvite Used: %s",
				status, r.JoinedAt.Format("2006-01-02"), r.InviteCode),
		})
	}
	return e
}

func validationReportEmbed(res services.ValidationResult, standings []repo.LeaderboardRow) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     "Final Validation Report",
		Color:     colorRed,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Summary", Value: fmt.Sprintf("Total Validated: %d\nTotal Invalid: %d", res.Validated, res.Invalid)},
		},
	}
	if len(standings) > 0 {
		text := ""
		for _, row := range standings {
			text += fmt.Sprintf("%s: %d validated referrals\n", row.InviterName, row.Validated)
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Final Standings", Value: text})
	}
	return e
}

func historyEmbed(memberID string, entries []domain.MemberHistoryEntry, page, pages int) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: "Invite History",
		Color: colorRed,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Member %s • Page %d/%d", memberID, page, pages),
		},
	}
	if len(entries) == 0 {
		e.Description = "No history recorded for this member."
		return e
	}
	for _, h := range entries {
		role := "no"
		if h.HadRequiredRole {
			role = "yes"
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s — %s", h.RecordedAt.Format("2006-01-02 15:04"), h.Action),
			Value: "Held required role: " + role,
		})
	}
	return e
}

// historyComponents builds the prev/next button row for a history page.
// The custom ids carry the member and target page so the interaction
// handler stays stateless.
func historyComponents(memberID string, page, pages int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀ Prev",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("history:%s:%d", memberID, page-1),
					Disabled: page <= 1,
				},
				discordgo.Button{
					Label:    "Next ▶",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("history:%s:%d", memberID, page+1),
					Disabled: page >= pages,
				},
			},
		},
	}
}

func statsEmbed(s repo.StoreStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Invite Stats",
		Color: colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Referrals", Value: fmt.Sprintf("Total: %d\nActive: %d\nValidated: %d", s.TotalReferrals, s.ActiveReferrals, s.ValidatedReferrals)},
			{Name: "Inviters", Value: fmt.Sprintf("%d", s.DistinctInviters), Inline: true},
			{Name: "History rows", Value: fmt.Sprintf("%d", s.HistoryEntries), Inline: true},
			{Name: "Audit events", Value: fmt.Sprintf("%d", s.AuditEvents), Inline: true},
		},
	}
}

func auditEmbed(events []domain.AuditEvent) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{Title: "Audit Log", Color: colorRed}
	if len(events) == 0 {
		e.Description = "No audit events recorded."
		return e
	}
	for _, ev := range events {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s — %s [%s]", ev.RecordedAt.Format("2006-01-02 15:04:05"), ev.EventType, ev.Severity),
			Value: truncate(ev.Payload, 1000),
		})
	}
	return e
}

func commandNotFoundEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Command Not Found",
		Color:       colorRed,
		Description: "That command doesn't exist. Here are the available commands:",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Available Commands", Value: "• `!myreferrals` — view your referral history\n• `!leaderboard` — show the referral rankings"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Tip: use these commands in the designated channels"},
	}
}

func permissionErrorEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚠️ Permission Error",
		Color:       colorRed,
		Description: "You don't have permission to use this command or you're using it in the wrong channel.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "What happened?", Value: "This could be because:\n• You're using the command in the wrong channel\n• You don't have the required permissions\n• The command is restricted to specific roles"},
		},
	}
}

func cooldownEmbed(wait time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏳ Slow Down",
		Color:       colorRed,
		Description: fmt.Sprintf("You can use this command again in %s.", wait.Round(time.Second)),
	}
}

func genericErrorEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⛔ Error Occurred",
		Color:       colorDarkRed,
		Description: "An unexpected error occurred. Please try again later or contact an administrator if the problem persists.",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func guideEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       guideTitle,
		Color:       colorRed,
		Description: "Invite friends with your personal invite link and climb the leaderboard once both of you hold the resident role.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Commands", Value: "• `!myreferrals` — your referral history (DM only)\n• `!leaderboard` — current rankings (DM only)"},
			{Name: "Validation", Value: "A referral counts once both inviter and invitee hold the required role. Standings refresh daily."},
		},
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
