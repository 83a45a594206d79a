// Package discord – leaderboard publishing.
//
// The publisher keeps at most one live leaderboard message per guild. It
// edits the stored message in place; when the edit fails because the
// message is gone or no longer editable, it falls back to delete-then-send
// and records the new handle. Send failures propagate to the caller; there
// is no retry.
package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/repo"
	"github.com/nrrp/referral-tracker/internal/services"
)

// LeaderboardPublisher renders the standings and maintains the single live
// leaderboard message.
type LeaderboardPublisher struct {
	DB          *gorm.DB
	Session     Messenger
	Leaderboard *services.LeaderboardService
	GuildID     string
	ChannelID   string

	// ResolveName maps an inviter id to a current display name; optional.
	ResolveName func(id string) string
}

// Publish renders the current standings and updates the live message.
func (p *LeaderboardPublisher) Publish(ctx context.Context) error {
	rows, err := p.Leaderboard.Standings(ctx)
	if err != nil {
		return err
	}

	var embed *discordgo.MessageEmbed
	if len(rows) == 0 {
		embed = emptyLeaderboardEmbed()
	} else {
		embed = leaderboardEmbed(p.Leaderboard.RenderTable(rows, p.ResolveName))
	}

	handle, err := repo.GetLeaderboardMessage(ctx, p.DB, p.GuildID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	if handle != nil {
		if _, err := p.Session.ChannelMessageEditEmbed(handle.ChannelID, handle.MessageID, embed); err == nil {
			return repo.SaveLeaderboardMessage(ctx, p.DB, p.GuildID, handle.ChannelID, handle.MessageID)
		} else {
			log.Warn().Err(err).Str("message_id", handle.MessageID).
				Msg("leaderboard edit failed, falling back to delete and recreate")
		}
		if err := p.Session.ChannelMessageDelete(handle.ChannelID, handle.MessageID); err != nil && !isUnknownMessage(err) {
			log.Warn().Err(err).Str("message_id", handle.MessageID).Msg("stale leaderboard delete failed")
		}
	}

	msg, err := p.Session.ChannelMessageSendEmbed(p.ChannelID, embed)
	if err != nil {
		return err
	}
	return repo.SaveLeaderboardMessage(ctx, p.DB, p.GuildID, p.ChannelID, msg.ID)
}
