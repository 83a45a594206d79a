// Package discord – prefix command dispatch.
//
// Commands arrive as plain messages starting with "!". Admin commands are
// restricted to the configured guild channels and require the administrator
// permission; self-service commands are DM-only and cooldown-gated. A guard
// violation answers with a rejection embed and touches nothing in the
// store. Unexpected errors are caught here, logged, and answered with a
// generic apology.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/nrrp/referral-tracker/internal/observability"
	"github.com/nrrp/referral-tracker/internal/services"
	"github.com/nrrp/referral-tracker/internal/utils"
)

const commandPrefix = "!"

// publishDelay is the brake between a validation pass and the publish that
// follows it, kept from the original sequence. Not a correctness mechanism.
const publishDelay = time.Second

// onMessageCreate parses and dispatches prefix commands.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if !strings.HasPrefix(m.Content, commandPrefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, commandPrefix))
	if len(fields) == 0 {
		return
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	log.Info().Str("command", command).Str("user_id", m.Author.ID).Str("channel_id", m.ChannelID).Msg("command received")
	observability.CommandInvocations.WithLabelValues(command).Inc()

	var err error
	switch command {
	case "validate":
		err = b.guardAdmin(m, func() error { return b.cmdValidate(ctx, m) })
	case "refreshboard":
		err = b.guardAdmin(m, func() error { return b.cmdRefreshBoard(m) })
	case "myreferrals":
		err = b.guardSelfService(command, m, func() error { return b.cmdMyReferrals(ctx, m) })
	case "leaderboard":
		err = b.guardSelfService(command, m, func() error { return b.cmdLeaderboard(ctx, m) })
	case "invitehistory":
		err = b.guardAdmin(m, func() error { return b.cmdInviteHistory(ctx, m, args) })
	case "invitestats":
		err = b.guardAdmin(m, func() error { return b.cmdInviteStats(ctx, m) })
	case "auditlogs":
		err = b.guardAdmin(m, func() error { return b.cmdAuditLogs(ctx, m, args) })
	case "resethistory":
		err = b.guardAdmin(m, func() error { return b.cmdResetHistory(ctx, m) })
	default:
		observability.CommandRejections.WithLabelValues("unknown").Inc()
		_, err = b.messenger.ChannelMessageSendEmbed(m.ChannelID, commandNotFoundEmbed())
	}

	if err != nil {
		log.Error().Err(err).Str("command", command).Str("user_id", m.Author.ID).Msg("command failed")
		if _, sendErr := b.messenger.ChannelMessageSendEmbed(m.ChannelID, genericErrorEmbed()); sendErr != nil {
			log.Error().Err(sendErr).Msg("apology reply failed")
		}
	}
}

// guardAdmin enforces the guild channel allow-list plus the administrator
// permission before running fn.
func (b *Bot) guardAdmin(m *discordgo.MessageCreate, fn func() error) error {
	if !b.channelAllowed(m.ChannelID) || m.GuildID == "" {
		observability.CommandRejections.WithLabelValues("channel").Inc()
		_, err := b.messenger.ChannelMessageSendEmbed(m.ChannelID, permissionErrorEmbed())
		return err
	}
	ok, err := b.isAdmin(m.Author.ID, m.ChannelID)
	if err != nil {
		return err
	}
	if !ok {
		observability.CommandRejections.WithLabelValues("permission").Inc()
		_, err := b.messenger.ChannelMessageSendEmbed(m.ChannelID, permissionErrorEmbed())
		return err
	}
	return fn()
}

// guardSelfService enforces the DM-only restriction and the per-user
// cooldown before running fn. The cooldown bucket is keyed by user and
// command, so invoking one gated command does not lock out the others.
func (b *Bot) guardSelfService(command string, m *discordgo.MessageCreate, fn func() error) error {
	if m.GuildID != "" {
		observability.CommandRejections.WithLabelValues("channel").Inc()
		_, err := b.messenger.ChannelMessageSendEmbed(m.ChannelID, permissionErrorEmbed())
		return err
	}
	if ok, wait := b.Cooldowns.Allow(m.Author.ID + ":" + command); !ok {
		observability.CommandRejections.WithLabelValues("cooldown").Inc()
		_, err := b.messenger.ChannelMessageSendEmbed(m.ChannelID, cooldownEmbed(wait))
		return err
	}
	return fn()
}

func (b *Bot) channelAllowed(channelID string) bool {
	return channelID == b.Cfg.CommandsChannelID || channelID == b.Cfg.LeaderboardChannelID
}

func (b *Bot) isAdmin(userID, channelID string) (bool, error) {
	if b.perms == nil {
		return false, nil
	}
	p, err := b.perms(userID, channelID)
	if err != nil {
		return false, err
	}
	return p&discordgo.PermissionAdministrator != 0, nil
}

// cmdValidate runs a full validation pass, reports the outcome, and queues
// a leaderboard publish.
func (b *Bot) cmdValidate(ctx context.Context, m *discordgo.MessageCreate) error {
	status, err := b.messenger.ChannelMessageSend(m.ChannelID, "Starting validation process...")
	if err != nil {
		return err
	}

	res, err := b.Validation.Run(ctx)
	if err != nil {
		if errors.Is(err, services.ErrRoleNotFound) {
			_, sendErr := b.messenger.ChannelMessageSend(m.ChannelID,
				fmt.Sprintf("Error: %q role not found!", b.Cfg.RequiredRoleName))
			return sendErr
		}
		return err
	}
	observability.ValidationPasses.WithLabelValues("ok").Inc()
	observability.ValidatedReferrals.Set(float64(res.Validated))

	standings, err := b.Board.Standings(ctx)
	if err != nil {
		return err
	}

	if err := b.messenger.ChannelMessageDelete(m.ChannelID, status.ID); err != nil && !isUnknownMessage(err) {
		log.Warn().Err(err).Msg("status message delete failed")
	}
	if _, err := b.messenger.ChannelMessageSendEmbed(m.ChannelID, validationReportEmbed(res, standings)); err != nil {
		return err
	}

	if b.RequestRefresh != nil {
		b.RequestRefresh()
	}
	return nil
}

// cmdRefreshBoard queues a validate-and-publish cycle.
func (b *Bot) cmdRefreshBoard(m *discordgo.MessageCreate) error {
	if b.RequestRefresh != nil {
		b.RequestRefresh()
	}
	_, err := b.messenger.ChannelMessageSend(m.ChannelID, "🔄 Refreshing leaderboard and validation statuses...")
	return err
}

// cmdMyReferrals lists the caller's referrals in their DM channel.
func (b *Bot) cmdMyReferrals(ctx context.Context, m *discordgo.MessageCreate) error {
	referrals, err := b.Referrals.ListByInviter(ctx, m.Author.ID)
	if err != nil {
		if errors.Is(err, services.ErrNoReferrals) {
			_, sendErr := b.messenger.ChannelMessageSend(m.ChannelID, "You haven't invited anyone yet!")
			return sendErr
		}
		return err
	}
	_, err = b.messenger.ChannelMessageSendEmbed(m.ChannelID, myReferralsEmbed(referrals, b.displayName))
	return err
}

// cmdLeaderboard renders the current standings into the caller's DM.
func (b *Bot) cmdLeaderboard(ctx context.Context, m *discordgo.MessageCreate) error {
	rows, err := b.Board.Standings(ctx)
	if err != nil {
		return err
	}
	embed := emptyLeaderboardEmbed()
	if len(rows) > 0 {
		embed = leaderboardEmbed(b.Board.RenderTable(rows, b.displayName))
	}
	_, err = b.messenger.ChannelMessageSendEmbed(m.ChannelID, embed)
	return err
}

// cmdInviteHistory shows the first page of a member's history with button
// navigation.
func (b *Bot) cmdInviteHistory(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		_, err := b.messenger.ChannelMessageSend(m.ChannelID, "Usage: `!invitehistory <member>`")
		return err
	}
	memberID := parseMemberArg(args[0])

	entries, pages, err := b.Reports.HistoryPage(ctx, memberID, 1)
	if err != nil {
		return err
	}
	_, err = b.messenger.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{historyEmbed(memberID, entries, 1, pages)},
		Components: historyComponents(memberID, 1, pages),
	})
	return err
}

// cmdInviteStats reports aggregate store counters.
func (b *Bot) cmdInviteStats(ctx context.Context, m *discordgo.MessageCreate) error {
	stats, err := b.Reports.Stats(ctx)
	if err != nil {
		return err
	}
	_, err = b.messenger.ChannelMessageSendEmbed(m.ChannelID, statsEmbed(stats))
	return err
}

// cmdAuditLogs lists recent audit events; an optional numeric argument
// overrides the default limit.
func (b *Bot) cmdAuditLogs(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	limit := 0
	if len(args) > 0 {
		limit = utils.AtoiDefault(args[0], 0)
	}
	events, err := b.Reports.AuditLogs(ctx, limit)
	if err != nil {
		return err
	}
	_, err = b.messenger.ChannelMessageSendEmbed(m.ChannelID, auditEmbed(events))
	return err
}

// cmdResetHistory truncates member_history.
func (b *Bot) cmdResetHistory(ctx context.Context, m *discordgo.MessageCreate) error {
	rows, err := b.Reports.ResetHistory(ctx, m.Author.ID)
	if err != nil {
		return err
	}
	_, err = b.messenger.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Member history cleared (%d entries removed).", rows))
	return err
}

// onInteractionCreate serves the history pagination buttons. The custom id
// carries member and target page, so no per-message state is kept.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	parts := strings.Split(i.MessageComponentData().CustomID, ":")
	if len(parts) != 3 || parts[0] != "history" {
		return
	}
	memberID := parts[1]
	page := utils.AtoiDefault(parts[2], 1)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	entries, pages, err := b.Reports.HistoryPage(ctx, memberID, page)
	if err != nil {
		log.Error().Err(err).Str("member_id", memberID).Msg("history page failed")
		return
	}
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{historyEmbed(memberID, entries, page, pages)},
			Components: historyComponents(memberID, page, pages),
		},
	}); err != nil {
		log.Error().Err(err).Msg("pagination response failed")
	}
}

// parseMemberArg extracts a member id from a raw id or a <@…>/<@!…> mention.
func parseMemberArg(arg string) string {
	arg = strings.TrimPrefix(arg, "<@")
	arg = strings.TrimPrefix(arg, "!")
	return strings.TrimSuffix(arg, ">")
}

// Refresh runs the historical validate → short delay → publish sequence.
// The scheduler invokes it for every trigger (join, leave, interval, admin
// request); once started it runs to completion.
func (b *Bot) Refresh(ctx context.Context) error {
	res, err := b.Validation.Run(ctx)
	if err != nil {
		observability.ValidationPasses.WithLabelValues("error").Inc()
		return err
	}
	observability.ValidationPasses.WithLabelValues("ok").Inc()
	observability.ValidatedReferrals.Set(float64(res.Validated))

	// Crude brake against the platform API between the two write bursts.
	select {
	case <-time.After(publishDelay):
	case <-ctx.Done():
	}

	if err := b.Publisher.Publish(ctx); err != nil {
		observability.LeaderboardPublishes.WithLabelValues("error").Inc()
		return err
	}
	observability.LeaderboardPublishes.WithLabelValues("ok").Inc()
	return nil
}
