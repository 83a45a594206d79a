// Package discord – Bot wiring and gateway event handlers.
//
// The Bot owns the discordgo session, the per-guild invite cache, the
// cooldown buckets, and the service handles. Every gateway callback is
// isolated: a failing handler logs and answers with a generic apology, but
// never takes the process down.
package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/config"
	"github.com/nrrp/referral-tracker/internal/observability"
	"github.com/nrrp/referral-tracker/internal/services"
)

// handlerTimeout bounds the store work done by a single gateway event.
const handlerTimeout = 30 * time.Second

// Bot wires the discordgo session to the referral services.
type Bot struct {
	Session *discordgo.Session
	Cfg     config.Config
	DB      *gorm.DB

	Referrals  *services.ReferralService
	Validation *services.ValidationService
	Reports    *services.ReportService
	Board      *services.LeaderboardService
	Publisher  *LeaderboardPublisher
	Roster     *GuildRoster

	Cache     *InviteCache
	Cooldowns *Cooldowns

	// RequestRefresh asks the scheduler for a validate-and-publish cycle.
	RequestRefresh func()

	// Session seams, split per concern so tests can fake them.
	messenger Messenger
	invites   InviteLister
	members   MemberLister
	pins      Pinner
	perms     func(userID, channelID string) (int64, error)
}

// New creates the session and the Bot around it. The session is not opened
// yet; call Open.
func New(cfg config.Config, db *gorm.DB, referrals *services.ReferralService, validation *services.ValidationService, reports *services.ReportService, board *services.LeaderboardService) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		Session:    session,
		Cfg:        cfg,
		DB:         db,
		Referrals:  referrals,
		Validation: validation,
		Reports:    reports,
		Board:      board,
		Roster:     NewGuildRoster(session, cfg.GuildID, cfg.RequiredRoleName),
		Cache:      NewInviteCache(),
		Cooldowns:  NewCooldowns(cfg.CommandCooldown),
		messenger:  session,
		invites:    session,
		members:    session,
		pins:       session,
	}
	b.perms = func(userID, channelID string) (int64, error) {
		return session.UserChannelPermissions(userID, channelID)
	}
	b.Publisher = &LeaderboardPublisher{
		DB:          db,
		Session:     session,
		Leaderboard: board,
		GuildID:     cfg.GuildID,
		ChannelID:   cfg.LeaderboardChannelID,
		ResolveName: b.displayName,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildMemberAdd)
	session.AddHandler(b.onGuildMemberRemove)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

// Open connects the gateway session.
func (b *Bot) Open() error { return b.Session.Open() }

// Close shuts the gateway session down.
func (b *Bot) Close() error { return b.Session.Close() }

// onReady rebuilds the invite cache and ensures the pinned guide exists.
func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.Username).Str("guild_id", b.Cfg.GuildID).Msg("gateway session ready")

	invites, err := b.invites.GuildInvites(b.Cfg.GuildID)
	if err != nil {
		log.Error().Err(err).Msg("initial invite listing failed")
	} else {
		b.Cache.Replace(observationsFromInvites(invites))
		log.Info().Int("invites", b.Cache.Len()).Msg("invite cache primed")
	}

	if b.Cfg.CommandsChannelID != "" {
		if err := b.ensureGuidePinned(b.Cfg.CommandsChannelID); err != nil {
			log.Warn().Err(err).Msg("pinned guide setup failed")
		}
	}
}

// onGuildMemberAdd attributes the join, persists the referral mutation, and
// replaces the invite cache with the fresh listing.
func (b *Bot) onGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.GuildID != b.Cfg.GuildID || m.User == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	log.Info().Str("member_id", m.User.ID).Str("member", m.User.Username).Msg("member joined")

	invites, err := b.invites.GuildInvites(m.GuildID)
	if err != nil {
		log.Error().Err(err).Msg("invite listing failed, join not attributed")
		observability.MemberJoins.WithLabelValues("error").Inc()
		return
	}
	obs := observationsFromInvites(invites)

	outcome, err := b.Referrals.HandleJoin(ctx, m.User.ID, m.User.Username, b.memberHasRole(m.Roles),
		func() *services.Attribution { return b.Cache.Resolve(obs) })
	if err != nil {
		log.Error().Err(err).Str("member_id", m.User.ID).Msg("join handling failed")
		observability.MemberJoins.WithLabelValues("error").Inc()
	} else {
		switch outcome {
		case services.JoinRecorded:
			observability.MemberJoins.WithLabelValues("recorded").Inc()
		case services.JoinReactivated:
			observability.MemberJoins.WithLabelValues("reactivated").Inc()
		default:
			log.Warn().Str("member_id", m.User.ID).Msg("no invite showed a use increase")
			observability.MemberJoins.WithLabelValues("unattributed").Inc()
			b.mirrorWarning("⚠️ Could not attribute join of <@" + m.User.ID + "> to any invite.")
		}
	}

	b.Cache.Replace(obs)
	if b.RequestRefresh != nil {
		b.RequestRefresh()
	}
}

// onGuildMemberRemove deactivates every referral row the leaver appears in.
func (b *Bot) onGuildMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.GuildID != b.Cfg.GuildID || m.User == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	log.Info().Str("member_id", m.User.ID).Str("member", m.User.Username).Msg("member left")

	rows, err := b.Referrals.HandleLeave(ctx, m.User.ID, b.memberHasRole(m.Roles))
	if err != nil {
		log.Error().Err(err).Str("member_id", m.User.ID).Msg("leave handling failed")
		return
	}
	log.Info().Int64("rows", rows).Str("member_id", m.User.ID).Msg("referrals deactivated")
	observability.MemberLeaves.Inc()

	if b.RequestRefresh != nil {
		b.RequestRefresh()
	}
}

// mirrorWarning copies a warning into the configured log channel, when set.
func (b *Bot) mirrorWarning(text string) {
	if b.Cfg.LogChannelID == "" {
		return
	}
	if _, err := b.messenger.ChannelMessageSend(b.Cfg.LogChannelID, text); err != nil {
		log.Warn().Err(err).Msg("log channel mirror failed")
	}
}

// memberHasRole checks the event's role id list against the required role.
// Leave events may carry no roles; absence reads as "did not hold it".
func (b *Bot) memberHasRole(roleIDs []string) bool {
	roleID, err := b.Roster.requiredRoleID()
	if err != nil {
		return false
	}
	return hasRole(roleIDs, roleID)
}

// displayName resolves a member's current display name from the session
// state cache; "" lets callers fall back to the stored snapshot.
func (b *Bot) displayName(userID string) string {
	if b.Session == nil || b.Session.State == nil {
		return ""
	}
	m, err := b.Session.State.Member(b.Cfg.GuildID, userID)
	if err != nil || m == nil || m.User == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	return m.User.Username
}

// ensureGuidePinned posts and pins the usage guide once per channel. A pin
// whose embed already carries the guide title makes this a no-op.
func (b *Bot) ensureGuidePinned(channelID string) error {
	pinned, err := b.pins.ChannelMessagesPinned(channelID)
	if err != nil {
		return err
	}
	for _, msg := range pinned {
		for _, e := range msg.Embeds {
			if strings.EqualFold(e.Title, guideTitle) {
				return nil
			}
		}
	}
	msg, err := b.messenger.ChannelMessageSendEmbed(channelID, guideEmbed())
	if err != nil {
		return err
	}
	return b.pins.ChannelMessagePin(channelID, msg.ID)
}
