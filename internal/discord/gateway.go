// Package discord – session seams.
//
// The concrete *discordgo.Session satisfies all of these interfaces; tests
// substitute in-memory fakes. Each interface covers exactly the calls one
// component needs, nothing more.
package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Messenger is the subset of the session used to send, edit, and delete
// messages.
type Messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// InviteLister fetches the guild's active invite listing.
type InviteLister interface {
	GuildInvites(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Invite, error)
}

// MemberLister pages through guild members and resolves guild roles.
type MemberLister interface {
	GuildMembers(guildID, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
}

// Pinner manages pinned messages in a channel.
type Pinner interface {
	ChannelMessagesPinned(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagePin(channelID, messageID string, options ...discordgo.RequestOption) error
}

// observationsFromInvites converts a discordgo invite listing, preserving
// order. Invites without an inviter (widget/vanity) keep empty inviter
// fields so they can still be matched by code.
func observationsFromInvites(invites []*discordgo.Invite) []InviteObservation {
	out := make([]InviteObservation, 0, len(invites))
	for _, inv := range invites {
		o := InviteObservation{Code: inv.Code, Uses: inv.Uses}
		if inv.Inviter != nil {
			o.InviterID = inv.Inviter.ID
			o.InviterName = inv.Inviter.Username
		}
		out = append(out, o)
	}
	return out
}

// isUnknownMessage reports whether err is Discord's "message already gone"
// answer (REST 404 / error code 10008). Deleting an already-deleted
// leaderboard message is not a failure.
func isUnknownMessage(err error) bool {
	restErr, ok := err.(*discordgo.RESTError)
	if !ok {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == 404
}
