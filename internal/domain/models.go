// Package domain defines the persistence models for referrals, member
// history, audit events, and the published leaderboard message handle.
// These types are mapped with GORM and form the core data layer of the
// referral tracker.
package domain

import (
	"time"
)

// HistoryAction enumerates the kinds of member_history entries.
type HistoryAction string

const (
	// HistoryJoin records a member joining the guild.
	HistoryJoin HistoryAction = "join"
	// HistoryLeave records a member leaving the guild.
	HistoryLeave HistoryAction = "leave"
	// HistoryCurrent records a role snapshot taken during a validation pass.
	HistoryCurrent HistoryAction = "current"
)

// Referral represents a tracked relationship between an inviter and the
// member who joined using their invite link. One row exists per
// (inviter, invitee) pair first observed; a rejoin reactivates the row
// instead of inserting a duplicate, so at most one active row exists per
// invited member.
//
// Fields:
//   - InviterID / InviterName: the invite owner; the name is a denormalized
//     snapshot taken at attribution time.
//   - InvitedID / InvitedName: the member who consumed the invite.
//   - InviteCode: the invite link code that was attributed.
//   - JoinedAt: when the invitee first joined through the invite.
//   - IsValidated: both parties currently hold the required role.
//   - IsMemberActive: the invitee is still a guild member.
//   - WasPreviousResident: the invitee held the required role during a
//     prior membership span (inferred from member_history on rejoin).
type Referral struct {
	ID                  uint      `json:"id"                    gorm:"primaryKey;autoIncrement"`
	InviterID           string    `json:"inviter_id"            gorm:"type:varchar(32);not null;index:idx_referrals_inviter"`
	InviterName         string    `json:"inviter_name"          gorm:"type:varchar(128);not null"`
	InvitedID           string    `json:"invited_id"            gorm:"type:varchar(32);not null;index:idx_referrals_invited"`
	InvitedName         string    `json:"invited_name"          gorm:"type:varchar(128);not null"`
	InviteCode          string    `json:"invite_code"           gorm:"type:varchar(32);not null"`
	JoinedAt            time.Time `json:"joined_at"`
	IsValidated         bool      `json:"is_validated"          gorm:"not null;default:false"`
	IsMemberActive      bool      `json:"is_member_active"      gorm:"not null;default:true"`
	WasPreviousResident bool      `json:"was_previous_resident" gorm:"not null;default:false"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName returns the database table name for Referral.
func (Referral) TableName() string { return "referrals" }

// MemberHistoryEntry is an append-only log row describing a join, leave, or
// role snapshot for a member. Entries are never mutated after insert; they
// are read to infer WasPreviousResident when a member rejoins.
//
// Fields:
//   - MemberID: the guild member the entry refers to (indexed).
//   - Action: one of "join", "leave", "current" (enforced by DB constraint).
//   - HadRequiredRole: whether the member held the required role at the
//     time the entry was recorded.
//   - RecordedAt: event timestamp (UTC).
type MemberHistoryEntry struct {
	ID              uint          `json:"id"                gorm:"primaryKey;autoIncrement"`
	MemberID        string        `json:"member_id"         gorm:"type:varchar(32);not null;index:idx_history_member"`
	Action          HistoryAction `json:"action"            gorm:"type:varchar(16);not null;check:action IN ('join','leave','current')"`
	HadRequiredRole bool          `json:"had_required_role" gorm:"not null;default:false"`
	RecordedAt      time.Time     `json:"recorded_at"       gorm:"index"`
}

// TableName returns the database table name for MemberHistoryEntry.
func (MemberHistoryEntry) TableName() string { return "member_history" }

// AuditEvent is an append-only record of something the bot did or observed.
// Events are write-only from the system's perspective and read back by the
// admin auditlogs command.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - EventType: machine-readable event name, e.g. "referral.created".
//   - Payload: structured JSON payload describing the event.
//   - Severity: "info", "warn", or "error".
//   - RecordedAt: event timestamp (UTC).
type AuditEvent struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	EventType  string    `json:"event_type"  gorm:"type:varchar(64);not null;index"`
	Payload    string    `json:"payload"     gorm:"type:text;not null"`
	Severity   string    `json:"severity"    gorm:"type:varchar(16);not null;default:'info'"`
	RecordedAt time.Time `json:"recorded_at" gorm:"index"`
}

// TableName returns the database table name for AuditEvent.
func (AuditEvent) TableName() string { return "audit_log" }

// LeaderboardMessage stores the identity of the most recently published
// leaderboard embed so it can be edited in place (or deleted and recreated)
// on the next refresh, surviving process restarts. At most one row exists
// per guild.
type LeaderboardMessage struct {
	GuildID   string    `json:"guild_id"   gorm:"type:varchar(32);primaryKey"`
	ChannelID string    `json:"channel_id" gorm:"type:varchar(32);not null"`
	MessageID string    `json:"message_id" gorm:"type:varchar(32);not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for LeaderboardMessage.
func (LeaderboardMessage) TableName() string { return "leaderboard_messages" }
