// Package services – ReferralService
//
// This file implements the ReferralService, which owns the join/leave side
// of the referral lifecycle. On a join it either reactivates the member's
// historical referral row (rejoin) or records a freshly attributed one; on a
// leave it deactivates every row the member appears in. Both paths append
// member_history entries and audit events.
//
// Attribution itself (diffing invite snapshots) happens in the gateway
// layer; the service only receives its result.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
	"github.com/nrrp/referral-tracker/internal/repo"
)

// Attribution identifies the invite inferred to have been consumed by a join.
type Attribution struct {
	Code        string
	InviterID   string
	InviterName string
}

// JoinOutcome describes what HandleJoin did with the event.
type JoinOutcome int

const (
	// JoinUnattributed means no invite showed a use increase and the member
	// had no prior referral row; nothing was created.
	JoinUnattributed JoinOutcome = iota
	// JoinRecorded means a new referral row was created.
	JoinRecorded
	// JoinReactivated means the member's historical row was reactivated.
	JoinReactivated
)

// ReferralService coordinates referral row mutations triggered by gateway
// membership events.
type ReferralService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewReferralService constructs a ReferralService.
func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

// HandleJoin processes a member-join event.
//
// If a referral row already exists for the invitee, the row is reactivated
// with validation reset, rows where the member is the inviter are
// reactivated too, and no new attribution is attempted regardless of which
// invite was used. When member history shows the invitee held the required
// role during a prior span, the row is flagged was_previous_resident.
//
// Otherwise, resolve is invoked once to diff the invite snapshots and a
// new row is created from its result; a nil attribution (vanity or direct
// join) records history only. resolve is never called on a rejoin.
func (s *ReferralService) HandleJoin(ctx context.Context, memberID, memberName string, hasRole bool, resolve func() *Attribution) (JoinOutcome, error) {
	existing, err := repo.GetReferralByInvited(ctx, s.DB, memberID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return JoinUnattributed, err
	}

	var attr *Attribution
	if existing == nil && resolve != nil {
		attr = resolve()
	}

	outcome := JoinUnattributed
	switch {
	case existing != nil:
		if err := repo.SetReferralState(ctx, s.DB, existing.ID, existing.State().OnJoin()); err != nil {
			return JoinUnattributed, err
		}
		if _, err := repo.ReactivateInviter(ctx, s.DB, memberID); err != nil {
			return JoinUnattributed, err
		}
		hadRole, err := repo.MemberHadRole(ctx, s.DB, memberID)
		if err != nil {
			return JoinUnattributed, err
		}
		if hadRole {
			if err := repo.SetWasPreviousResident(ctx, s.DB, memberID); err != nil {
				return JoinUnattributed, err
			}
		}
		outcome = JoinReactivated
		_, _ = repo.AppendAudit(ctx, s.DB, "member.rejoined", "info", map[string]any{
			"member_id": memberID, "member_name": memberName, "was_resident": hadRole,
		})

	case attr != nil:
		r := &domain.Referral{
			InviterID:      attr.InviterID,
			InviterName:    attr.InviterName,
			InvitedID:      memberID,
			InvitedName:    memberName,
			InviteCode:     attr.Code,
			JoinedAt:       s.Now(),
			IsMemberActive: true,
		}
		if err := repo.CreateReferral(ctx, s.DB, r); err != nil {
			return JoinUnattributed, err
		}
		outcome = JoinRecorded
		_, _ = repo.AppendAudit(ctx, s.DB, "referral.created", "info", map[string]any{
			"inviter_id": attr.InviterID, "invited_id": memberID, "invite_code": attr.Code,
		})

	default:
		_, _ = repo.AppendAudit(ctx, s.DB, "member.joined.unattributed", "warn", map[string]any{
			"member_id": memberID, "member_name": memberName,
		})
	}

	err = repo.AppendHistory(ctx, s.DB, &domain.MemberHistoryEntry{
		MemberID:        memberID,
		Action:          domain.HistoryJoin,
		HadRequiredRole: hasRole,
		RecordedAt:      s.Now(),
	})
	return outcome, err
}

// HandleLeave processes a member-leave event: every row where the leaver
// appears as inviter or invitee transitions to the inactive state, and a
// leave entry is appended to member history. Returns the number of rows
// deactivated.
func (s *ReferralService) HandleLeave(ctx context.Context, memberID string, hadRole bool) (int64, error) {
	referrals, err := repo.ListReferralsForMember(ctx, s.DB, memberID)
	if err != nil {
		return 0, err
	}
	var rows int64
	for i := range referrals {
		r := &referrals[i]
		if err := repo.SetReferralState(ctx, s.DB, r.ID, r.State().OnLeave()); err != nil {
			return rows, err
		}
		rows++
	}
	_, _ = repo.AppendAudit(ctx, s.DB, "member.left", "info", map[string]any{
		"member_id": memberID, "rows_deactivated": rows,
	})
	err = repo.AppendHistory(ctx, s.DB, &domain.MemberHistoryEntry{
		MemberID:        memberID,
		Action:          domain.HistoryLeave,
		HadRequiredRole: hadRole,
		RecordedAt:      s.Now(),
	})
	return rows, err
}

// ListByInviter returns every referral attributed to an inviter, newest
// first, or ErrNoReferrals when there are none.
func (s *ReferralService) ListByInviter(ctx context.Context, inviterID string) ([]domain.Referral, error) {
	out, err := repo.ListReferralsByInviter(ctx, s.DB, inviterID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoReferrals
	}
	return out, nil
}
