// Package services – ValidationService
//
// This file implements the full-scan validation pass. Every invocation
// resets all validated flags and recomputes them from the live roster, so
// stale positives cannot survive roster changes. The pass is idempotent
// given an unchanged roster, and costs O(active referral count) per trigger
// by design (join, leave, scheduled interval, and the admin command all run
// the same pass).
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
	"github.com/nrrp/referral-tracker/internal/repo"
)

// ValidationResult summarizes one validation pass.
type ValidationResult struct {
	Validated int
	Invalid   int
	Scanned   int
}

// ValidationService recomputes referral validity against the live roster.
type ValidationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Roster provides the live membership snapshot.
	Roster Roster

	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewValidationService constructs a ValidationService.
func NewValidationService(db *gorm.DB, roster Roster) *ValidationService {
	return &ValidationService{DB: db, Roster: roster, Now: func() time.Time { return time.Now().UTC() }}
}

// Run executes one full validation pass.
//
// For each active referral row, both parties are looked up in the roster;
// the row is validated iff both are present and both hold the required
// role. Members observed holding the role for the first time get a
// "current" snapshot appended to member history.
func (s *ValidationService) Run(ctx context.Context) (ValidationResult, error) {
	var res ValidationResult

	roster, err := s.Roster.Members(ctx)
	if err != nil {
		return res, err
	}
	if len(roster) == 0 {
		return res, ErrEmptyRoster
	}

	// Reset first so a row validated under an old roster cannot survive.
	if err := repo.ResetValidation(ctx, s.DB); err != nil {
		return res, err
	}

	rows, err := repo.ListActiveReferrals(ctx, s.DB)
	if err != nil {
		return res, err
	}
	res.Scanned = len(rows)

	snapshotted := make(map[string]bool)
	for _, r := range rows {
		inviter, inviterOK := roster[r.InviterID]
		invited, invitedOK := roster[r.InvitedID]
		valid := inviterOK && invitedOK && inviter.HasRequiredRole && invited.HasRequiredRole

		cur := r.State()
		if next := cur.OnValidation(valid); next != cur {
			if err := repo.SetReferralState(ctx, s.DB, r.ID, next); err != nil {
				return res, err
			}
		}
		if valid {
			res.Validated++
		} else {
			res.Invalid++
		}

		for _, m := range []Member{inviter, invited} {
			if m.ID == "" || !m.HasRequiredRole || snapshotted[m.ID] {
				continue
			}
			snapshotted[m.ID] = true
			if err := s.snapshotIfFirstRole(ctx, m.ID); err != nil {
				return res, err
			}
		}
	}

	_, _ = repo.AppendAudit(ctx, s.DB, "validation.pass", "info", map[string]any{
		"scanned": res.Scanned, "validated": res.Validated, "invalid": res.Invalid,
	})
	return res, nil
}

// snapshotIfFirstRole appends a "current" history entry the first time a
// member is observed holding the required role.
func (s *ValidationService) snapshotIfFirstRole(ctx context.Context, memberID string) error {
	had, err := repo.MemberHadRole(ctx, s.DB, memberID)
	if err != nil || had {
		return err
	}
	return repo.AppendHistory(ctx, s.DB, &domain.MemberHistoryEntry{
		MemberID:        memberID,
		Action:          domain.HistoryCurrent,
		HadRequiredRole: true,
		RecordedAt:      s.Now(),
	})
}
