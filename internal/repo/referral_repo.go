// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Referral
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a referral is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateReferral inserts a new referral row. The caller is responsible for
// ensuring no row already exists for the invitee (see GetReferralByInvited).
func CreateReferral(ctx context.Context, db *gorm.DB, r *domain.Referral) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetReferralByInvited fetches the referral row for an invited member, or
// ErrNotFound when the member was never referred.
func GetReferralByInvited(ctx context.Context, db *gorm.DB, invitedID string) (*domain.Referral, error) {
	var r domain.Referral
	err := db.WithContext(ctx).
		Where("invited_id = ?", invitedID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SetReferralState persists the flag form of a lifecycle state onto a single
// row. StateUnseen is not a persistable state; callers derive the target via
// the domain transition functions. Returns ErrNotFound when the row does not
// exist.
func SetReferralState(ctx context.Context, db *gorm.DB, id uint, st domain.ReferralState) error {
	var r domain.Referral
	r.Apply(st)
	res := db.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_member_active": r.IsMemberActive, "is_validated": r.IsValidated})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReactivateInviter marks rows where the rejoining member is the inviter as
// active again. Validation is left untouched; the next full pass settles it.
func ReactivateInviter(ctx context.Context, db *gorm.DB, inviterID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("inviter_id = ?", inviterID).
		Update("is_member_active", true)
	return res.RowsAffected, res.Error
}

// ListReferralsForMember returns every row the member appears in, as inviter
// or invitee, ordered by join time ascending. The leave handler walks these
// rows through their lifecycle transition one by one.
func ListReferralsForMember(ctx context.Context, db *gorm.DB, memberID string) ([]domain.Referral, error) {
	var out []domain.Referral
	err := db.WithContext(ctx).
		Where("inviter_id = ? OR invited_id = ?", memberID, memberID).
		Order("joined_at asc").
		Find(&out).Error
	return out, err
}

// ListActiveReferrals returns every referral whose invitee is still a member,
// ordered by join time ascending for a stable scan order.
func ListActiveReferrals(ctx context.Context, db *gorm.DB) ([]domain.Referral, error) {
	var out []domain.Referral
	err := db.WithContext(ctx).
		Where("is_member_active = ?", true).
		Order("joined_at asc").
		Find(&out).Error
	return out, err
}

// ListReferralsByInviter returns all rows attributed to an inviter, newest
// join first. It returns an empty slice when the inviter has no referrals.
func ListReferralsByInviter(ctx context.Context, db *gorm.DB, inviterID string) ([]domain.Referral, error) {
	var out []domain.Referral
	err := db.WithContext(ctx).
		Where("inviter_id = ?", inviterID).
		Order("joined_at desc").
		Find(&out).Error
	return out, err
}

// ResetValidation clears is_validated on every row. The validation pass calls
// this before recomputing so stale positives cannot survive a roster change.
func ResetValidation(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("1 = 1").
		Update("is_validated", false).Error
}

// SetWasPreviousResident flags the invitee's row as belonging to a returning
// resident. Used on rejoin when member history shows a prior role span.
func SetWasPreviousResident(ctx context.Context, db *gorm.DB, invitedID string) error {
	return db.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("invited_id = ?", invitedID).
		Update("was_previous_resident", true).Error
}
