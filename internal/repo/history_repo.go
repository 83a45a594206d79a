// Package repo – member_history persistence.
//
// member_history is append-only: rows are inserted on join, leave, and role
// snapshots, and are never updated afterwards. The only destructive
// operation is the explicit admin reset, which truncates the whole table.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
)

// AppendHistory inserts one member_history row. RecordedAt defaults to the
// current UTC time when unset.
func AppendHistory(ctx context.Context, db *gorm.DB, e *domain.MemberHistoryEntry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// CountHistory returns the number of history rows for a member.
func CountHistory(ctx context.Context, db *gorm.DB, memberID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.MemberHistoryEntry{}).
		Where("member_id = ?", memberID).
		Count(&total).Error
	return total, err
}

// ListHistoryPage returns a page of a member's history, newest first.
// The caller computes offset and limit (e.g. (page-1)*pageSize).
func ListHistoryPage(ctx context.Context, db *gorm.DB, memberID string, offset, limit int) ([]domain.MemberHistoryEntry, error) {
	var out []domain.MemberHistoryEntry
	err := db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("recorded_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MemberHadRole reports whether any recorded history entry shows the member
// holding the required role. Used to infer was_previous_resident on rejoin.
func MemberHadRole(ctx context.Context, db *gorm.DB, memberID string) (bool, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.MemberHistoryEntry{}).
		Where("member_id = ? AND had_required_role = ?", memberID, true).
		Count(&total).Error
	return total > 0, err
}

// ResetHistory deletes every member_history row. Admin-only; the caller is
// expected to record an audit event alongside.
func ResetHistory(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Where("1 = 1").
		Delete(&domain.MemberHistoryEntry{})
	return res.RowsAffected, res.Error
}
