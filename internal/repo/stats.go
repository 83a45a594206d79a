// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the admin invitestats command and the ops stats endpoint. Each function
// is context-aware and safe to call from services or handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
)

// StoreStats is a snapshot of row counts across the store.
type StoreStats struct {
	TotalReferrals     int64 `json:"total_referrals"`
	ActiveReferrals    int64 `json:"active_referrals"`
	ValidatedReferrals int64 `json:"validated_referrals"`
	DistinctInviters   int64 `json:"distinct_inviters"`
	HistoryEntries     int64 `json:"history_entries"`
	AuditEvents        int64 `json:"audit_events"`
}

// Stats gathers aggregate counters across all tables. Each counter is a
// lightweight COUNT query; the first failing query aborts the snapshot.
func Stats(ctx context.Context, db *gorm.DB) (StoreStats, error) {
	var s StoreStats
	h := db.WithContext(ctx)

	if err := h.Model(&domain.Referral{}).Count(&s.TotalReferrals).Error; err != nil {
		return s, err
	}
	if err := h.Model(&domain.Referral{}).Where("is_member_active = ?", true).Count(&s.ActiveReferrals).Error; err != nil {
		return s, err
	}
	if err := h.Model(&domain.Referral{}).Where("is_validated = ? AND is_member_active = ?", true, true).Count(&s.ValidatedReferrals).Error; err != nil {
		return s, err
	}
	if err := h.Model(&domain.Referral{}).Distinct("inviter_id").Count(&s.DistinctInviters).Error; err != nil {
		return s, err
	}
	if err := h.Model(&domain.MemberHistoryEntry{}).Count(&s.HistoryEntries).Error; err != nil {
		return s, err
	}
	if err := h.Model(&domain.AuditEvent{}).Count(&s.AuditEvents).Error; err != nil {
		return s, err
	}
	return s, nil
}
