// Package services – ReportService
//
// This file implements the admin reporting surface behind the
// invitehistory, invitestats, auditlogs, and resethistory commands. It is a
// thin layer over the repo: pagination defaults, limit clamping, and the
// audit trail for destructive actions live here.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
	"github.com/nrrp/referral-tracker/internal/repo"
)

const (
	// historyPageSize is the number of entries per invitehistory page.
	historyPageSize = 10
	// auditDefaultLimit caps auditlogs output when no limit is given.
	auditDefaultLimit = 20
	// auditMaxLimit is the hard cap for auditlogs output.
	auditMaxLimit = 100
)

// ReportService serves the admin report commands.
type ReportService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewReportService constructs a ReportService.
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{DB: db}
}

// HistoryPage returns one page of a member's history (newest first) along
// with the total page count. Pages are 1-based; out-of-range values are
// clamped.
func (s *ReportService) HistoryPage(ctx context.Context, memberID string, page int) ([]domain.MemberHistoryEntry, int, error) {
	total, err := repo.CountHistory(ctx, s.DB, memberID)
	if err != nil {
		return nil, 0, err
	}
	pages := int((total + historyPageSize - 1) / historyPageSize)
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	entries, err := repo.ListHistoryPage(ctx, s.DB, memberID, (page-1)*historyPageSize, historyPageSize)
	return entries, pages, err
}

// Stats returns aggregate store counters for the invitestats command.
func (s *ReportService) Stats(ctx context.Context) (repo.StoreStats, error) {
	return repo.Stats(ctx, s.DB)
}

// AuditLogs returns the most recent audit events. A limit <= 0 falls back
// to the default; values above the hard cap are clamped.
func (s *ReportService) AuditLogs(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = auditDefaultLimit
	}
	if limit > auditMaxLimit {
		limit = auditMaxLimit
	}
	return repo.ListAudit(ctx, s.DB, limit)
}

// ResetHistory truncates member_history and records who asked for it.
func (s *ReportService) ResetHistory(ctx context.Context, requestedBy string) (int64, error) {
	rows, err := repo.ResetHistory(ctx, s.DB)
	if err != nil {
		return 0, err
	}
	_, _ = repo.AppendAudit(ctx, s.DB, "history.reset", "warn", map[string]any{
		"requested_by": requestedBy, "rows_deleted": rows,
	})
	return rows, nil
}
