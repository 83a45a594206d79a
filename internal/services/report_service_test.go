package services

import (
	"context"
	"testing"
	"time"

	"github.com/nrrp/referral-tracker/internal/domain"
	"github.com/nrrp/referral-tracker/internal/repo"
)

func TestHistoryPage_PaginationAndClamping(t *testing.T) {
	db := newServiceDB(t)
	svc := NewReportService(db)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		e := &domain.MemberHistoryEntry{
			MemberID:   "m1",
			Action:     domain.HistoryJoin,
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.AppendHistory(ctx, db, e); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	entries, pages, err := svc.HistoryPage(ctx, "m1", 1)
	if err != nil {
		t.Fatalf("HistoryPage: %v", err)
	}
	if pages != 3 || len(entries) != 10 {
		t.Fatalf("expected 3 pages of 10, got pages=%d len=%d", pages, len(entries))
	}
	if !entries[0].RecordedAt.After(entries[1].RecordedAt) {
		t.Fatalf("expected newest first: %+v", entries[:2])
	}

	// Last page holds the remainder.
	entries, pages, err = svc.HistoryPage(ctx, "m1", 3)
	if err != nil {
		t.Fatalf("HistoryPage: %v", err)
	}
	if pages != 3 || len(entries) != 5 {
		t.Fatalf("expected last page of 5, got pages=%d len=%d", pages, len(entries))
	}

	// Out-of-range pages clamp instead of erroring.
	low, _, err := svc.HistoryPage(ctx, "m1", 0)
	if err != nil || len(low) != 10 {
		t.Fatalf("page 0 must clamp to first page, len=%d err=%v", len(low), err)
	}
	high, _, err := svc.HistoryPage(ctx, "m1", 99)
	if err != nil || len(high) != 5 {
		t.Fatalf("page 99 must clamp to last page, len=%d err=%v", len(high), err)
	}
}

func TestHistoryPage_EmptyMember(t *testing.T) {
	db := newServiceDB(t)
	svc := NewReportService(db)

	entries, pages, err := svc.HistoryPage(context.Background(), "nobody", 1)
	if err != nil {
		t.Fatalf("HistoryPage: %v", err)
	}
	if pages != 1 || len(entries) != 0 {
		t.Fatalf("expected single empty page, got pages=%d len=%d", pages, len(entries))
	}
}

func TestAuditLogs_ClampsLimit(t *testing.T) {
	db := newServiceDB(t)
	svc := NewReportService(db)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		if _, err := repo.AppendAudit(ctx, db, "validation.pass", "info", nil); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}

	out, err := svc.AuditLogs(ctx, 0)
	if err != nil {
		t.Fatalf("AuditLogs default: %v", err)
	}
	if len(out) != 20 {
		t.Fatalf("expected default limit of 20, got %d", len(out))
	}

	out, err = svc.AuditLogs(ctx, 5)
	if err != nil || len(out) != 5 {
		t.Fatalf("expected 5 events, got %d err=%v", len(out), err)
	}

	out, err = svc.AuditLogs(ctx, 10_000)
	if err != nil {
		t.Fatalf("AuditLogs capped: %v", err)
	}
	if len(out) != 30 {
		t.Fatalf("expected all 30 under the hard cap, got %d", len(out))
	}
}

func TestResetHistory_RecordsAudit(t *testing.T) {
	db := newServiceDB(t)
	svc := NewReportService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.AppendHistory(ctx, db, &domain.MemberHistoryEntry{MemberID: "m1", Action: domain.HistoryJoin}); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	rows, err := svc.ResetHistory(ctx, "admin1")
	if err != nil {
		t.Fatalf("ResetHistory: %v", err)
	}
	if rows != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", rows)
	}

	events, err := repo.ListAudit(ctx, db, 10)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "history.reset" || events[0].Severity != "warn" {
		t.Fatalf("expected history.reset audit event, got %+v", events)
	}
}
