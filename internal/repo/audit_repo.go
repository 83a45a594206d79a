// Package repo – audit_log persistence.
//
// audit_log is write-only from the system's perspective; it is read back
// only by the admin auditlogs command and the ops stats endpoint.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
)

// AppendAudit inserts one audit event. The payload is marshalled to JSON;
// a nil payload is stored as an empty object so the column is never NULL.
func AppendAudit(ctx context.Context, db *gorm.DB, eventType, severity string, payload map[string]any) (*domain.AuditEvent, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ev := &domain.AuditEvent{
		ID:         uuid.NewString(),
		EventType:  eventType,
		Payload:    string(raw),
		Severity:   severity,
		RecordedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

// ListAudit returns the most recent audit events, newest first, capped at
// limit rows.
func ListAudit(ctx context.Context, db *gorm.DB, limit int) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	err := db.WithContext(ctx).
		Order("recorded_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
