package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardinventory/internal/logging"
)

// AuditAction is the kind of inventory change being audited.
type AuditAction string

const (
	ActionImport         AuditAction = "import"
	ActionItemUpdate     AuditAction = "item_update"
	ActionItemDelete     AuditAction = "item_delete"
	ActionInventoryClear AuditAction = "inventory_clear"
)

// AuditSeverity ranks audit entries.
type AuditSeverity string

const (
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry records one committed change and who asked for it.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	ItemID       int64         `json:"item_id,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
	RowsAffected int64         `json:"rows_affected,omitempty"`
	IPAddress    string        `json:"ip_address,omitempty"`
	UserAgent    string        `json:"user_agent,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AuditSink receives audit entries. Implementations must not block.
type AuditSink interface {
	RecordAudit(ctx context.Context, e AuditEntry)
}

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionInventoryClear:
		return SeverityCritical
	case ActionImport, ActionItemDelete:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// LogAuditSink writes audit entries to the context logger. Critical
// entries log at Warn.
type LogAuditSink struct{}

func (LogAuditSink) RecordAudit(ctx context.Context, e AuditEntry) {
	level := slog.LevelInfo
	if e.Severity == SeverityCritical {
		level = slog.LevelWarn
	}
	args := []any{
		"audit_id", e.ID,
		"action", e.Action,
		"severity", e.Severity,
	}
	if e.ItemID != 0 {
		args = append(args, "item_id", e.ItemID)
	}
	if e.RowsAffected != 0 {
		args = append(args, "rows_affected", e.RowsAffected)
	}
	if e.IPAddress != "" {
		args = append(args, "ip", e.IPAddress, "user_agent", e.UserAgent)
	}
	logging.FromContext(ctx).Log(ctx, level, "audit", args...)
}

// audit builds an entry for action, fills in the requester and session
// from ctx, and hands it to the configured sink.
func (s *Service) audit(ctx context.Context, action AuditAction, itemID, rows int64) {
	e := AuditEntry{
		ID:           uuid.NewString(),
		Action:       action,
		Severity:     determineSeverity(action),
		ItemID:       itemID,
		SessionID:    logging.SessionFromContext(ctx),
		RowsAffected: rows,
		CreatedAt:    time.Now().UTC(),
	}
	if r, ok := RequesterFromContext(ctx); ok {
		e.IPAddress = r.IP
		e.UserAgent = r.UserAgent
	}
	s.auditSink.RecordAudit(ctx, e)
}
