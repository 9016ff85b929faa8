package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/wardline/roster-api/internal/models"
)

// Audited resource names.
const (
	ResourceShift       = "shift_assignment"
	ResourceOverride    = "schedule_override"
	ResourceInterchange = "interchange_request"
)

type auditSink interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
}

// emitAudit appends a transition record. Audit failures are logged and
// swallowed; they never fail the mutation that produced them.
func emitAudit(ctx context.Context, sink auditSink, logger *zap.Logger, entry *models.AuditEntry) {
	if sink == nil || entry == nil {
		return
	}
	if err := sink.Create(ctx, entry); err != nil && logger != nil {
		logger.Warn("failed to persist audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

func statusPtr[T ~string](v T) *string {
	s := string(v)
	return &s
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
