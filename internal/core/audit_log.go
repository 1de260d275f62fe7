package core

import "context"

// LogAuditRecorder writes every audit entry to a Logger, at warn level when
// the operation failed.
type LogAuditRecorder struct {
	logger Logger
}

// NewLogAuditRecorder returns a recorder writing to logger.
func NewLogAuditRecorder(logger Logger) *LogAuditRecorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogAuditRecorder{logger: logger}
}

// Record implements AuditRecorder.
func (r *LogAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	args := []any{
		"operation", entry.Operation,
		"entity", string(entry.Entity),
		"action", string(entry.Action),
		"entity_id", entry.EntityID,
		"actor", entry.Actor,
		"status", string(entry.Status),
		"duration", entry.Duration,
	}
	if entry.Outcome != "" {
		args = append(args, "outcome", entry.Outcome)
	}
	if entry.Status == AuditStatusError {
		args = append(args, "error", entry.Error)
		r.logger.Warn("audit", args...)
		return
	}
	r.logger.Info("audit", args...)
}
