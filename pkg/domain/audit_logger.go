package domain

import "context"

// AuditLogger provides a simple interface for logging audit events.
// Services should depend on this interface rather than concrete implementations.
type AuditLogger interface {
	Log(ctx context.Context, action string, actor string, metadata map[string]interface{}) error
}

// NopAuditLogger discards events.
type NopAuditLogger struct{}

func (NopAuditLogger) Log(context.Context, string, string, map[string]interface{}) error { return nil }
