package domain

import "context"

// AuditRepository handles persistence of the hash-chained event log.
type AuditRepository interface {
	RecordEvent(ctx context.Context, event Event) error
	// LastEvent returns nil when the log is empty.
	LastEvent(ctx context.Context) (*Event, error)
	LoadEvents(ctx context.Context) ([]Event, error)
}
