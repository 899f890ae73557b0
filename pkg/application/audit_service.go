package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/google/uuid"
)

type AuditService struct {
	uow domain.UnitOfWork
	now func() time.Time
}

// Compile-time check that AuditService implements AuditLogger
var _ domain.AuditLogger = (*AuditService)(nil)

func NewAuditService(uow domain.UnitOfWork) *AuditService {
	return &AuditService{uow: uow, now: time.Now}
}

// Log appends an event to the hash chain. The read of the previous hash
// and the insert share a transaction so concurrent writers cannot fork
// the chain. Log must not be called from inside another Atomically
// callback.
func (s *AuditService) Log(ctx context.Context, action string, actor string, metadata map[string]interface{}) error {
	return s.uow.Atomically(ctx, func(r domain.Repositories) error {
		last, err := r.Audit().LastEvent(ctx)
		if err != nil {
			return fmt.Errorf("load last audit event: %w", err)
		}
		prevHash := ""
		if last != nil {
			prevHash = last.Hash
		}

		event := domain.Event{
			ID:        uuid.New().String(),
			Timestamp: s.now().UTC(),
			Action:    action,
			Actor:     actor,
			Metadata:  metadata,
			PrevHash:  prevHash,
		}
		event.Hash = event.CalculateHash()

		return r.Audit().RecordEvent(ctx, event)
	})
}

func (s *AuditService) GetTimeline(ctx context.Context) ([]domain.Event, error) {
	return s.uow.Audit().LoadEvents(ctx)
}

func (s *AuditService) VerifyIntegrity(ctx context.Context) ([]string, error) {
	events, err := s.uow.Audit().LoadEvents(ctx)
	if err != nil {
		return nil, err
	}

	var violations []string
	lastHash := ""

	for i, e := range events {
		// 1. Verify links
		if e.PrevHash != lastHash {
			violations = append(violations, fmt.Sprintf("Event %d (%s): PrevHash mismatch. Audit trail broken.", i, e.ID))
		}

		// 2. Verify self-hash
		if e.Hash != e.CalculateHash() {
			violations = append(violations, fmt.Sprintf("Event %d (%s): Content hash mismatch. Possible tampering.", i, e.ID))
		}

		lastHash = e.Hash
	}

	return violations, nil
}

// logAudit records an event after the fact. The operation it describes
// has already committed, so a failure is logged rather than returned.
func logAudit(ctx context.Context, audit domain.AuditLogger, logger *slog.Logger, action, actor string, metadata map[string]interface{}) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, action, actor, metadata); err != nil {
		logger.Warn("audit log failed", "action", action, "error", err)
	}
}
