package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/google/uuid"
)

// recordOutbound writes the MessageLog row for one delivery attempt.
func recordOutbound(ctx context.Context, msgs delivery.LogRepository, logger *slog.Logger, userID string, ch delivery.Channel, subject, body string, taskIDs []string, rec *delivery.Record, sendErr error) {
	msg := &delivery.MessageLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Channel:   ch,
		Direction: delivery.Outbound,
		Status:    delivery.StatusSent,
		Subject:   subject,
		Body:      body,
		TaskIDs:   taskIDs,
		CreatedAt: time.Now().UTC(),
	}
	if rec != nil {
		msg.ProviderID = rec.ProviderID
		if rec.Status != "" {
			msg.Status = rec.Status
		}
	}
	if sendErr != nil {
		msg.Status = delivery.StatusFailed
		msg.Error = sendErr.Error()
		logger.Warn("delivery failed", "user_id", userID, "channel", ch, "error", sendErr)
	}
	if err := msgs.SaveMessage(ctx, msg); err != nil {
		logger.Warn("could not record message", "user_id", userID, "channel", ch, "error", err)
	}
}

// MessageService exposes the message log: provider status callbacks and
// per-user history.
type MessageService struct {
	uow    domain.UnitOfWork
	logger *slog.Logger
}

func NewMessageService(uow domain.UnitOfWork, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{uow: uow, logger: logger}
}

// ApplyStatus records a delivery callback. Unknown provider status
// strings are rejected.
func (s *MessageService) ApplyStatus(ctx context.Context, providerID, status, errText string) error {
	st, ok := delivery.ParseStatus(status)
	if !ok {
		return fmt.Errorf("unknown delivery status %q", status)
	}
	if err := s.uow.Messages().UpdateStatus(ctx, delivery.StatusUpdate{ProviderID: providerID, Status: st, Error: errText}); err != nil {
		return err
	}
	s.logger.Info("delivery status updated", "provider_id", providerID, "status", st)
	return nil
}

func (s *MessageService) History(ctx context.Context, userID string, limit int) ([]delivery.MessageLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.uow.Messages().ListMessages(ctx, userID, limit)
}
