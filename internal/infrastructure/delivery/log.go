package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/google/uuid"
)

// LogGateway writes messages to the log instead of sending them. It
// stands in for any channel without a configured provider.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogGateway{logger: logger}
}

func (g *LogGateway) SendSMS(_ context.Context, to delivery.Recipient, body string) (*delivery.Record, error) {
	id := "log-" + uuid.New().String()
	g.logger.Info("sms (not sent)", "provider_id", id, "user_id", to.UserID, "to", to.Phone, "body", body)
	return &delivery.Record{Channel: delivery.ChannelSMS, ProviderID: id, Status: delivery.StatusSent, SentAt: time.Now().UTC()}, nil
}

func (g *LogGateway) SendEmail(_ context.Context, to delivery.Recipient, subject, _, text string) (*delivery.Record, error) {
	id := "log-" + uuid.New().String()
	g.logger.Info("email (not sent)", "provider_id", id, "user_id", to.UserID, "to", to.Email, "subject", subject, "text", text)
	return &delivery.Record{Channel: delivery.ChannelEmail, ProviderID: id, Status: delivery.StatusSent, SentAt: time.Now().UTC()}, nil
}
