package wiring

import (
	"log/slog"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/config"
	infradelivery "github.com/felixgeelhaar/launchpath/internal/infrastructure/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
)

// BuildGateway picks a sender per channel: the provider when configured,
// else the webhook, else the log.
func BuildGateway(cfg config.DeliveryConfig, logger *slog.Logger) delivery.Gateway {
	var fallback interface {
		infradelivery.SMSSender
		infradelivery.EmailSender
	}
	if cfg.Webhook.URL != "" {
		wh := infradelivery.NewWebhookGateway(cfg.Webhook.URL, cfg.Webhook.Secret)
		if cfg.Webhook.DeadLetterFile != "" {
			wh.DeadLetters = infradelivery.NewDeadLetterStore(cfg.Webhook.DeadLetterFile)
		}
		fallback = wh
	} else {
		fallback = infradelivery.NewLogGateway(logger)
	}

	router := &infradelivery.Router{SMS: fallback, Email: fallback}
	if cfg.Twilio.Enabled() {
		router.SMS = infradelivery.NewTwilioSMSWithClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.Twilio.BaseURL, nil)
	}
	if cfg.SendGrid.Enabled() {
		router.Email = infradelivery.NewSendGridEmailWithClient(cfg.SendGrid.APIKey, cfg.SendGrid.From, cfg.SendGrid.FromName, cfg.SendGrid.BaseURL, nil)
	}
	return router
}
