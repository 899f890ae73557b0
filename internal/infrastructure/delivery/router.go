package delivery

import (
	"context"

	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to delivery.Recipient, body string) (*delivery.Record, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, to delivery.Recipient, subject, html, text string) (*delivery.Record, error)
}

// Router composes independent SMS and email senders into one gateway.
type Router struct {
	SMS   SMSSender
	Email EmailSender
}

var _ delivery.Gateway = (*Router)(nil)

func (r *Router) SendSMS(ctx context.Context, to delivery.Recipient, body string) (*delivery.Record, error) {
	return r.SMS.SendSMS(ctx, to, body)
}

func (r *Router) SendEmail(ctx context.Context, to delivery.Recipient, subject, html, text string) (*delivery.Record, error) {
	return r.Email.SendEmail(ctx, to, subject, html, text)
}
