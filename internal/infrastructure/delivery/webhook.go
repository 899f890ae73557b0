package delivery

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/google/uuid"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Launchpath-Signature"

// WebhookGateway posts every message as signed JSON to one endpoint,
// leaving the actual SMS or email hop to the receiver.
type WebhookGateway struct {
	URL        string
	Secret     string
	MaxRetries int
	RetryDelay time.Duration

	// DeadLetters, when set, receives messages that exhausted every retry.
	DeadLetters *DeadLetterStore

	client *http.Client
}

func NewWebhookGateway(url, secret string) *WebhookGateway {
	return &WebhookGateway{
		URL:        url,
		Secret:     secret,
		MaxRetries: 3,
		RetryDelay: time.Second,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Payload is the JSON body sent to the endpoint.
type Payload struct {
	ID        string           `json:"id"`
	Channel   delivery.Channel `json:"channel"`
	Timestamp time.Time        `json:"timestamp"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name,omitempty"`
	Phone     string           `json:"phone,omitempty"`
	Email     string           `json:"email,omitempty"`
	Subject   string           `json:"subject,omitempty"`
	HTML      string           `json:"html,omitempty"`
	Text      string           `json:"text"`
}

func (g *WebhookGateway) SendSMS(ctx context.Context, to delivery.Recipient, body string) (*delivery.Record, error) {
	return g.post(ctx, Payload{
		Channel: delivery.ChannelSMS,
		UserID:  to.UserID,
		Name:    to.Name,
		Phone:   to.Phone,
		Text:    body,
	})
}

func (g *WebhookGateway) SendEmail(ctx context.Context, to delivery.Recipient, subject, html, text string) (*delivery.Record, error) {
	return g.post(ctx, Payload{
		Channel: delivery.ChannelEmail,
		UserID:  to.UserID,
		Name:    to.Name,
		Email:   to.Email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
}

func (g *WebhookGateway) post(ctx context.Context, p Payload) (*delivery.Record, error) {
	p.ID = uuid.New().String()
	p.Timestamp = time.Now().UTC()
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	attempts := g.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  g.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	if _, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.send(ctx, body)
	}); err != nil {
		g.deadLetter(p, body, attempts, err)
		return nil, fmt.Errorf("%w: webhook: %v", ai.ErrExternalService, err)
	}

	return &delivery.Record{
		Channel:    p.Channel,
		ProviderID: p.ID,
		Status:     delivery.StatusSent,
		SentAt:     p.Timestamp,
	}, nil
}

func (g *WebhookGateway) deadLetter(p Payload, body []byte, attempts int, cause error) {
	if g.DeadLetters == nil {
		return
	}
	_ = g.DeadLetters.Append(DeadLetter{
		FailedAt: time.Now().UTC(),
		URL:      g.URL,
		Channel:  p.Channel,
		UserID:   p.UserID,
		Payload:  string(body),
		Error:    cause.Error(),
		Attempts: attempts,
	})
}

func (g *WebhookGateway) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Launchpath-Webhook/1.0")

	if g.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, g.Secret))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Sign computes the HMAC-SHA256 of payload using secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
