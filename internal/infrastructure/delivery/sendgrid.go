package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/google/uuid"
)

const sendGridBaseURL = "https://api.sendgrid.com"

// SendGridEmail sends multipart email through the SendGrid v3 mail API.
type SendGridEmail struct {
	APIKey   string
	From     string
	FromName string
	BaseURL  string
	Client   *http.Client
}

func NewSendGridEmail(apiKey, from, fromName string) *SendGridEmail {
	return NewSendGridEmailWithClient(apiKey, from, fromName, "", nil)
}

func NewSendGridEmailWithClient(apiKey, from, fromName, baseURL string, client *http.Client) *SendGridEmail {
	if baseURL == "" {
		baseURL = sendGridBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SendGridEmail{
		APIKey:   apiKey,
		From:     from,
		FromName: fromName,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Client:   client,
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGridEmail) SendEmail(ctx context.Context, to delivery.Recipient, subject, html, text string) (*delivery.Record, error) {
	if to.Email == "" {
		return nil, fmt.Errorf("sendgrid: recipient %s has no email address", to.UserID)
	}
	// text/plain must precede text/html.
	mail := sgMail{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: to.Email, Name: to.Name}}}},
		From:             sgAddress{Email: s.From, Name: s.FromName},
		Subject:          subject,
		Content: []sgContent{
			{Type: "text/plain", Value: text},
			{Type: "text/html", Value: html},
		},
	}
	body, err := json.Marshal(mail)
	if err != nil {
		return nil, fmt.Errorf("marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sendgrid: %v", ai.ErrExternalService, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: sendgrid returned status %d: %s", ai.ErrExternalService, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	id := resp.Header.Get("X-Message-Id")
	if id == "" {
		id = uuid.New().String()
	}
	return &delivery.Record{
		Channel:    delivery.ChannelEmail,
		ProviderID: id,
		Status:     delivery.StatusQueued,
		SentAt:     time.Now().UTC(),
	}, nil
}
