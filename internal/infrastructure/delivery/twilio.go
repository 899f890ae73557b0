// Package delivery provides SMS and email gateways: Twilio, SendGrid, a
// signed webhook and a log-only fallback.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
)

const twilioBaseURL = "https://api.twilio.com"

// TwilioSMS sends text messages through the Twilio Messages API.
type TwilioSMS struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Client     *http.Client
}

func NewTwilioSMS(accountSID, authToken, from string) *TwilioSMS {
	return NewTwilioSMSWithClient(accountSID, authToken, from, "", nil)
}

func NewTwilioSMSWithClient(accountSID, authToken, from, baseURL string, client *http.Client) *TwilioSMS {
	if baseURL == "" {
		baseURL = twilioBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TwilioSMS{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     client,
	}
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (t *TwilioSMS) SendSMS(ctx context.Context, to delivery.Recipient, body string) (*delivery.Record, error) {
	if to.Phone == "" {
		return nil, fmt.Errorf("twilio: recipient %s has no phone number", to.UserID)
	}
	form := url.Values{}
	form.Set("To", to.Phone)
	form.Set("From", t.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.BaseURL, url.PathEscape(t.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: twilio: %v", ai.ErrExternalService, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var msg twilioMessage
	_ = json.Unmarshal(raw, &msg)
	if resp.StatusCode >= 300 {
		detail := msg.Message
		if detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("%w: twilio returned status %d: %s", ai.ErrExternalService, resp.StatusCode, detail)
	}

	status, ok := delivery.ParseStatus(msg.Status)
	if !ok {
		status = delivery.StatusQueued
	}
	return &delivery.Record{
		Channel:    delivery.ChannelSMS,
		ProviderID: msg.SID,
		Status:     status,
		SentAt:     time.Now().UTC(),
	}, nil
}
