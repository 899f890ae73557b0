// Package delivery defines the outbound SMS/email gateway and the message log.
package delivery

import (
	"context"
	"errors"
	"time"
)

var ErrMessageNotFound = errors.New("message not found")

type Channel string

const (
	ChannelSMS   Channel = "SMS"
	ChannelEmail Channel = "EMAIL"
)

type Direction string

const (
	Outbound Direction = "OUTBOUND"
	Inbound  Direction = "INBOUND"
)

type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusReceived  Status = "RECEIVED"
)

// ParseStatus maps provider status strings onto a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusQueued, StatusSent, StatusDelivered, StatusFailed, StatusReceived:
		return Status(s), true
	}
	switch s {
	case "queued", "accepted", "sending":
		return StatusQueued, true
	case "sent", "processed":
		return StatusSent, true
	case "delivered", "delivery":
		return StatusDelivered, true
	case "failed", "undelivered", "bounce", "dropped":
		return StatusFailed, true
	}
	return "", false
}

// Recipient is who a message is addressed to.
type Recipient struct {
	UserID string
	Name   string
	Phone  string
	Email  string
}

// Record is the outcome of a gateway send.
type Record struct {
	Channel    Channel
	ProviderID string
	Status     Status
	SentAt     time.Time
}

// Gateway delivers messages over SMS and email. Each channel is attempted
// independently by the caller.
type Gateway interface {
	SendSMS(ctx context.Context, to Recipient, body string) (*Record, error)
	SendEmail(ctx context.Context, to Recipient, subject, html, text string) (*Record, error)
}

// MessageLog is the audit row for every inbound and outbound message.
type MessageLog struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Channel    Channel   `json:"channel"`
	Direction  Direction `json:"direction"`
	Status     Status    `json:"status"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	ProviderID string    `json:"provider_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	TaskIDs    []string  `json:"task_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusUpdate is a provider delivery callback.
type StatusUpdate struct {
	ProviderID string
	Status     Status
	Error      string
}

// LogRepository persists message logs.
type LogRepository interface {
	SaveMessage(ctx context.Context, m *MessageLog) error
	// UpdateStatus applies a status callback; ErrMessageNotFound when no
	// message carries the provider id.
	UpdateStatus(ctx context.Context, u StatusUpdate) error
	ListMessages(ctx context.Context, userID string, limit int) ([]MessageLog, error)
}
