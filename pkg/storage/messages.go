package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
)

type messageStore struct {
	s *Store
}

func (r *messageStore) SaveMessage(ctx context.Context, m *delivery.MessageLog) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO message_logs
		(id, user_id, channel, direction, status, subject, body, provider_id, error, task_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, string(m.Channel), string(m.Direction), string(m.Status), m.Subject, m.Body,
		m.ProviderID, m.Error, encodeJSON(m.TaskIDs), formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert message log: %w", err)
	}
	return nil
}

func (r *messageStore) UpdateStatus(ctx context.Context, u delivery.StatusUpdate) error {
	res, err := r.s.q.ExecContext(ctx, `UPDATE message_logs SET status = ?, error = ?, updated_at = ?
		WHERE provider_id = ? AND provider_id != ''`,
		string(u.Status), u.Error, formatTime(time.Now()), u.ProviderID)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	return expectOne(res, delivery.ErrMessageNotFound)
}

func (r *messageStore) ListMessages(ctx context.Context, userID string, limit int) ([]delivery.MessageLog, error) {
	rows, err := r.s.q.QueryContext(ctx, `SELECT id, channel, direction, status, subject, body, provider_id, error,
		task_ids, created_at, updated_at
		FROM message_logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query message logs: %w", err)
	}
	defer rows.Close()

	var out []delivery.MessageLog
	for rows.Next() {
		var (
			m                                         = delivery.MessageLog{UserID: userID}
			channel, direction, status, ids, cr, upd string
		)
		if err := rows.Scan(&m.ID, &channel, &direction, &status, &m.Subject, &m.Body, &m.ProviderID, &m.Error,
			&ids, &cr, &upd); err != nil {
			return nil, err
		}
		m.Channel = delivery.Channel(channel)
		m.Direction = delivery.Direction(direction)
		m.Status = delivery.Status(status)
		_ = json.Unmarshal([]byte(ids), &m.TaskIDs)
		m.CreatedAt = parseTime(cr)
		m.UpdatedAt = parseTime(upd)
		out = append(out, m)
	}
	return out, rows.Err()
}
