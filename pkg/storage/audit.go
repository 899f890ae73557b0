package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
)

type auditStore struct {
	s *Store
}

func (r *auditStore) RecordEvent(ctx context.Context, e domain.Event) error {
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO audit_events (id, timestamp, action, actor, metadata, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.Timestamp), e.Action, e.Actor, encodeJSON(e.Metadata), e.PrevHash, e.Hash)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

func (r *auditStore) LastEvent(ctx context.Context) (*domain.Event, error) {
	row := r.s.q.QueryRowContext(ctx, `SELECT id, timestamp, action, actor, metadata, prev_hash, hash
		FROM audit_events ORDER BY seq DESC LIMIT 1`)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *auditStore) LoadEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.s.q.QueryContext(ctx, `SELECT id, timestamp, action, actor, metadata, prev_hash, hash
		FROM audit_events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanEvent(sc scanner) (*domain.Event, error) {
	var (
		e      domain.Event
		ts, md string
	)
	if err := sc.Scan(&e.ID, &ts, &e.Action, &e.Actor, &md, &e.PrevHash, &e.Hash); err != nil {
		return nil, err
	}
	e.Timestamp = parseTime(ts)
	if md != "" && md != "null" {
		_ = json.Unmarshal([]byte(md), &e.Metadata)
	}
	return &e, nil
}
