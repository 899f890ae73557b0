// Package storage persists the engine's state in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite-backed unit of work. A Store returned to an
// Atomically callback is bound to that transaction.
type Store struct {
	db          *sql.DB
	q           querier
	inTx        bool
	retryConfig retry.Config
}

var _ domain.UnitOfWork = (*Store)(nil)

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes writers, which gives every
	// transaction exclusive access to the plan and task rows it touches.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db: db,
		q:  db,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory store for testing.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Atomically runs fn inside a transaction. Calls made on an already
// transactional Store join the enclosing transaction.
func (s *Store) Atomically(ctx context.Context, fn func(domain.Repositories) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txStore := &Store{db: s.db, q: tx, inTx: true, retryConfig: s.retryConfig}
	if err := fn(txStore); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Plans() planning.Repository          { return &planStore{s} }
func (s *Store) Achievements() achievement.Repository { return &achievementStore{s} }
func (s *Store) Resources() resource.Library          { return &resourceStore{s} }
func (s *Store) Profiles() profile.Repository         { return &profileStore{s} }
func (s *Store) Messages() delivery.LogRepository     { return &messageStore{s} }
func (s *Store) Audit() domain.AuditRepository        { return &auditStore{s} }

// read runs a read query with retry outside of transactions. Inside a
// transaction a retry would only observe the same snapshot.
func read[T any](ctx context.Context, s *Store, fn func(ctx context.Context) (T, error)) (T, error) {
	if s.inTx {
		return fn(ctx)
	}
	retryer := retry.New[T](s.retryConfig)
	return retryer.Do(ctx, fn)
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS users (
	id                TEXT PRIMARY KEY,
	email             TEXT NOT NULL DEFAULT '',
	phone             TEXT NOT NULL DEFAULT '',
	first_name        TEXT NOT NULL DEFAULT '',
	timezone          TEXT NOT NULL DEFAULT 'America/New_York',
	preferred_channel TEXT NOT NULL DEFAULT 'BOTH',
	daily_send_hour   INTEGER NOT NULL DEFAULT 8,
	onboarded         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS business_profiles (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL UNIQUE,
	business_type TEXT NOT NULL DEFAULT '',
	data          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pulses (
	user_id    TEXT NOT NULL,
	week_start TEXT NOT NULL,
	mood       INTEGER NOT NULL DEFAULT 0,
	wins       TEXT NOT NULL DEFAULT '',
	blockers   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, week_start)
);

CREATE TABLE IF NOT EXISTS plans (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	profile_id       TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL,
	status           TEXT NOT NULL,
	phase            INTEGER NOT NULL DEFAULT 1,
	previous_plan_id TEXT,
	duration_days    INTEGER NOT NULL,
	start_date       TEXT NOT NULL,
	end_date         TEXT NOT NULL,
	metadata         TEXT NOT NULL DEFAULT '{}',
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_one_active ON plans(user_id) WHERE status = 'ACTIVE';
CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);

CREATE TABLE IF NOT EXISTS tasks (
	id                   TEXT PRIMARY KEY,
	plan_id              TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	title                TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	category             TEXT NOT NULL,
	difficulty           TEXT NOT NULL,
	estimated_minutes    INTEGER NOT NULL,
	day_number           INTEGER NOT NULL,
	due_date             TEXT NOT NULL,
	sort_order           INTEGER NOT NULL DEFAULT 0,
	status               TEXT NOT NULL,
	sent_at              TEXT,
	completed_at         TEXT,
	skipped_at           TEXT,
	user_response        TEXT NOT NULL DEFAULT '',
	rescheduled_to       TEXT,
	rescheduled_by       TEXT NOT NULL DEFAULT '',
	personalized_message TEXT NOT NULL DEFAULT '',
	created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_plan_due ON tasks(plan_id, due_date, sort_order);
CREATE INDEX IF NOT EXISTS idx_tasks_skipped ON tasks(plan_id, skipped_at);

CREATE TABLE IF NOT EXISTS streak_records (
	user_id         TEXT NOT NULL,
	date            TEXT NOT NULL,
	tasks_completed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS achievements (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	badge       TEXT NOT NULL,
	award_key   TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	earned_at   TEXT NOT NULL,
	metadata    TEXT NOT NULL DEFAULT '{}',
	UNIQUE (user_id, badge, award_key)
);

CREATE TABLE IF NOT EXISTS resource_templates (
	id            TEXT PRIMARY KEY,
	type          TEXT NOT NULL,
	title         TEXT NOT NULL,
	content       TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL,
	business_type TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	times_used    INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_templates_lookup ON resource_templates(type, category, status);

CREATE TABLE IF NOT EXISTS task_resources (
	id          TEXT PRIMARY KEY,
	task_id     TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	template_id TEXT,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS message_logs (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	channel     TEXT NOT NULL,
	direction   TEXT NOT NULL,
	status      TEXT NOT NULL,
	subject     TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	provider_id TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	task_ids    TEXT NOT NULL DEFAULT '[]',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_provider ON message_logs(provider_id);

CREATE TABLE IF NOT EXISTS audit_events (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT NOT NULL UNIQUE,
	timestamp TEXT NOT NULL,
	action    TEXT NOT NULL,
	actor     TEXT NOT NULL,
	metadata  TEXT NOT NULL DEFAULT '{}',
	prev_hash TEXT NOT NULL DEFAULT '',
	hash      TEXT NOT NULL
);
`
