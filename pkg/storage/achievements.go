package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
)

type achievementStore struct {
	s *Store
}

func (r *achievementStore) IncrementStreak(ctx context.Context, userID string, date time.Time) (int, error) {
	day := formatDate(date)
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO streak_records (user_id, date, tasks_completed)
		VALUES (?, ?, 1)
		ON CONFLICT(user_id, date) DO UPDATE SET tasks_completed = tasks_completed + 1`, userID, day)
	if err != nil {
		return 0, fmt.Errorf("upsert streak record: %w", err)
	}

	var n int
	if err := r.s.q.QueryRowContext(ctx, `SELECT tasks_completed FROM streak_records
		WHERE user_id = ? AND date = ?`, userID, day).Scan(&n); err != nil {
		return 0, fmt.Errorf("read streak record: %w", err)
	}
	return n, nil
}

func (r *achievementStore) StreakDates(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	records, err := r.ListStreaks(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(records))
	for i, rec := range records {
		dates[i] = rec.Date
	}
	return dates, nil
}

func (r *achievementStore) LatestStreakBefore(ctx context.Context, userID string, date time.Time) (time.Time, error) {
	var day sql.NullString
	err := r.s.q.QueryRowContext(ctx, `SELECT MAX(date) FROM streak_records
		WHERE user_id = ? AND date < ?`, userID, formatDate(date)).Scan(&day)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest streak record: %w", err)
	}
	if !day.Valid {
		return time.Time{}, nil
	}
	return parseDate(day.String), nil
}

func (r *achievementStore) ListStreaks(ctx context.Context, userID string, from, to time.Time) ([]achievement.StreakRecord, error) {
	return read(ctx, r.s, func(ctx context.Context) ([]achievement.StreakRecord, error) {
		rows, err := r.s.q.QueryContext(ctx, `SELECT date, tasks_completed FROM streak_records
			WHERE user_id = ? AND date >= ? AND date <= ?
			ORDER BY date`, userID, formatDate(from), formatDate(to))
		if err != nil {
			return nil, fmt.Errorf("query streak records: %w", err)
		}
		defer rows.Close()

		var records []achievement.StreakRecord
		for rows.Next() {
			var day string
			rec := achievement.StreakRecord{UserID: userID}
			if err := rows.Scan(&day, &rec.TasksCompleted); err != nil {
				return nil, err
			}
			rec.Date = parseDate(day)
			records = append(records, rec)
		}
		return records, rows.Err()
	})
}

func (r *achievementStore) HasAchievement(ctx context.Context, userID string, badge achievement.Badge, key string) (bool, error) {
	var one int
	err := r.s.q.QueryRowContext(ctx, `SELECT 1 FROM achievements
		WHERE user_id = ? AND badge = ? AND award_key = ?`, userID, string(badge), key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check achievement: %w", err)
	}
	return true, nil
}

func (r *achievementStore) AddAchievement(ctx context.Context, a *achievement.Achievement) (bool, error) {
	res, err := r.s.q.ExecContext(ctx, `INSERT INTO achievements
		(id, user_id, badge, award_key, title, description, earned_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, badge, award_key) DO NOTHING`,
		a.ID, a.UserID, string(a.Badge), a.Key, a.Title, a.Description,
		formatTime(a.EarnedAt), encodeJSON(a.Metadata))
	if err != nil {
		return false, fmt.Errorf("insert achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *achievementStore) ListAchievements(ctx context.Context, userID string) ([]achievement.Achievement, error) {
	return read(ctx, r.s, func(ctx context.Context) ([]achievement.Achievement, error) {
		rows, err := r.s.q.QueryContext(ctx, `SELECT id, badge, award_key, title, description, earned_at, metadata
			FROM achievements WHERE user_id = ? ORDER BY earned_at`, userID)
		if err != nil {
			return nil, fmt.Errorf("query achievements: %w", err)
		}
		defer rows.Close()

		var out []achievement.Achievement
		for rows.Next() {
			var (
				a                 achievement.Achievement
				badge, earned, md string
			)
			if err := rows.Scan(&a.ID, &badge, &a.Key, &a.Title, &a.Description, &earned, &md); err != nil {
				return nil, err
			}
			a.UserID = userID
			a.Badge = achievement.Badge(badge)
			a.EarnedAt = parseTime(earned)
			_ = json.Unmarshal([]byte(md), &a.Metadata)
			out = append(out, a)
		}
		return out, rows.Err()
	})
}
