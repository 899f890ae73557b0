package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
)

// userPageSize bounds how many users a single page of OnboardedUsers holds.
const userPageSize = 100

type profileStore struct {
	s *Store
}

const userColumns = `id, email, phone, first_name, timezone, preferred_channel, daily_send_hour, onboarded`

func (r *profileStore) GetUser(ctx context.Context, id string) (*profile.User, error) {
	u, err := read(ctx, r.s, func(ctx context.Context) (*profile.User, error) {
		row := r.s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
		u, err := scanUser(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return u, err
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: %s", profile.ErrUserNotFound, id)
	}
	return u, nil
}

func (r *profileStore) SaveUser(ctx context.Context, u *profile.User) error {
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, phone = excluded.phone,
			first_name = excluded.first_name, timezone = excluded.timezone,
			preferred_channel = excluded.preferred_channel, daily_send_hour = excluded.daily_send_hour,
			onboarded = excluded.onboarded`,
		u.ID, u.Email, u.Phone, u.FirstName, u.Timezone, string(u.PreferredChannel), u.DailySendHour, boolInt(u.Onboarded))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *profileStore) GetBusinessProfile(ctx context.Context, userID string) (*profile.BusinessProfile, error) {
	var data string
	err := r.s.q.QueryRowContext(ctx, `SELECT data FROM business_profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", profile.ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load business profile: %w", err)
	}

	var bp profile.BusinessProfile
	if err := json.Unmarshal([]byte(data), &bp); err != nil {
		return nil, fmt.Errorf("decode business profile: %w", err)
	}
	return &bp, nil
}

func (r *profileStore) SaveBusinessProfile(ctx context.Context, p *profile.BusinessProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode business profile: %w", err)
	}
	_, err = r.s.q.ExecContext(ctx, `INSERT INTO business_profiles (id, user_id, business_type, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET id = excluded.id, business_type = excluded.business_type, data = excluded.data`,
		p.ID, p.UserID, p.BusinessType, string(data))
	if err != nil {
		return fmt.Errorf("save business profile: %w", err)
	}
	return nil
}

func (r *profileStore) RecentPulses(ctx context.Context, userID string, limit int) ([]profile.Pulse, error) {
	rows, err := r.s.q.QueryContext(ctx, `SELECT week_start, mood, wins, blockers FROM pulses
		WHERE user_id = ? ORDER BY week_start DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query pulses: %w", err)
	}
	defer rows.Close()

	var out []profile.Pulse
	for rows.Next() {
		var (
			p    = profile.Pulse{UserID: userID}
			week string
		)
		if err := rows.Scan(&week, &p.Mood, &p.Wins, &p.Blockers); err != nil {
			return nil, err
		}
		p.WeekStart = parseDate(week)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *profileStore) SavePulse(ctx context.Context, p *profile.Pulse) error {
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO pulses (user_id, week_start, mood, wins, blockers)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET mood = excluded.mood, wins = excluded.wins, blockers = excluded.blockers`,
		p.UserID, formatDate(p.WeekStart), p.Mood, p.Wins, p.Blockers)
	if err != nil {
		return fmt.Errorf("save pulse: %w", err)
	}
	return nil
}

// OnboardedUsers pages through users by id. Each page is fully read
// before it is yielded so callers may use the store while iterating.
func (r *profileStore) OnboardedUsers(ctx context.Context) iter.Seq2[profile.User, error] {
	return func(yield func(profile.User, error) bool) {
		after := ""
		for {
			page, err := r.userPage(ctx, after)
			if err != nil {
				yield(profile.User{}, err)
				return
			}
			for _, u := range page {
				if !yield(u, nil) {
					return
				}
			}
			if len(page) < userPageSize {
				return
			}
			after = page[len(page)-1].ID
		}
	}
}

func (r *profileStore) userPage(ctx context.Context, after string) ([]profile.User, error) {
	return read(ctx, r.s, func(ctx context.Context) ([]profile.User, error) {
		rows, err := r.s.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users
			WHERE onboarded = 1 AND id > ? ORDER BY id LIMIT ?`, after, userPageSize)
		if err != nil {
			return nil, fmt.Errorf("query users: %w", err)
		}
		defer rows.Close()

		var page []profile.User
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return nil, err
			}
			page = append(page, *u)
		}
		return page, rows.Err()
	})
}

func scanUser(sc scanner) (*profile.User, error) {
	var (
		u         profile.User
		channel   string
		onboarded int
	)
	if err := sc.Scan(&u.ID, &u.Email, &u.Phone, &u.FirstName, &u.Timezone, &channel, &u.DailySendHour, &onboarded); err != nil {
		return nil, err
	}
	u.PreferredChannel = profile.Channel(channel)
	u.Onboarded = onboarded == 1
	return &u, nil
}
