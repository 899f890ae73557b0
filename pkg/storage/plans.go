package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

type planStore struct {
	s *Store
}

const planColumns = `id, user_id, profile_id, title, status, phase, previous_plan_id,
	duration_days, start_date, end_date, metadata, created_at, updated_at`

const taskColumns = `id, plan_id, title, description, category, difficulty, estimated_minutes,
	day_number, due_date, sort_order, status, sent_at, completed_at, skipped_at,
	user_response, rescheduled_to, rescheduled_by, personalized_message, created_at`

func (r *planStore) CreatePlan(ctx context.Context, p *planning.Plan) error {
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.ProfileID, p.Title, string(p.Status), p.Phase, nullString(p.PreviousPlanID),
		p.DurationDays, formatDate(p.StartDate), formatDate(p.EndDate), encodeJSON(p.Metadata),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (r *planStore) UpdatePlan(ctx context.Context, p *planning.Plan) error {
	res, err := r.s.q.ExecContext(ctx, `UPDATE plans SET title = ?, status = ?, phase = ?, previous_plan_id = ?,
		duration_days = ?, start_date = ?, end_date = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, string(p.Status), p.Phase, nullString(p.PreviousPlanID),
		p.DurationDays, formatDate(p.StartDate), formatDate(p.EndDate), encodeJSON(p.Metadata),
		formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return expectOne(res, planning.ErrPlanNotFound)
}

func (r *planStore) GetPlan(ctx context.Context, id string) (*planning.Plan, error) {
	p, err := read(ctx, r.s, func(ctx context.Context) (*planning.Plan, error) {
		row := r.s.q.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
		return scanPlanOrNil(row)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", planning.ErrPlanNotFound, id)
	}
	return p, nil
}

func (r *planStore) ActivePlan(ctx context.Context, userID string) (*planning.Plan, error) {
	p, err := read(ctx, r.s, func(ctx context.Context) (*planning.Plan, error) {
		row := r.s.q.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans
			WHERE user_id = ? AND status = ?`, userID, string(planning.PlanActive))
		return scanPlanOrNil(row)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, planning.ErrNoActivePlan
	}
	return p, nil
}

func (r *planStore) ListPlans(ctx context.Context, userID string) ([]planning.Plan, error) {
	return r.queryPlans(ctx, `SELECT `+planColumns+` FROM plans WHERE user_id = ? ORDER BY phase, created_at`, userID)
}

func (r *planStore) ListPlansByStatus(ctx context.Context, status planning.PlanStatus) ([]planning.Plan, error) {
	return r.queryPlans(ctx, `SELECT `+planColumns+` FROM plans WHERE status = ? ORDER BY created_at`, string(status))
}

func (r *planStore) queryPlans(ctx context.Context, query string, args ...any) ([]planning.Plan, error) {
	rows, err := r.s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []planning.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (r *planStore) CreateTask(ctx context.Context, t *planning.Task) error {
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PlanID, t.Title, t.Description, string(t.Category), string(t.Difficulty), t.EstimatedMinutes,
		t.DayNumber, formatDate(t.DueDate), t.SortOrder, string(t.Status),
		nullTime(t.SentAt), nullTime(t.CompletedAt), nullTime(t.SkippedAt),
		t.UserResponse, nullDate(t.RescheduledTo), t.RescheduledBy, t.PersonalizedMessage,
		formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *planStore) UpdateTask(ctx context.Context, t *planning.Task) error {
	res, err := r.s.q.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, category = ?, difficulty = ?,
		estimated_minutes = ?, day_number = ?, due_date = ?, sort_order = ?, status = ?,
		sent_at = ?, completed_at = ?, skipped_at = ?, user_response = ?,
		rescheduled_to = ?, rescheduled_by = ?, personalized_message = ?
		WHERE id = ?`,
		t.Title, t.Description, string(t.Category), string(t.Difficulty),
		t.EstimatedMinutes, t.DayNumber, formatDate(t.DueDate), t.SortOrder, string(t.Status),
		nullTime(t.SentAt), nullTime(t.CompletedAt), nullTime(t.SkippedAt), t.UserResponse,
		nullDate(t.RescheduledTo), t.RescheduledBy, t.PersonalizedMessage,
		t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOne(res, planning.ErrTaskNotFound)
}

func (r *planStore) DeleteTask(ctx context.Context, id string) error {
	res, err := r.s.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOne(res, planning.ErrTaskNotFound)
}

func (r *planStore) GetTask(ctx context.Context, id string) (*planning.Task, error) {
	t, err := read(ctx, r.s, func(ctx context.Context) (*planning.Task, error) {
		row := r.s.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
		t, err := scanTask(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return t, err
	})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", planning.ErrTaskNotFound, id)
	}
	return t, nil
}

func (r *planStore) ListTasks(ctx context.Context, planID string, filter planning.TaskFilter) ([]planning.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE plan_id = ?`
	args := []any{planID}

	if filter.DueDate != nil {
		query += ` AND due_date = ?`
		args = append(args, formatDate(*filter.DueDate))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY due_date, sort_order, created_at`

	return r.queryTasks(ctx, query, args...)
}

func (r *planStore) RecentlySkipped(ctx context.Context, planID string, limit int) ([]planning.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE plan_id = ? AND skipped_at IS NOT NULL
		ORDER BY skipped_at DESC LIMIT ?`, planID, limit)
}

func (r *planStore) RecentlyResolved(ctx context.Context, planID string, limit int) ([]planning.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE plan_id = ? AND status IN (?, ?)
		ORDER BY due_date DESC, sort_order DESC LIMIT ?`,
		planID, string(planning.StatusDone), string(planning.StatusSkipped), limit)
}

func (r *planStore) CountDone(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t
		JOIN plans p ON p.id = t.plan_id
		WHERE p.user_id = ? AND t.status = ?`, userID, string(planning.StatusDone)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count done tasks: %w", err)
	}
	return n, nil
}

func (r *planStore) CountPlansWithDone(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.s.q.QueryRowContext(ctx, `SELECT COUNT(DISTINCT t.plan_id) FROM tasks t
		JOIN plans p ON p.id = t.plan_id
		WHERE p.user_id = ? AND t.status = ?`, userID, string(planning.StatusDone)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count plans with done tasks: %w", err)
	}
	return n, nil
}

func (r *planStore) queryTasks(ctx context.Context, query string, args ...any) ([]planning.Task, error) {
	return read(ctx, r.s, func(ctx context.Context) ([]planning.Task, error) {
		rows, err := r.s.q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query tasks: %w", err)
		}
		defer rows.Close()

		var tasks []planning.Task
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *t)
		}
		return tasks, rows.Err()
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlanOrNil(row *sql.Row) (*planning.Plan, error) {
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanPlan(sc scanner) (*planning.Plan, error) {
	var (
		p                          planning.Plan
		status, start, end         string
		metadata, created, updated string
		previous                   sql.NullString
	)
	err := sc.Scan(&p.ID, &p.UserID, &p.ProfileID, &p.Title, &status, &p.Phase, &previous,
		&p.DurationDays, &start, &end, &metadata, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Status = planning.PlanStatus(status)
	p.PreviousPlanID = previous.String
	p.StartDate = parseDate(start)
	p.EndDate = parseDate(end)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	p.Metadata = map[string]string{}
	_ = json.Unmarshal([]byte(metadata), &p.Metadata)
	return &p, nil
}

func scanTask(sc scanner) (*planning.Task, error) {
	var (
		t                                       planning.Task
		category, difficulty, due, status       string
		created                                 string
		sentAt, completedAt, skippedAt, resched sql.NullString
	)
	err := sc.Scan(&t.ID, &t.PlanID, &t.Title, &t.Description, &category, &difficulty, &t.EstimatedMinutes,
		&t.DayNumber, &due, &t.SortOrder, &status, &sentAt, &completedAt, &skippedAt,
		&t.UserResponse, &resched, &t.RescheduledBy, &t.PersonalizedMessage, &created)
	if err != nil {
		return nil, err
	}
	t.Category = planning.Category(category)
	t.Difficulty = planning.Difficulty(difficulty)
	t.DueDate = parseDate(due)
	t.Status = planning.TaskStatus(status)
	t.SentAt = parseNullTime(sentAt)
	t.CompletedAt = parseNullTime(completedAt)
	t.SkippedAt = parseNullTime(skippedAt)
	t.RescheduledTo = parseNullDate(resched)
	t.CreatedAt = parseTime(created)
	return &t, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
