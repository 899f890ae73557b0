package storage

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
)

type resourceStore struct {
	s *Store
}

func (r *resourceStore) FindTemplates(ctx context.Context, q resource.Query) ([]resource.Template, error) {
	query := `SELECT id, type, title, content, url, category, business_type, status, times_used, created_at
		FROM resource_templates WHERE type = ? AND category = ? AND status = ?`
	args := []any{string(q.Type), string(q.Category), string(q.Status)}
	if q.BusinessType != "" {
		query += ` AND business_type = ?`
		args = append(args, q.BusinessType)
	}
	// Most used first so popular content keeps being reused.
	query += ` ORDER BY times_used DESC, created_at`

	rows, err := r.s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var out []resource.Template
	for rows.Next() {
		var (
			t                              resource.Template
			typ, category, status, created string
		)
		if err := rows.Scan(&t.ID, &typ, &t.Title, &t.Content, &t.URL, &category, &t.BusinessType,
			&status, &t.TimesUsed, &created); err != nil {
			return nil, err
		}
		t.Type = resource.Type(typ)
		t.Category = planning.Category(category)
		t.Status = resource.Status(status)
		t.CreatedAt = parseTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *resourceStore) CreateTemplate(ctx context.Context, t *resource.Template) error {
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO resource_templates
		(id, type, title, content, url, category, business_type, status, times_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), t.Title, t.Content, t.URL, string(t.Category), t.BusinessType,
		string(t.Status), t.TimesUsed, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *resourceStore) IncrementUsage(ctx context.Context, templateID string) error {
	_, err := r.s.q.ExecContext(ctx, `UPDATE resource_templates SET times_used = times_used + 1 WHERE id = ?`, templateID)
	if err != nil {
		return fmt.Errorf("increment template usage: %w", err)
	}
	return nil
}

func (r *resourceStore) AttachToTask(ctx context.Context, res *resource.TaskResource) error {
	_, err := r.s.q.ExecContext(ctx, `INSERT INTO task_resources
		(id, task_id, template_id, type, title, content, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.TaskID, nullString(res.TemplateID), string(res.Type), res.Title, res.Content, res.URL,
		formatTime(res.CreatedAt))
	if err != nil {
		return fmt.Errorf("attach resource: %w", err)
	}
	return nil
}

func (r *resourceStore) ListForTask(ctx context.Context, taskID string) ([]resource.TaskResource, error) {
	rows, err := r.s.q.QueryContext(ctx, `SELECT id, COALESCE(template_id, ''), type, title, content, url, created_at
		FROM task_resources WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query task resources: %w", err)
	}
	defer rows.Close()

	var out []resource.TaskResource
	for rows.Next() {
		var (
			res          resource.TaskResource
			typ, created string
		)
		if err := rows.Scan(&res.ID, &res.TemplateID, &typ, &res.Title, &res.Content, &res.URL, &created); err != nil {
			return nil, err
		}
		res.TaskID = taskID
		res.Type = resource.Type(typ)
		res.CreatedAt = parseTime(created)
		out = append(out, res)
	}
	return out, rows.Err()
}
