package planning

import (
	"context"
	"time"
)

// TaskFilter narrows ListTasks. Zero values match everything.
type TaskFilter struct {
	DueDate  *time.Time
	Statuses []TaskStatus
}

// Repository persists plans and their tasks.
type Repository interface {
	CreatePlan(ctx context.Context, p *Plan) error
	UpdatePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, id string) (*Plan, error)
	// ActivePlan returns ErrNoActivePlan when the user has none.
	ActivePlan(ctx context.Context, userID string) (*Plan, error)
	ListPlans(ctx context.Context, userID string) ([]Plan, error)
	ListPlansByStatus(ctx context.Context, status PlanStatus) ([]Plan, error)

	CreateTask(ctx context.Context, t *Task) error
	UpdateTask(ctx context.Context, t *Task) error
	DeleteTask(ctx context.Context, id string) error
	GetTask(ctx context.Context, id string) (*Task, error)
	// ListTasks returns tasks ordered by due date, then sort order.
	ListTasks(ctx context.Context, planID string, filter TaskFilter) ([]Task, error)
	// RecentlySkipped returns up to limit tasks with a skip time, newest first.
	RecentlySkipped(ctx context.Context, planID string, limit int) ([]Task, error)
	// RecentlyResolved returns up to limit DONE or SKIPPED tasks ordered
	// by due date then sort order, latest first.
	RecentlyResolved(ctx context.Context, planID string, limit int) ([]Task, error)
	// CountDone counts DONE tasks across all of the user's plans.
	CountDone(ctx context.Context, userID string) (int, error)
	// CountPlansWithDone counts distinct plans holding a DONE task.
	CountPlansWithDone(ctx context.Context, userID string) (int, error)
}
