package planning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanActive    PlanStatus = "ACTIVE"
	PlanCompleted PlanStatus = "COMPLETED"
	PlanPaused    PlanStatus = "PAUSED"
	PlanReplaced  PlanStatus = "REPLACED"
)

type Category string

const (
	CategoryLegal      Category = "LEGAL"
	CategoryFinance    Category = "FINANCE"
	CategoryMarketing  Category = "MARKETING"
	CategoryProduct    Category = "PRODUCT"
	CategorySales      Category = "SALES"
	CategoryOperations Category = "OPERATIONS"
	CategoryDigital    Category = "DIGITAL"
	CategoryPlanning   Category = "PLANNING"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Reschedule origins recorded alongside a RESCHEDULED status.
const (
	RescheduledByUser       = "user"
	RescheduledByAdjustment = "adjustment"
)

// Plan is a bounded-duration sequence of tasks for one user's business.
type Plan struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	ProfileID      string            `json:"profile_id"`
	Title          string            `json:"title"`
	Status         PlanStatus        `json:"status"`
	Phase          int               `json:"phase"`
	PreviousPlanID string            `json:"previous_plan_id,omitempty"`
	DurationDays   int               `json:"duration_days"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	// Tasks is populated only when the plan is loaded together with its tasks.
	Tasks []Task `json:"tasks,omitempty"`
}

// Task is a single dated unit of work within a plan.
type Task struct {
	ID                  string     `json:"id"`
	PlanID              string     `json:"plan_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Category            Category   `json:"category"`
	Difficulty          Difficulty `json:"difficulty"`
	EstimatedMinutes    int        `json:"estimated_minutes"`
	DayNumber           int        `json:"day_number"`
	DueDate             time.Time  `json:"due_date"`
	SortOrder           int        `json:"sort_order"`
	Status              TaskStatus `json:"status"`
	SentAt              *time.Time `json:"sent_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	SkippedAt           *time.Time `json:"skipped_at,omitempty"`
	UserResponse        string     `json:"user_response,omitempty"`
	RescheduledTo       *time.Time `json:"rescheduled_to,omitempty"`
	RescheduledBy       string     `json:"rescheduled_by,omitempty"`
	PersonalizedMessage string     `json:"personalized_message,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// NewPlan creates a phase-1 ACTIVE plan starting on start.
func NewPlan(userID, profileID string, durationDays int, start time.Time) *Plan {
	start = clock.DateOf(start)
	now := time.Now().UTC()
	return &Plan{
		ID:           uuid.New().String(),
		UserID:       userID,
		ProfileID:    profileID,
		Title:        fmt.Sprintf("%d-Day Launch Plan", durationDays),
		Status:       PlanActive,
		Phase:        1,
		DurationDays: durationDays,
		StartDate:    start,
		EndDate:      clock.AddDays(start, durationDays),
		Metadata:     map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NextPhase creates the continuation of p: the next phase number with a
// back-reference to p.
func (p *Plan) NextPhase(durationDays int, start time.Time) *Plan {
	next := NewPlan(p.UserID, p.ProfileID, durationDays, start)
	next.Phase = p.Phase + 1
	next.PreviousPlanID = p.ID
	next.Title = fmt.Sprintf("Phase %d: %d-Day Growth Plan", next.Phase, durationDays)
	return next
}

// DueDateFor returns the due date of the given 1-based day of the plan.
func (p *Plan) DueDateFor(dayNumber int) time.Time {
	return clock.AddDays(p.StartDate, dayNumber-1)
}

// DayNumberFor is the inverse of DueDateFor.
func (p *Plan) DayNumberFor(date time.Time) int {
	return clock.DaysBetween(p.StartDate, date) + 1
}

// DaysRemaining returns the number of calendar days until the plan ends.
func (p *Plan) DaysRemaining(today time.Time) int {
	return clock.DaysBetween(today, p.EndDate)
}

// TransitionTo moves the plan to target if the status lifecycle allows it.
func (p *Plan) TransitionTo(target PlanStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: plan %s from %s to %s", ErrInvalidPlanTransition, p.ID, p.Status, target)
	}
	p.Status = target
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// CompletionPct is round(100 × done / total) over the loaded tasks.
func (p *Plan) CompletionPct() int {
	return CompletionPct(p.Tasks)
}

// CompletionPct is round(100 × done / total), 0 when there are no tasks.
func CompletionPct(tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := CountByStatus(tasks, StatusDone)
	return int(math.Round(100 * float64(done) / float64(len(tasks))))
}

// CountByStatus counts tasks with the given status.
func CountByStatus(tasks []Task, status TaskStatus) int {
	n := 0
	for _, t := range tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Fingerprint returns a deterministic hash of the plan's task layout.
// Two plans with the same tasks in the same slots share a fingerprint.
func (p *Plan) Fingerprint() string {
	tasks := append([]Task(nil), p.Tasks...)
	SortBySchedule(tasks)

	h := sha256.New()
	h.Write([]byte(p.ID))
	for _, t := range tasks {
		h.Write([]byte(t.ID))
		h.Write([]byte(t.Title))
		h.Write([]byte(string(t.Status)))
		h.Write([]byte(clock.FormatDate(t.DueDate)))
		h.Write([]byte(strconv.Itoa(t.SortOrder)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SortBySchedule orders tasks by due date, then sort order.
func SortBySchedule(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return tasks[i].SortOrder < tasks[j].SortOrder
	})
}

// TaskSpec carries the content fields of a task before it is scheduled.
type TaskSpec struct {
	Title            string
	Description      string
	Category         Category
	Difficulty       Difficulty
	EstimatedMinutes int
	DayNumber        int
	SortOrder        int
}

// NewTask creates a PENDING task in plan p, due on the spec's day.
func (p *Plan) NewTask(spec TaskSpec) *Task {
	day := spec.DayNumber
	if day < 1 {
		day = 1
	}
	return &Task{
		ID:               uuid.New().String(),
		PlanID:           p.ID,
		Title:            spec.Title,
		Description:      spec.Description,
		Category:         NormalizeCategory(string(spec.Category)),
		Difficulty:       NormalizeDifficulty(string(spec.Difficulty)),
		EstimatedMinutes: normalizeMinutes(spec.EstimatedMinutes),
		DayNumber:        day,
		DueDate:          p.DueDateFor(day),
		SortOrder:        spec.SortOrder,
		Status:           StatusPending,
		CreatedAt:        time.Now().UTC(),
	}
}

// CloneForDate copies the content fields of t onto a fresh PENDING task
// due on date. The day number is recomputed against the plan start.
func (t *Task) CloneForDate(p *Plan, date time.Time) *Task {
	return &Task{
		ID:               uuid.New().String(),
		PlanID:           t.PlanID,
		Title:            t.Title,
		Description:      t.Description,
		Category:         t.Category,
		Difficulty:       t.Difficulty,
		EstimatedMinutes: t.EstimatedMinutes,
		DayNumber:        p.DayNumberFor(date),
		DueDate:          clock.DateOf(date),
		SortOrder:        t.SortOrder,
		Status:           StatusPending,
		CreatedAt:        time.Now().UTC(),
	}
}

// NormalizeCategory maps free-form input onto a known category,
// defaulting to PLANNING.
func NormalizeCategory(s string) Category {
	c := Category(upper(s))
	switch c {
	case CategoryLegal, CategoryFinance, CategoryMarketing, CategoryProduct,
		CategorySales, CategoryOperations, CategoryDigital, CategoryPlanning:
		return c
	default:
		return CategoryPlanning
	}
}

// NormalizeDifficulty maps free-form input onto a known difficulty,
// defaulting to MEDIUM.
func NormalizeDifficulty(s string) Difficulty {
	d := Difficulty(upper(s))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d
	default:
		return DifficultyMedium
	}
}

// AllCategories lists the task categories in display order.
func AllCategories() []Category {
	return []Category{
		CategoryLegal, CategoryFinance, CategoryMarketing, CategoryProduct,
		CategorySales, CategoryOperations, CategoryDigital, CategoryPlanning,
	}
}

func normalizeMinutes(m int) int {
	if m <= 0 {
		return 30
	}
	return m
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
