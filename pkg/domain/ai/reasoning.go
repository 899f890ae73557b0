package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
)

var (
	// ErrExternalService wraps any failure of a reasoning, formatting or
	// delivery collaborator.
	ErrExternalService = errors.New("external service error")

	// ErrMalformedResponse indicates a reply that could not be parsed or
	// failed validation.
	ErrMalformedResponse = errors.New("malformed external response")
)

// MalformedResponseError carries the validation problems of a reply.
type MalformedResponseError struct {
	Service string
	Issues  []string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s returned a malformed response: %v", e.Service, e.Issues)
}

// Is lets errors.Is match both the specific and the general failure.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse || target == ErrExternalService
}

// TaskDraft is one generated task as proposed by the reasoning service.
type TaskDraft struct {
	DayNumber        int              `json:"day_number"`
	SortOrder        int              `json:"sort_order"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	Difficulty       string           `json:"difficulty"`
	EstimatedMinutes int              `json:"estimated_minutes"`
	Resources        []resource.Draft `json:"resources,omitempty"`
}

// GeneratedPlan is the reasoning service's answer to a generation prompt.
type GeneratedPlan struct {
	Tasks []TaskDraft `json:"tasks"`
	Model string      `json:"-"`
}

// Reschedule moves a task to another plan day.
type Reschedule struct {
	TaskID       string `json:"task_id"`
	NewDayNumber int    `json:"new_day_number"`
}

// Adjustment is the reasoning service's answer to an adjustment prompt.
type Adjustment struct {
	RemoveTaskIDs []string     `json:"remove_task_ids"`
	Reschedule    []Reschedule `json:"reschedule"`
	NewTasks      []TaskDraft  `json:"new_tasks"`
	Reasoning     string       `json:"reasoning"`
	Model         string       `json:"-"`
}

// Reasoner produces structured plans and plan adjustments.
type Reasoner interface {
	GenerateTasks(ctx context.Context, prompt Prompt) (*GeneratedPlan, error)
	AdjustPlan(ctx context.Context, prompt Prompt) (*Adjustment, error)
}

// Formatter rewrites short user-facing messages.
type Formatter interface {
	FormatMessage(ctx context.Context, prompt Prompt) (string, error)
}
