package planning

import "errors"

// Domain errors for plans and tasks.
var (
	// ErrInvalidStateTransition indicates the requested task transition is not allowed.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrInvalidPlanTransition indicates the requested plan status change is not allowed.
	ErrInvalidPlanTransition = errors.New("invalid plan status transition")

	// ErrPlanNotFound indicates the plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrNoActivePlan indicates the user has no ACTIVE plan.
	ErrNoActivePlan = errors.New("no active plan")

	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrPlanNotResolved indicates a plan still has outstanding tasks.
	ErrPlanNotResolved = errors.New("plan has outstanding tasks")
)

// TransitionError provides details about an invalid transition.
type TransitionError struct {
	TaskID     string
	FromStatus string
	ToStatus   string
	Event      string
}

func (e *TransitionError) Error() string {
	return "cannot " + e.Event + " task " + e.TaskID + ": task is " + e.FromStatus
}

// Is allows errors.Is to work with TransitionError.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
