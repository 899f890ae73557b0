package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var transErr *planning.TransitionError
	if errors.As(err, &transErr) {
		return NewCLIError(
			transErr.Error(),
			fmt.Sprintf("Task '%s' is '%s'; only PENDING or SENT tasks can change", transErr.TaskID, transErr.FromStatus),
			err,
		)
	}

	switch {
	case errors.Is(err, planning.ErrNoActivePlan):
		return NewCLIError("no active plan", "Run 'launchpath plan generate <user>' to create one", err)
	case errors.Is(err, planning.ErrPlanNotFound):
		return NewCLIError("plan not found", "Run 'launchpath plan show <user>' to find the plan id", err)
	case errors.Is(err, planning.ErrTaskNotFound):
		return NewCLIError("task not found", "Run 'launchpath plan show <user>' to list task ids", err)
	case errors.Is(err, planning.ErrPlanNotResolved):
		return NewCLIError("plan still has open tasks", "Mark the remaining tasks done or skipped first", err)
	case errors.Is(err, planning.ErrInvalidPlanTransition):
		return NewCLIError("plan status cannot change", "Check the plan status with 'launchpath plan show <user>'", err)
	case errors.Is(err, profile.ErrUserNotFound):
		return NewCLIError("user not found", "Run 'launchpath profile import <file>' first", err)
	case errors.Is(err, profile.ErrProfileNotFound):
		return NewCLIError("business profile not found", "Add a business section to the user's profile and re-import it", err)
	case errors.Is(err, delivery.ErrMessageNotFound):
		return NewCLIError("message not found", "Run 'launchpath delivery history <user>' to list provider ids", err)
	}

	return err
}
