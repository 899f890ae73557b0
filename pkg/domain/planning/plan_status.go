package planning

import "fmt"

// AllPlanStatuses returns all valid plan statuses.
func AllPlanStatuses() []PlanStatus {
	return []PlanStatus{
		PlanActive,
		PlanCompleted,
		PlanPaused,
		PlanReplaced,
	}
}

// IsValid returns true if the status is a valid plan status.
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanActive, PlanCompleted, PlanPaused, PlanReplaced:
		return true
	default:
		return false
	}
}

func (s PlanStatus) String() string {
	return string(s)
}

// IsFinal returns true if the plan can no longer change status.
func (s PlanStatus) IsFinal() bool {
	return s == PlanCompleted || s == PlanReplaced
}

// CanTransitionTo returns true if a transition to the target status is allowed.
func (s PlanStatus) CanTransitionTo(target PlanStatus) bool {
	switch s {
	case PlanActive:
		// Superseded, finished, or put on hold.
		return target == PlanReplaced || target == PlanCompleted || target == PlanPaused
	case PlanPaused:
		return target == PlanActive || target == PlanReplaced
	default:
		return false
	}
}

// ParsePlanStatus parses a string into a PlanStatus.
func ParsePlanStatus(s string) (PlanStatus, error) {
	status := PlanStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid plan status: %s", s)
	}
	return status, nil
}
