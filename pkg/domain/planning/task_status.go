package planning

import (
	"encoding/json"
	"fmt"
	"sort"
)

type TaskStatus string

const (
	StatusPending     TaskStatus = "PENDING"
	StatusSent        TaskStatus = "SENT"
	StatusDone        TaskStatus = "DONE"
	StatusSkipped     TaskStatus = "SKIPPED"
	StatusRescheduled TaskStatus = "RESCHEDULED"
)

// Task lifecycle events.
const (
	EventSend       = "send"
	EventComplete   = "complete"
	EventSkip       = "skip"
	EventReschedule = "reschedule"
)

// validTransitions defines the allowed state transitions and their events.
// Map: currentStatus -> event -> targetStatus
var validTransitions = map[TaskStatus]map[string]TaskStatus{
	StatusPending: {
		EventSend:       StatusSent,
		EventComplete:   StatusDone,
		EventSkip:       StatusSkipped,
		EventReschedule: StatusRescheduled,
	},
	StatusSent: {
		EventComplete:   StatusDone,
		EventSkip:       StatusSkipped,
		EventReschedule: StatusRescheduled,
	},
}

// IsValid returns true if the status is a valid task status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDone, StatusSkipped, StatusRescheduled:
		return true
	default:
		return false
	}
}

func (s TaskStatus) String() string {
	return string(s)
}

// TransitionWith returns the target status for a given event, or an error if not allowed.
func (s TaskStatus) TransitionWith(event string) (TaskStatus, error) {
	target, ok := validTransitions[s][event]
	if !ok {
		return s, fmt.Errorf("event '%s' not allowed from status '%s'", event, s)
	}
	return target, nil
}

// ValidEvents returns the events that can be triggered from this status, sorted.
func (s TaskStatus) ValidEvents() []string {
	var events []string
	for event := range validTransitions[s] {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// IsFinal returns true for statuses with no outgoing transitions.
func (s TaskStatus) IsFinal() bool {
	return len(validTransitions[s]) == 0
}

// IsOutstanding returns true while the task still expects a reply.
func (s TaskStatus) IsOutstanding() bool {
	return s == StatusPending || s == StatusSent
}

// IsResolved returns true once the user has completed or skipped the task.
func (s TaskStatus) IsResolved() bool {
	return s == StatusDone || s == StatusSkipped
}

// DisplayName returns a human-readable display name for the status.
func (s TaskStatus) DisplayName() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusSent:
		return "Sent"
	case StatusDone:
		return "Done"
	case StatusSkipped:
		return "Skipped"
	case StatusRescheduled:
		return "Rescheduled"
	default:
		return string(s)
	}
}

// ParseTaskStatus parses a string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid task status: %s", s)
	}
	return status, nil
}

// MarshalJSON implements json.Marshaler interface.
func (s TaskStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface with validation.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseTaskStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
