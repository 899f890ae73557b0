package planning

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration.
// These must remain as untyped string constants for statekit.StateID compatibility.
const (
	StatePending     = "PENDING"
	StateSent        = "SENT"
	StateDone        = "DONE"
	StateSkipped     = "SKIPPED"
	StateRescheduled = "RESCHEDULED"
)

// init validates at startup that FSM state constants match TaskStatus values.
func init() {
	stateMap := map[string]TaskStatus{
		StatePending:     StatusPending,
		StateSent:        StatusSent,
		StateDone:        StatusDone,
		StateSkipped:     StatusSkipped,
		StateRescheduled: StatusRescheduled,
	}

	for fsmState, taskStatus := range stateMap {
		if fsmState != string(taskStatus) {
			panic(fmt.Sprintf("FSM state %q does not match TaskStatus %q - constants are out of sync", fsmState, taskStatus))
		}
	}
}

// TaskContext carries state data.
type TaskContext struct {
	TaskID string
}

// TaskStateMachine defines the valid transitions of a delivered task.
type TaskStateMachine struct {
	taskID      string
	interpreter *statekit.Interpreter[TaskContext]
}

func NewTaskStateMachine(initialState string, taskID string) (*TaskStateMachine, error) {
	builder := statekit.NewMachine[TaskContext]("task-machine").
		WithInitial(statekit.StateID(initialState)).
		WithContext(TaskContext{TaskID: taskID})

	builder.State(StatePending).
		On(EventSend).Target(StateSent).
		On(EventComplete).Target(StateDone).
		On(EventSkip).Target(StateSkipped).
		On(EventReschedule).Target(StateRescheduled).
		Done()

	builder.State(StateSent).
		On(EventComplete).Target(StateDone).
		On(EventSkip).Target(StateSkipped).
		On(EventReschedule).Target(StateRescheduled).
		Done()

	// Terminal states
	builder.State(StateDone).Done()
	builder.State(StateSkipped).Done()
	builder.State(StateRescheduled).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &TaskStateMachine{taskID: taskID, interpreter: interpreter}, nil
}

// Transition attempts to move the task to a new state. An event that does
// not change the state is reported as a *TransitionError.
func (sm *TaskStateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before != after {
		return nil
	}

	target, _ := TaskStatus(before).TransitionWith(event)
	return &TransitionError{
		TaskID:     sm.taskID,
		FromStatus: before,
		ToStatus:   string(target),
		Event:      event,
	}
}

func (sm *TaskStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// CurrentStatus returns the current state as a TaskStatus value object.
func (sm *TaskStateMachine) CurrentStatus() TaskStatus {
	return TaskStatus(sm.Current())
}

// apply runs event through the state machine and returns the new status.
// The task itself is untouched on error.
func (t *Task) apply(event string) (TaskStatus, error) {
	sm, err := NewTaskStateMachine(string(t.Status), t.ID)
	if err != nil {
		return t.Status, err
	}
	if err := sm.Transition(event); err != nil {
		return t.Status, err
	}
	return sm.CurrentStatus(), nil
}

// MarkSent records delivery of the task with the text that was sent.
func (t *Task) MarkSent(now time.Time, message string) error {
	next, err := t.apply(EventSend)
	if err != nil {
		return err
	}
	t.Status = next
	t.SentAt = &now
	t.PersonalizedMessage = message
	return nil
}

// MarkDone completes the task and stores the user's response.
func (t *Task) MarkDone(now time.Time, response string) error {
	next, err := t.apply(EventComplete)
	if err != nil {
		return err
	}
	t.Status = next
	t.CompletedAt = &now
	t.UserResponse = response
	return nil
}

// MarkSkipped skips the task and stores the user's response.
func (t *Task) MarkSkipped(now time.Time, response string) error {
	next, err := t.apply(EventSkip)
	if err != nil {
		return err
	}
	t.Status = next
	t.SkippedAt = &now
	t.UserResponse = response
	return nil
}

// MarkRescheduled moves the task to RESCHEDULED with the given target date.
func (t *Task) MarkRescheduled(to time.Time, by string) error {
	next, err := t.apply(EventReschedule)
	if err != nil {
		return err
	}
	t.Status = next
	t.RescheduledTo = &to
	t.RescheduledBy = by
	return nil
}
