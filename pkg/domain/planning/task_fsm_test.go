package planning_test

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

func TestTaskStateMachine(t *testing.T) {
	fsm, err := planning.NewTaskStateMachine(planning.StatePending, "t1")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if fsm.Current() != planning.StatePending {
		t.Errorf("Expected PENDING, got %s", fsm.Current())
	}

	if err := fsm.Transition(planning.EventSend); err != nil {
		t.Errorf("send failed: %v", err)
	}
	if fsm.Current() != planning.StateSent {
		t.Errorf("Expected SENT, got %s", fsm.Current())
	}

	if err := fsm.Transition(planning.EventSend); err == nil {
		t.Error("Expected error sending a SENT task")
	}

	if err := fsm.Transition(planning.EventComplete); err != nil {
		t.Errorf("complete failed: %v", err)
	}
	if fsm.CurrentStatus() != planning.StatusDone {
		t.Errorf("Expected DONE, got %s", fsm.CurrentStatus())
	}
}

func TestTaskStateMachine_AllowedTransitions(t *testing.T) {
	cases := []struct {
		from  string
		event string
		to    planning.TaskStatus
		ok    bool
	}{
		{planning.StatePending, planning.EventSend, planning.StatusSent, true},
		{planning.StatePending, planning.EventComplete, planning.StatusDone, true},
		{planning.StatePending, planning.EventSkip, planning.StatusSkipped, true},
		{planning.StatePending, planning.EventReschedule, planning.StatusRescheduled, true},
		{planning.StateSent, planning.EventComplete, planning.StatusDone, true},
		{planning.StateSent, planning.EventSkip, planning.StatusSkipped, true},
		{planning.StateSent, planning.EventReschedule, planning.StatusRescheduled, true},
		{planning.StateDone, planning.EventComplete, planning.StatusDone, false},
		{planning.StateSkipped, planning.EventComplete, planning.StatusSkipped, false},
		{planning.StateRescheduled, planning.EventSkip, planning.StatusRescheduled, false},
		{planning.StateDone, planning.EventReschedule, planning.StatusDone, false},
	}

	for _, tc := range cases {
		fsm, err := planning.NewTaskStateMachine(tc.from, "t")
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		err = fsm.Transition(tc.event)
		if tc.ok && err != nil {
			t.Errorf("%s --%s--> expected ok, got %v", tc.from, tc.event, err)
		}
		if !tc.ok && !errors.Is(err, planning.ErrInvalidStateTransition) {
			t.Errorf("%s --%s--> expected ErrInvalidStateTransition, got %v", tc.from, tc.event, err)
		}
		if fsm.CurrentStatus() != tc.to {
			t.Errorf("%s --%s--> expected %s, got %s", tc.from, tc.event, tc.to, fsm.CurrentStatus())
		}
	}
}

func TestTask_MarkDone(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for _, from := range []planning.TaskStatus{planning.StatusPending, planning.StatusSent} {
		task := planning.Task{ID: "t1", Status: from}
		if err := task.MarkDone(now, "finished"); err != nil {
			t.Fatalf("MarkDone from %s failed: %v", from, err)
		}
		if task.Status != planning.StatusDone {
			t.Errorf("expected DONE, got %s", task.Status)
		}
		if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
			t.Errorf("expected completed_at %v, got %v", now, task.CompletedAt)
		}
		if task.UserResponse != "finished" {
			t.Errorf("expected response to be stored, got %q", task.UserResponse)
		}
	}
}

func TestTask_MarkDone_InvalidLeavesTaskUnchanged(t *testing.T) {
	now := time.Now()
	for _, from := range []planning.TaskStatus{planning.StatusDone, planning.StatusSkipped, planning.StatusRescheduled} {
		task := planning.Task{ID: "t1", Status: from, UserResponse: "before"}
		err := task.MarkDone(now, "after")

		var transErr *planning.TransitionError
		if !errors.As(err, &transErr) {
			t.Fatalf("expected TransitionError from %s, got %v", from, err)
		}
		if transErr.FromStatus != string(from) {
			t.Errorf("expected FromStatus %s, got %s", from, transErr.FromStatus)
		}
		if task.Status != from || task.CompletedAt != nil || task.UserResponse != "before" {
			t.Errorf("task mutated on invalid transition: %+v", task)
		}
	}
}

func TestTask_MarkSentAndSkip(t *testing.T) {
	now := time.Now()
	task := planning.Task{ID: "t1", Status: planning.StatusPending}
	if err := task.MarkSent(now, "Here are today's tasks"); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if task.SentAt == nil || task.PersonalizedMessage == "" {
		t.Error("expected sent_at and message to be set")
	}
	if err := task.MarkSkipped(now, "SKIP"); err != nil {
		t.Fatalf("MarkSkipped failed: %v", err)
	}
	if task.Status != planning.StatusSkipped || task.SkippedAt == nil {
		t.Errorf("expected SKIPPED with skipped_at, got %+v", task)
	}
}

func TestTask_MarkRescheduled(t *testing.T) {
	to := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	task := planning.Task{ID: "t1", Status: planning.StatusSent}
	if err := task.MarkRescheduled(to, planning.RescheduledByUser); err != nil {
		t.Fatalf("MarkRescheduled failed: %v", err)
	}
	if task.RescheduledTo == nil || !task.RescheduledTo.Equal(to) {
		t.Errorf("expected rescheduled_to %v", to)
	}
	if task.RescheduledBy != planning.RescheduledByUser {
		t.Errorf("expected rescheduled_by user, got %q", task.RescheduledBy)
	}
}

func TestTaskStatus_ValidEvents(t *testing.T) {
	events := planning.StatusSent.ValidEvents()
	if len(events) != 3 {
		t.Fatalf("expected 3 events from SENT, got %v", events)
	}
	if !planning.StatusDone.IsFinal() {
		t.Error("DONE should be final")
	}
	if planning.StatusPending.IsFinal() {
		t.Error("PENDING should not be final")
	}
	if _, err := planning.ParseTaskStatus("in_progress"); err == nil {
		t.Error("expected error for unknown status")
	}
}
