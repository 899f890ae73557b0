package application_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/launchpath/pkg/application"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

func (e *env) inbound() *application.InboundService {
	return application.NewInboundService(e.store, e.tasks(&MockAdjuster{}), e.clock, e.tz, nil)
}

func TestInboundService_HandleReply(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		action string
		status planning.TaskStatus
		index  int
	}{
		{"done first", "done", "'Define your business mission statement' done! 1 task(s) remaining today.", application.ReplyActionDone, planning.StatusDone, 0},
		{"done numbered", " DONE 2 ", "'Research your competitors' done! 1 task(s) remaining today.", application.ReplyActionDone, planning.StatusDone, 1},
		{"skip", "Skip", "'Define your business mission statement' skipped. We'll adjust your plan accordingly.", application.ReplyActionSkip, planning.StatusSkipped, 0},
		{"bad number", "DONE 5", "Invalid task number. You have 2 tasks today.", application.ReplyActionDone, planning.StatusPending, 0},
		{"zero", "SKIP 0", "Invalid task number. You have 2 tasks today.", application.ReplyActionSkip, planning.StatusPending, 0},
		{"help", "help", "Reply DONE to complete your current task, SKIP to skip it, or DONE 2 / SKIP 2 for a specific task number.", application.ReplyActionHelp, planning.StatusPending, 0},
		{"unknown", "what?", "I didn't understand that. Reply DONE, SKIP, or HELP.", application.ReplyActionUnknown, planning.StatusPending, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, march2)
			e.addUser(t, "u1", 9)
			plan := e.generateFallback(t, "u1", date(t, "2026-03-02"))

			reply, err := e.inbound().HandleReply(context.Background(), "u1", tt.text)
			if err != nil {
				t.Fatalf("HandleReply: %v", err)
			}
			if reply.Text != tt.want {
				t.Errorf("text = %q, want %q", reply.Text, tt.want)
			}
			if reply.Action != tt.action {
				t.Errorf("action = %q, want %q", reply.Action, tt.action)
			}
			task := tasksOf(t, e, plan.ID)[tt.index]
			if task.Status != tt.status {
				t.Errorf("task %d status = %s, want %s", tt.index, task.Status, tt.status)
			}
		})
	}
}

func TestInboundService_ThreeTasksToday(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	plan := e.generateFallback(t, "u1", date(t, "2026-03-02"))
	ctx := context.Background()

	third := tasksOf(t, e, plan.ID)[2]
	third.DayNumber = 1
	third.DueDate = date(t, "2026-03-02")
	third.SortOrder = 2
	if err := e.store.Plans().UpdateTask(ctx, &third); err != nil {
		t.Fatal(err)
	}
	today := tasksOf(t, e, plan.ID)[:3]
	svc := e.inbound()

	reply, err := svc.HandleReply(ctx, "u1", "FOO")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Action != application.ReplyActionUnknown {
		t.Errorf("action = %q, want %q", reply.Action, application.ReplyActionUnknown)
	}
	for _, task := range tasksOf(t, e, plan.ID)[:3] {
		if task.Status != planning.StatusPending {
			t.Errorf("unrecognised reply changed %q to %s", task.Title, task.Status)
		}
	}

	reply, err = svc.HandleReply(ctx, "u1", "DONE 2")
	if err != nil {
		t.Fatal(err)
	}
	want := "'" + today[1].Title + "' done! 2 task(s) remaining today."
	if reply.Text != want || reply.TaskID != today[1].ID {
		t.Errorf("reply = %+v, want %q for %s", reply, want, today[1].ID)
	}
	for i, task := range tasksOf(t, e, plan.ID)[:3] {
		want := planning.StatusPending
		if i == 1 {
			want = planning.StatusDone
		}
		if task.Status != want {
			t.Errorf("task %d status = %s, want %s", i, task.Status, want)
		}
	}
}

func TestInboundService_LastTaskOfDay(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)
	e.generateFallback(t, "u1", date(t, "2026-03-02"))
	svc := e.inbound()
	ctx := context.Background()

	if _, err := svc.HandleReply(ctx, "u1", "DONE"); err != nil {
		t.Fatal(err)
	}
	reply, err := svc.HandleReply(ctx, "u1", "DONE")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "'Research your competitors' done! All tasks complete for today!" {
		t.Errorf("unexpected reply %q", reply.Text)
	}

	reply, _ = svc.HandleReply(ctx, "u1", "DONE")
	if reply.Text != "No pending tasks for today. Great job!" {
		t.Errorf("unexpected reply %q", reply.Text)
	}

	logs, _ := e.store.Messages().ListMessages(ctx, "u1", 10)
	if len(logs) != 3 {
		t.Fatalf("expected 3 inbound logs, got %d", len(logs))
	}
	for _, m := range logs {
		if m.Direction != delivery.Inbound || m.Status != delivery.StatusReceived {
			t.Errorf("unexpected log %+v", m)
		}
	}
}

func TestInboundService_NoPlan(t *testing.T) {
	e := newEnv(t, march2)
	e.addUser(t, "u1", 9)

	reply, err := e.inbound().HandleReply(context.Background(), "u1", "DONE")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "You don't have an active plan. Visit our website to get started!" {
		t.Errorf("unexpected reply %q", reply.Text)
	}
}
