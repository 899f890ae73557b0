package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/google/uuid"
)

// Reply actions.
const (
	ReplyActionNone    = ""
	ReplyActionDone    = "DONE"
	ReplyActionSkip    = "SKIP"
	ReplyActionHelp    = "HELP"
	ReplyActionUnknown = "UNKNOWN"
)

const (
	replyNoPlan    = "You don't have an active plan. Visit our website to get started!"
	replyNoTasks   = "No pending tasks for today. Great job!"
	replyHelp      = "Reply DONE to complete your current task, SKIP to skip it, or DONE 2 / SKIP 2 for a specific task number."
	replyUnknown   = "I didn't understand that. Reply DONE, SKIP, or HELP."
	replyBadNumber = "Invalid task number. You have %d tasks today."
)

// Reply is the acknowledgement for an inbound message. Text is always
// set, even when HandleReply also returns an error.
type Reply struct {
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
	TaskID string `json:"task_id,omitempty"`
}

// InboundService interprets free-text replies such as "DONE 2" against
// the tasks due today.
type InboundService struct {
	uow    domain.UnitOfWork
	tasks  *TaskService
	clock  clock.Clock
	tz     *clock.Resolver
	logger *slog.Logger
}

func NewInboundService(uow domain.UnitOfWork, tasks *TaskService, clk clock.Clock, tz *clock.Resolver, logger *slog.Logger) *InboundService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if tz == nil {
		tz = clock.NewResolver()
	}
	return &InboundService{uow: uow, tasks: tasks, clock: clk, tz: tz, logger: logger}
}

func (s *InboundService) HandleReply(ctx context.Context, userID, text string) (Reply, error) {
	s.recordInbound(ctx, userID, text)

	plan, err := s.uow.Plans().ActivePlan(ctx, userID)
	if errors.Is(err, planning.ErrNoActivePlan) {
		return Reply{Text: replyNoPlan}, nil
	}
	if err != nil {
		return Reply{Text: replyUnknown}, err
	}

	today, err := localToday(ctx, s.uow.Profiles(), s.tz, s.clock.Now(), userID)
	if err != nil {
		return Reply{Text: replyUnknown}, err
	}
	open, err := s.uow.Plans().ListTasks(ctx, plan.ID, planning.TaskFilter{
		DueDate:  &today,
		Statuses: []planning.TaskStatus{planning.StatusSent, planning.StatusPending},
	})
	if err != nil {
		return Reply{Text: replyUnknown}, err
	}
	if len(open) == 0 {
		return Reply{Text: replyNoTasks}, nil
	}

	cmd := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(cmd, ReplyActionDone):
		task, bad := pickTask(cmd, open)
		if bad != "" {
			return Reply{Text: bad, Action: ReplyActionDone}, nil
		}
		if _, err := s.tasks.MarkDone(ctx, task.ID, text); err != nil {
			return Reply{Text: replyUnknown, Action: ReplyActionDone, TaskID: task.ID}, err
		}
		reply := Reply{Action: ReplyActionDone, TaskID: task.ID}
		if remaining := len(open) - 1; remaining > 0 {
			reply.Text = fmt.Sprintf("'%s' done! %d task(s) remaining today.", task.Title, remaining)
		} else {
			reply.Text = fmt.Sprintf("'%s' done! All tasks complete for today!", task.Title)
		}
		return reply, nil

	case strings.HasPrefix(cmd, ReplyActionSkip):
		task, bad := pickTask(cmd, open)
		if bad != "" {
			return Reply{Text: bad, Action: ReplyActionSkip}, nil
		}
		if _, err := s.tasks.MarkSkip(ctx, task.ID, text); err != nil {
			return Reply{Text: replyUnknown, Action: ReplyActionSkip, TaskID: task.ID}, err
		}
		return Reply{
			Text:   fmt.Sprintf("'%s' skipped. We'll adjust your plan accordingly.", task.Title),
			Action: ReplyActionSkip,
			TaskID: task.ID,
		}, nil

	case cmd == ReplyActionHelp:
		return Reply{Text: replyHelp, Action: ReplyActionHelp}, nil

	default:
		return Reply{Text: replyUnknown, Action: ReplyActionUnknown}, nil
	}
}

// pickTask resolves an optional 1-based task number after the command.
// A non-numeric or missing argument picks the first task.
func pickTask(cmd string, open []planning.Task) (*planning.Task, string) {
	parts := strings.Fields(cmd)
	if len(parts) > 1 && isDigits(parts[1]) {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || n > len(open) {
			return nil, fmt.Sprintf(replyBadNumber, len(open))
		}
		return &open[n-1], ""
	}
	return &open[0], ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *InboundService) recordInbound(ctx context.Context, userID, text string) {
	now := time.Now().UTC()
	msg := &delivery.MessageLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Channel:   delivery.ChannelSMS,
		Direction: delivery.Inbound,
		Status:    delivery.StatusReceived,
		Body:      text,
		CreatedAt: now,
	}
	if err := s.uow.Messages().SaveMessage(ctx, msg); err != nil {
		s.logger.Warn("could not record inbound message", "user_id", userID, "error", err)
	}
}
