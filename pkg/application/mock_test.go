package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/application"
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/felixgeelhaar/launchpath/pkg/prompt"
	"github.com/felixgeelhaar/launchpath/pkg/storage"
)

var errBoom = errors.New("boom")

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type MockReasoner struct {
	Plan     *ai.GeneratedPlan
	GenErr   error
	Adj      *ai.Adjustment
	AdjErr   error
	Prompts  []ai.Prompt
	AdjCalls int
}

func (m *MockReasoner) GenerateTasks(_ context.Context, p ai.Prompt) (*ai.GeneratedPlan, error) {
	m.Prompts = append(m.Prompts, p)
	if m.GenErr != nil {
		return nil, m.GenErr
	}
	if m.Plan == nil {
		return &ai.GeneratedPlan{}, nil
	}
	return m.Plan, nil
}

func (m *MockReasoner) AdjustPlan(_ context.Context, p ai.Prompt) (*ai.Adjustment, error) {
	m.Prompts = append(m.Prompts, p)
	m.AdjCalls++
	if m.AdjErr != nil {
		return nil, m.AdjErr
	}
	if m.Adj == nil {
		return &ai.Adjustment{}, nil
	}
	return m.Adj, nil
}

type MockFormatter struct {
	Text string
	Err  error
}

func (m *MockFormatter) FormatMessage(context.Context, ai.Prompt) (string, error) {
	return m.Text, m.Err
}

type sentSMS struct {
	To   delivery.Recipient
	Body string
}

type sentEmail struct {
	To      delivery.Recipient
	Subject string
	Text    string
}

type MockGateway struct {
	mu       sync.Mutex
	SMSErr   error
	EmailErr error
	SMS      []sentSMS
	Emails   []sentEmail
}

func (g *MockGateway) SendSMS(_ context.Context, to delivery.Recipient, body string) (*delivery.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SMSErr != nil {
		return nil, g.SMSErr
	}
	g.SMS = append(g.SMS, sentSMS{To: to, Body: body})
	return &delivery.Record{Channel: delivery.ChannelSMS, ProviderID: "SM-" + to.UserID, Status: delivery.StatusQueued, SentAt: time.Now()}, nil
}

func (g *MockGateway) SendEmail(_ context.Context, to delivery.Recipient, subject, _, text string) (*delivery.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.EmailErr != nil {
		return nil, g.EmailErr
	}
	g.Emails = append(g.Emails, sentEmail{To: to, Subject: subject, Text: text})
	return &delivery.Record{Channel: delivery.ChannelEmail, ProviderID: "EM-" + to.UserID, Status: delivery.StatusSent, SentAt: time.Now()}, nil
}

type MockAdjuster struct {
	Calls  []string
	Result *application.AdjustmentResult
	Err    error
}

func (m *MockAdjuster) Adjust(_ context.Context, planID, reason string) (*application.AdjustmentResult, error) {
	m.Calls = append(m.Calls, planID+"|"+reason)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &application.AdjustmentResult{PlanID: planID, Applied: true, Reason: reason}, nil
}

// env wires services over an in-memory store.
type env struct {
	store    *storage.Store
	clock    *testClock
	tz       *clock.Resolver
	audit    *application.AuditService
	reasoner *MockReasoner
	gateway  *MockGateway
	renderer prompt.Renderer
}

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()
	s, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return &env{
		store:    s,
		clock:    &testClock{now: now},
		tz:       clock.NewResolver(),
		audit:    application.NewAuditService(s),
		reasoner: &MockReasoner{},
		gateway:  &MockGateway{},
		renderer: prompt.MustTemplateRenderer(),
	}
}

func (e *env) orchestrator(cfg application.OrchestratorConfig) *application.Orchestrator {
	return application.NewOrchestrator(e.store, e.reasoner, e.renderer, nil, e.clock, e.tz, e.audit, cfg, nil)
}

func (e *env) achievements() *application.AchievementService {
	return application.NewAchievementService(e.store, e.clock, e.tz, e.audit, nil)
}

func (e *env) tasks(adjuster application.PlanAdjuster) *application.TaskService {
	return application.NewTaskService(e.store, e.achievements(), adjuster, planning.DefaultSkipPolicy(), e.clock, e.tz, e.audit, nil)
}

// addUser stores an onboarded UTC user with a business profile.
func (e *env) addUser(t *testing.T, id string, sendHour int) profile.User {
	t.Helper()
	ctx := context.Background()
	u := profile.User{
		ID:               id,
		Email:            id + "@example.com",
		Phone:            "+1555000" + id,
		FirstName:        "Sam",
		Timezone:         "UTC",
		PreferredChannel: profile.ChannelBoth,
		DailySendHour:    sendHour,
		Onboarded:        true,
	}
	if err := e.store.Profiles().SaveUser(ctx, &u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	bp := profile.BusinessProfile{
		ID:           "bp-" + id,
		UserID:       id,
		BusinessName: "Crumbs",
		BusinessType: "bakery",
	}
	if err := e.store.Profiles().SaveBusinessProfile(ctx, &bp); err != nil {
		t.Fatalf("SaveBusinessProfile: %v", err)
	}
	return u
}

// generateFallback creates a plan for userID starting on start from the
// fallback task list.
func (e *env) generateFallback(t *testing.T, userID string, start time.Time) *planning.Plan {
	t.Helper()
	saved := e.reasoner.GenErr
	e.reasoner.GenErr = errBoom
	defer func() { e.reasoner.GenErr = saved }()

	plan, err := e.orchestrator(application.OrchestratorConfig{}).Generate(context.Background(), application.GenerateRequest{
		UserID:       userID,
		DurationDays: 30,
		StartDate:    start,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return plan
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := clock.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func tasksOf(t *testing.T, e *env, planID string) []planning.Task {
	t.Helper()
	tasks, err := e.store.Plans().ListTasks(context.Background(), planID, planning.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	return tasks
}

func newTaskServiceWith(e *env, tracker application.CompletionRecorder, adjuster application.PlanAdjuster) *application.TaskService {
	return application.NewTaskService(e.store, tracker, adjuster, planning.DefaultSkipPolicy(), e.clock, e.tz, e.audit, nil)
}
