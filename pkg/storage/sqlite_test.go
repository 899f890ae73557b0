package storage_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain"
	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
	"github.com/felixgeelhaar/launchpath/pkg/storage"
)

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := clock.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func seedPlan(t *testing.T, s *storage.Store, userID string, start time.Time) *planning.Plan {
	t.Helper()
	p := planning.NewPlan(userID, "profile-1", 30, start)
	if err := s.Plans().CreatePlan(context.Background(), p); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	return p
}

func TestPlanRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedPlan(t, s, "u1", mustDate(t, "2026-03-01"))

	got, err := s.Plans().GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Title != "30-Day Launch Plan" || got.Status != planning.PlanActive || got.Phase != 1 {
		t.Errorf("unexpected plan: %+v", got)
	}
	if !got.StartDate.Equal(p.StartDate) || !got.EndDate.Equal(p.EndDate) {
		t.Errorf("dates = %v..%v, want %v..%v", got.StartDate, got.EndDate, p.StartDate, p.EndDate)
	}

	active, err := s.Plans().ActivePlan(ctx, "u1")
	if err != nil {
		t.Fatalf("ActivePlan: %v", err)
	}
	if active.ID != p.ID {
		t.Errorf("ActivePlan = %s, want %s", active.ID, p.ID)
	}
}

func TestPlanNotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.Plans().GetPlan(ctx, "missing"); !errors.Is(err, planning.ErrPlanNotFound) {
		t.Errorf("GetPlan err = %v, want ErrPlanNotFound", err)
	}
	if _, err := s.Plans().ActivePlan(ctx, "nobody"); !errors.Is(err, planning.ErrNoActivePlan) {
		t.Errorf("ActivePlan err = %v, want ErrNoActivePlan", err)
	}
	if _, err := s.Plans().GetTask(ctx, "missing"); !errors.Is(err, planning.ErrTaskNotFound) {
		t.Errorf("GetTask err = %v, want ErrTaskNotFound", err)
	}
}

func TestOnlyOneActivePlanPerUser(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedPlan(t, s, "u1", mustDate(t, "2026-03-01"))

	second := planning.NewPlan("u1", "profile-1", 30, mustDate(t, "2026-03-02"))
	if err := s.Plans().CreatePlan(ctx, second); err == nil {
		t.Fatal("expected second ACTIVE plan to be rejected")
	}

	other := planning.NewPlan("u2", "profile-2", 30, mustDate(t, "2026-03-02"))
	if err := s.Plans().CreatePlan(ctx, other); err != nil {
		t.Fatalf("plan for another user: %v", err)
	}
}

func TestListTasksOrderingAndFilter(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedPlan(t, s, "u1", mustDate(t, "2026-03-01"))

	specs := []planning.TaskSpec{
		{Title: "day2-b", DayNumber: 2, SortOrder: 1},
		{Title: "day1-a", DayNumber: 1, SortOrder: 0},
		{Title: "day2-a", DayNumber: 2, SortOrder: 0},
	}
	for _, spec := range specs {
		if err := s.Plans().CreateTask(ctx, p.NewTask(spec)); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	tasks, err := s.Plans().ListTasks(ctx, p.ID, planning.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	want := []string{"day1-a", "day2-a", "day2-b"}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i, title := range want {
		if tasks[i].Title != title {
			t.Errorf("tasks[%d] = %s, want %s", i, tasks[i].Title, title)
		}
	}

	due := mustDate(t, "2026-03-02")
	day2, err := s.Plans().ListTasks(ctx, p.ID, planning.TaskFilter{
		DueDate:  &due,
		Statuses: []planning.TaskStatus{planning.StatusPending},
	})
	if err != nil {
		t.Fatalf("ListTasks filtered: %v", err)
	}
	if len(day2) != 2 {
		t.Errorf("got %d day-2 tasks, want 2", len(day2))
	}
}

func TestUpdateTaskPersistsLifecycleFields(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedPlan(t, s, "u1", mustDate(t, "2026-03-01"))
	task := p.NewTask(planning.TaskSpec{Title: "Pick a name", DayNumber: 1})
	if err := s.Plans().CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	if err := task.MarkSent(now, "hello"); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := task.MarkDone(now.Add(time.Hour), "done!"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := s.Plans().UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, err := s.Plans().GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != planning.StatusDone {
		t.Errorf("status = %s, want DONE", got.Status)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("completed_at = %v", got.CompletedAt)
	}
	if got.SentAt == nil || got.PersonalizedMessage != "hello" || got.UserResponse != "done!" {
		t.Errorf("unexpected task: %+v", got)
	}

	n, err := s.Plans().CountDone(ctx, "u1")
	if err != nil || n != 1 {
		t.Errorf("CountDone = %d, %v; want 1", n, err)
	}
}

func TestAtomicallyRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Atomically(ctx, func(repos domain.Repositories) error {
		p := planning.NewPlan("u1", "profile-1", 30, mustDate(t, "2026-03-01"))
		if err := repos.Plans().CreatePlan(ctx, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomically err = %v, want boom", err)
	}
	if _, err := s.Plans().ActivePlan(ctx, "u1"); !errors.Is(err, planning.ErrNoActivePlan) {
		t.Errorf("plan survived rollback: %v", err)
	}
}

func TestAtomicallyNestedJoinsOuter(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.Atomically(ctx, func(outer domain.Repositories) error {
		uow := outer.(domain.UnitOfWork)
		return uow.Atomically(ctx, func(inner domain.Repositories) error {
			p := planning.NewPlan("u1", "profile-1", 30, mustDate(t, "2026-03-01"))
			return inner.Plans().CreatePlan(ctx, p)
		})
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
	if _, err := s.Plans().ActivePlan(ctx, "u1"); err != nil {
		t.Errorf("ActivePlan after nested commit: %v", err)
	}
}

func TestStreakRecords(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	repo := s.Achievements()

	d1 := mustDate(t, "2026-03-01")
	d2 := mustDate(t, "2026-03-02")
	for _, d := range []time.Time{d1, d2, d2} {
		if _, err := repo.IncrementStreak(ctx, "u1", d); err != nil {
			t.Fatalf("IncrementStreak: %v", err)
		}
	}

	records, err := repo.ListStreaks(ctx, "u1", d1, d2)
	if err != nil {
		t.Fatalf("ListStreaks: %v", err)
	}
	if len(records) != 2 || records[1].TasksCompleted != 2 {
		t.Fatalf("unexpected records: %+v", records)
	}

	latest, err := repo.LatestStreakBefore(ctx, "u1", d2)
	if err != nil {
		t.Fatalf("LatestStreakBefore: %v", err)
	}
	if !latest.Equal(d1) {
		t.Errorf("LatestStreakBefore = %v, want %v", latest, d1)
	}

	none, err := repo.LatestStreakBefore(ctx, "u1", d1)
	if err != nil || !none.IsZero() {
		t.Errorf("LatestStreakBefore(first) = %v, %v; want zero", none, err)
	}
}

func TestAddAchievementIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	repo := s.Achievements()

	a := &achievement.Achievement{
		ID: "a1", UserID: "u1", Badge: achievement.BadgeFirstTask,
		Title: "First Step", EarnedAt: time.Now().UTC(),
	}
	added, err := repo.AddAchievement(ctx, a)
	if err != nil || !added {
		t.Fatalf("first AddAchievement = %v, %v", added, err)
	}

	dup := *a
	dup.ID = "a2"
	added, err = repo.AddAchievement(ctx, &dup)
	if err != nil || added {
		t.Fatalf("duplicate AddAchievement = %v, %v; want false, nil", added, err)
	}

	has, err := repo.HasAchievement(ctx, "u1", achievement.BadgeFirstTask, "")
	if err != nil || !has {
		t.Errorf("HasAchievement = %v, %v", has, err)
	}
	list, err := repo.ListAchievements(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Errorf("ListAchievements = %d, %v; want 1", len(list), err)
	}
}

func TestOnboardedUsersPagesAll(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	const total = 230
	for i := 0; i < total; i++ {
		u := &profile.User{
			ID:        fmt.Sprintf("user-%03d", i),
			Timezone:  clock.DefaultTimezone,
			Onboarded: i%10 != 0,
		}
		u.ApplyDefaults()
		if err := s.Profiles().SaveUser(ctx, u); err != nil {
			t.Fatalf("SaveUser: %v", err)
		}
	}

	seen := 0
	for u, err := range s.Profiles().OnboardedUsers(ctx) {
		if err != nil {
			t.Fatalf("OnboardedUsers: %v", err)
		}
		if !u.Onboarded {
			t.Errorf("yielded non-onboarded user %s", u.ID)
		}
		// Writes while iterating must not block on the open page.
		if err := s.Profiles().SaveUser(ctx, &u); err != nil {
			t.Fatalf("SaveUser during iteration: %v", err)
		}
		seen++
	}
	if seen != 207 {
		t.Errorf("saw %d users, want 207", seen)
	}
}

func TestBusinessProfileRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	bp := &profile.BusinessProfile{
		ID: "bp1", UserID: "u1", BusinessType: "bakery",
		Goals: []string{"open a stall"},
	}
	if err := s.Profiles().SaveBusinessProfile(ctx, bp); err != nil {
		t.Fatalf("SaveBusinessProfile: %v", err)
	}
	got, err := s.Profiles().GetBusinessProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetBusinessProfile: %v", err)
	}
	if got.BusinessType != "bakery" || len(got.Goals) != 1 {
		t.Errorf("unexpected profile: %+v", got)
	}

	if _, err := s.Profiles().GetBusinessProfile(ctx, "u2"); !errors.Is(err, profile.ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
	if _, err := s.Profiles().GetUser(ctx, "u2"); !errors.Is(err, profile.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestResourceTemplates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	lib := s.Resources()

	tmpl := &resource.Template{
		ID: "t1", Type: resource.TypeGuide, Title: "Naming guide",
		Category: planning.CategoryOperations, BusinessType: "bakery",
		Status: resource.StatusReviewed, CreatedAt: time.Now().UTC(),
	}
	if err := lib.CreateTemplate(ctx, tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	found, err := lib.FindTemplates(ctx, resource.Query{
		Type: resource.TypeGuide, Category: planning.CategoryOperations, Status: resource.StatusReviewed,
	})
	if err != nil || len(found) != 1 {
		t.Fatalf("FindTemplates = %d, %v", len(found), err)
	}

	wrongType, err := lib.FindTemplates(ctx, resource.Query{
		Type: resource.TypeGuide, Category: planning.CategoryOperations,
		BusinessType: "florist", Status: resource.StatusReviewed,
	})
	if err != nil || len(wrongType) != 0 {
		t.Errorf("FindTemplates(florist) = %d, %v; want 0", len(wrongType), err)
	}

	if err := lib.IncrementUsage(ctx, "t1"); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	found, _ = lib.FindTemplates(ctx, resource.Query{
		Type: resource.TypeGuide, Category: planning.CategoryOperations, Status: resource.StatusReviewed,
	})
	if found[0].TimesUsed != 1 {
		t.Errorf("TimesUsed = %d, want 1", found[0].TimesUsed)
	}
}

func TestMessageStatusCallback(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	repo := s.Messages()

	m := &delivery.MessageLog{
		ID: "m1", UserID: "u1", Channel: delivery.ChannelSMS, Direction: delivery.Outbound,
		Status: delivery.StatusSent, Body: "hi", ProviderID: "SM123",
		TaskIDs: []string{"t1", "t2"}, CreatedAt: time.Now().UTC(),
	}
	if err := repo.SaveMessage(ctx, m); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}

	err := repo.UpdateStatus(ctx, delivery.StatusUpdate{ProviderID: "SM123", Status: delivery.StatusDelivered})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	err = repo.UpdateStatus(ctx, delivery.StatusUpdate{ProviderID: "nope", Status: delivery.StatusFailed})
	if !errors.Is(err, delivery.ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}

	logs, err := repo.ListMessages(ctx, "u1", 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("ListMessages = %d, %v", len(logs), err)
	}
	if logs[0].Status != delivery.StatusDelivered || len(logs[0].TaskIDs) != 2 {
		t.Errorf("unexpected log: %+v", logs[0])
	}
}

func TestAuditEventsPreserveHash(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	repo := s.Audit()

	last, err := repo.LastEvent(ctx)
	if err != nil || last != nil {
		t.Fatalf("LastEvent on empty log = %v, %v", last, err)
	}

	e := domain.Event{
		ID:        "e1",
		Timestamp: time.Date(2026, 3, 1, 8, 0, 0, 123000, time.UTC),
		Action:    domain.ActionTaskDone,
		Actor:     domain.ActorUser,
		Metadata:  map[string]interface{}{"task_id": "t1", "count": 3},
	}
	e.Hash = e.CalculateHash()
	if err := repo.RecordEvent(ctx, e); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	events, err := repo.LoadEvents(ctx)
	if err != nil || len(events) != 1 {
		t.Fatalf("LoadEvents = %d, %v", len(events), err)
	}
	if got := events[0].CalculateHash(); got != e.Hash {
		t.Errorf("reloaded hash = %s, want %s", got, e.Hash)
	}
}
