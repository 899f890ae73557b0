package application_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/launchpath/pkg/application"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
	"gopkg.in/yaml.v3"
)

const profilesYAML = `
- user:
    id: ana
    email: ana@example.com
    first_name: Ana
    timezone: Europe/Lisbon
    onboarded: true
  business:
    business_name: Ana's Candles
    business_type: candles
    plan_duration_days: 14
- user:
    id: ben
    phone: "+15550001"
    preferred_channel: SMS
    daily_send_hour: 0
    onboarded: false
`

func TestProfileService_Import(t *testing.T) {
	e := newEnv(t, march2)
	var records []application.ProfileRecord
	if err := yaml.Unmarshal([]byte(profilesYAML), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	svc := application.NewProfileService(e.store, nil)
	ctx := context.Background()

	n, err := svc.Import(ctx, records)
	if err != nil || n != 2 {
		t.Fatalf("Import = %d, %v", n, err)
	}

	ana, err := svc.GetUser(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if ana.DailySendHour != profile.DefaultSendHour || ana.PreferredChannel != profile.ChannelBoth {
		t.Errorf("expected defaults applied, got %+v", ana)
	}
	bp, err := svc.GetBusinessProfile(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if bp.ID == "" || bp.UserID != "ana" || bp.PlanDurationDays != 14 {
		t.Errorf("unexpected business profile: %+v", bp)
	}

	ben, _ := svc.GetUser(ctx, "ben")
	if ben.DailySendHour != 0 || ben.PreferredChannel != profile.ChannelSMS {
		t.Errorf("explicit midnight send hour should be kept, got %+v", ben)
	}

	onboarded, err := svc.ListOnboarded(ctx)
	if err != nil || len(onboarded) != 1 || onboarded[0].ID != "ana" {
		t.Errorf("expected only ana onboarded, got %+v (%v)", onboarded, err)
	}

	// Re-importing updates in place.
	records[0].User.FirstName = "Anabela"
	if _, err := svc.Import(ctx, records[:1]); err != nil {
		t.Fatal(err)
	}
	ana, _ = svc.GetUser(ctx, "ana")
	if ana.FirstName != "Anabela" {
		t.Errorf("expected updated name, got %q", ana.FirstName)
	}
}

func TestProfileService_ImportRequiresID(t *testing.T) {
	e := newEnv(t, march2)
	n, err := application.NewProfileService(e.store, nil).Import(context.Background(), []application.ProfileRecord{
		{User: profile.User{ID: "ok"}},
		{User: profile.User{Email: "nobody@example.com"}},
	})
	if err == nil || n != 1 {
		t.Errorf("expected failure on the second record, got %d, %v", n, err)
	}
}
