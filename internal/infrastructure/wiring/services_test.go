package wiring

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/config"
	infradelivery "github.com/felixgeelhaar/launchpath/internal/infrastructure/delivery"
	"github.com/felixgeelhaar/launchpath/pkg/application"
	domainai "github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/profile"
)

type stubProvider struct{ id string }

func (p stubProvider) ID() string { return p.id }
func (stubProvider) Complete(_ context.Context, _ domainai.CompletionRequest) (*domainai.CompletionResponse, error) {
	return &domainai.CompletionResponse{Text: "not json", Model: "stub"}, nil
}

func stubResolver(*config.Config) (domainai.Provider, domainai.Provider, error) {
	return stubProvider{"stub:reasoning"}, stubProvider{"stub:formatting"}, nil
}

func TestBuildAppServicesWithCustomResolver(t *testing.T) {
	services, err := BuildAppServicesWithProviders(t.TempDir(), nil, stubResolver)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer services.Close()

	if services.Reasoning.ID() != "stub:reasoning" || services.Formatting.ID() != "stub:formatting" {
		t.Fatalf("unexpected providers %s / %s", services.Reasoning.ID(), services.Formatting.ID())
	}

	ctx := context.Background()
	_, err = services.Profiles.Import(ctx, []application.ProfileRecord{{
		User:     profile.User{ID: "u1", Email: "u1@example.com", Onboarded: true},
		Business: &profile.BusinessProfile{BusinessName: "Crumbs", BusinessType: "bakery"},
	}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	// The stub answers with prose, so generation falls back to the
	// built-in task list.
	plan, err := services.Orchestrator.Generate(ctx, application.GenerateRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(plan.Tasks) != len(application.FallbackTasks()) || plan.Metadata["source"] != application.SourceFallback {
		t.Errorf("expected fallback plan, got %d tasks, metadata %v", len(plan.Tasks), plan.Metadata)
	}
	if violations, err := services.Audit.VerifyIntegrity(ctx); err != nil || len(violations) != 0 {
		t.Errorf("expected intact audit chain, got %v (%v)", violations, err)
	}
}

func TestBuildAppServicesFallbackOnInvalidProvider(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Reasoning.Provider = "unknown"
	if err := config.Save(dir, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	services, err := BuildAppServices(dir, nil)
	if err == nil {
		t.Fatal("expected error when provider is invalid")
	}
	if services == nil {
		t.Fatal("expected services even when fallback error occurs")
	}
	defer services.Close()
	if services.Reasoning.ID() != "mock:fallback" {
		t.Fatalf("expected fallback provider id, got %s", services.Reasoning.ID())
	}
	if _, err := os.Stat(filepath.Join(dir, "launchpath.db")); err != nil {
		t.Errorf("expected database file: %v", err)
	}
}

func TestLoadAIProvider_Overrides(t *testing.T) {
	t.Setenv("LAUNCHPATH_FORMATTING_PROVIDER", "mock")
	t.Setenv("LAUNCHPATH_FORMATTING_MODEL", "tiny")

	p, err := LoadAIProvider(RoleFormatting, config.AIConfig{Provider: "openai", Model: "gpt", MaxAttempts: 2})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID() != "mock:tiny" {
		t.Errorf("expected env override, got %s", p.ID())
	}
}

func TestBuildGateway(t *testing.T) {
	g := BuildGateway(config.DeliveryConfig{}, nil).(*infradelivery.Router)
	if _, ok := g.SMS.(*infradelivery.LogGateway); !ok {
		t.Errorf("expected log gateway without configuration, got %T", g.SMS)
	}

	g = BuildGateway(config.DeliveryConfig{
		Twilio:  config.TwilioConfig{AccountSID: "AC1", AuthToken: "t", From: "+1"},
		Webhook: config.WebhookConfig{URL: "http://example.invalid/hook", DeadLetterFile: "/tmp/dead.jsonl"},
	}, nil).(*infradelivery.Router)
	if _, ok := g.SMS.(*infradelivery.TwilioSMS); !ok {
		t.Errorf("expected Twilio for SMS, got %T", g.SMS)
	}
	wh, ok := g.Email.(*infradelivery.WebhookGateway)
	if !ok {
		t.Fatalf("expected webhook for email, got %T", g.Email)
	}
	if wh.DeadLetters == nil {
		t.Error("expected dead letter store when a file is configured")
	}
}
