package wiring

import (
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/launchpath/pkg/ai"
	"github.com/felixgeelhaar/launchpath/pkg/application"
	domainai "github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
	"github.com/felixgeelhaar/launchpath/pkg/prompt"
)

// AppServices exposes the application layer services wired together with a workspace.
type AppServices struct {
	Workspace    *Workspace
	Profiles     *application.ProfileService
	Plans        *application.PlanService
	Tasks        *application.TaskService
	Orchestrator *application.Orchestrator
	Achievements *application.AchievementService
	Dispatch     *application.DispatchService
	Inbound      *application.InboundService
	Summary      *application.SummaryService
	Stale        *application.StalePlanService
	Analytics    *application.AnalyticsService
	Messages     *application.MessageService
	Audit        *application.AuditService
	Reasoning    domainai.Provider
	Formatting   domainai.Provider
}

// BuildAppServices opens the workspace in dataDir and wires every service
// against the configured providers and delivery gateway.
func BuildAppServices(dataDir string, logger *slog.Logger) (*AppServices, error) {
	return BuildAppServicesWithProviders(dataDir, logger, ConfiguredProviders)
}

// BuildAppServicesWithProviders allows callers to supply a custom AI
// provider resolver. A resolver failure falls back to the mock provider;
// the services are still returned together with the error.
func BuildAppServicesWithProviders(dataDir string, logger *slog.Logger, resolver ProviderResolver) (*AppServices, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ws, err := OpenWorkspace(dataDir)
	if err != nil {
		return nil, err
	}
	cfg := ws.Config

	reasoningProvider, formattingProvider, err := resolver(cfg)
	var loadErr error
	if err != nil {
		loadErr = fmt.Errorf("AI provider config fallback: %w", err)
		logger.Warn("using mock AI providers", "error", err)
		reasoningProvider = ai.NewResilientProvider(&ai.MockProvider{Model: "fallback"})
		formattingProvider = reasoningProvider
	}

	renderer, err := prompt.NewTemplateRenderer()
	if err != nil {
		_ = ws.Close()
		return nil, err
	}

	deliveryCfg := cfg.Delivery
	deliveryCfg.Webhook.DeadLetterFile = cfg.DeadLetterPath(dataDir)

	var (
		store     = ws.Store
		clk       = clock.SystemClock{}
		tz        = clock.NewResolver()
		policy    = planning.SkipPolicy{Threshold: cfg.Adjust.SkipThreshold}
		reasoner  = ai.NewReasoningClient(reasoningProvider, logger)
		formatter = ai.NewFormattingClient(formattingProvider, logger)
		gateway   = BuildGateway(deliveryCfg, logger)
	)

	// Create services in dependency order
	orchestrator := application.NewOrchestrator(store, reasoner, renderer, resource.NewMatcher(nil), clk, tz, ws.Audit,
		application.OrchestratorConfig{
			DefaultDurationDays: cfg.Plan.DefaultDurationDays,
			MaxRemovalRatio:     cfg.Adjust.MaxRemovalRatio,
		}, logger)
	achievements := application.NewAchievementService(store, clk, tz, ws.Audit, logger)
	tasks := application.NewTaskService(store, achievements, orchestrator, policy, clk, tz, ws.Audit, logger)

	services := &AppServices{
		Workspace:    ws,
		Profiles:     application.NewProfileService(store, logger),
		Plans:        application.NewPlanService(store, ws.Audit, logger),
		Tasks:        tasks,
		Orchestrator: orchestrator,
		Achievements: achievements,
		Dispatch: application.NewDispatchService(store, formatter, renderer, gateway, tz, ws.Audit, application.DispatchConfig{
			Workers:     cfg.Dispatch.Workers,
			SMSMaxChars: cfg.Dispatch.SMSMaxChars,
		}, logger),
		Inbound:    application.NewInboundService(store, tasks, clk, tz, logger),
		Summary:    application.NewSummaryService(store, formatter, renderer, gateway, tz, ws.Audit, logger),
		Stale:      application.NewStalePlanService(store, orchestrator, policy, logger),
		Analytics:  application.NewAnalyticsService(store, clk, tz),
		Messages:   application.NewMessageService(store, logger),
		Audit:      ws.Audit,
		Reasoning:  reasoningProvider,
		Formatting: formattingProvider,
	}

	return services, loadErr
}

func (s *AppServices) Close() error {
	return s.Workspace.Close()
}
