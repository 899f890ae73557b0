package wiring

import (
	"time"

	"github.com/felixgeelhaar/launchpath/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/launchpath/pkg/ai"
	domainai "github.com/felixgeelhaar/launchpath/pkg/domain/ai"
)

// Provider roles, matching the LAUNCHPATH_<ROLE>_* overrides.
const (
	RoleReasoning  = "REASONING"
	RoleFormatting = "FORMATTING"
)

// LoadAIProvider builds the resilient provider for one role.
func LoadAIProvider(role string, cfg config.AIConfig) (domainai.Provider, error) {
	resilienceConfig := infraai.DefaultResilienceConfig()
	if cfg.MaxAttempts > 0 {
		resilienceConfig.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryDelayMs > 0 {
		resilienceConfig.RetryDelay = time.Duration(cfg.RetryDelayMs) * time.Millisecond
	}
	if cfg.TimeoutSec > 0 {
		resilienceConfig.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	baseProvider, err := infraai.GetDefaultProvider(role, cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}
	return infraai.NewResilientProviderWithConfig(baseProvider, resilienceConfig), nil
}

// ProviderResolver returns the reasoning and formatting providers.
type ProviderResolver func(cfg *config.Config) (reasoning, formatting domainai.Provider, err error)

// ConfiguredProviders resolves both roles from configuration.
func ConfiguredProviders(cfg *config.Config) (domainai.Provider, domainai.Provider, error) {
	reasoning, err := LoadAIProvider(RoleReasoning, cfg.Reasoning)
	if err != nil {
		return nil, nil, err
	}
	formatting, err := LoadAIProvider(RoleFormatting, cfg.Formatting)
	if err != nil {
		return nil, nil, err
	}
	return reasoning, formatting, nil
}
