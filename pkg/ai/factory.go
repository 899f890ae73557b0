package ai

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
)

// NewProvider builds a provider by name. API keys come from the environment.
func NewProvider(providerName string, modelName string) (ai.Provider, error) {
	switch providerName {
	case "mock", "":
		return &MockProvider{Model: modelName}, nil
	case "openai":
		return NewOpenAIProvider(modelName, os.Getenv("OPENAI_API_KEY")), nil
	case "anthropic":
		return NewAnthropicProvider(modelName, os.Getenv("ANTHROPIC_API_KEY")), nil
	case "ollama":
		return NewOllamaProvider(modelName, os.Getenv("OLLAMA_HOST")), nil
	case "gemini":
		return NewGeminiProvider(modelName, os.Getenv("GEMINI_API_KEY")), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// GetDefaultProvider applies the LAUNCHPATH_<ROLE>_PROVIDER and
// LAUNCHPATH_<ROLE>_MODEL overrides before building the provider. role is
// "REASONING" or "FORMATTING".
func GetDefaultProvider(role, providerName, modelName string) (ai.Provider, error) {
	if v := os.Getenv("LAUNCHPATH_" + role + "_PROVIDER"); v != "" {
		providerName = v
	}
	if v := os.Getenv("LAUNCHPATH_" + role + "_MODEL"); v != "" {
		modelName = v
	}
	return NewProvider(providerName, modelName)
}
