package ai

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
)

// MockProvider returns canned completions. It is used when no provider is
// configured and in tests.
type MockProvider struct {
	Model string
	Text  string
	Fail  bool

	mu    sync.Mutex
	calls []ai.CompletionRequest
}

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(_ context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Fail {
		return nil, errors.New("mock provider failure")
	}
	return &ai.CompletionResponse{
		Text:  m.Text,
		Model: "mock-" + m.Model,
		Usage: ai.TokenUsage{
			InputTokens:  len(req.Prompt) / 4,
			OutputTokens: len(m.Text) / 4,
		},
	}, nil
}

// Calls returns the requests received so far.
func (m *MockProvider) Calls() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.CompletionRequest(nil), m.calls...)
}
