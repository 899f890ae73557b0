package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
)

// FormattingClient implements ai.Formatter with a plain completion call.
type FormattingClient struct {
	provider  ai.Provider
	maxTokens int
	logger    *slog.Logger
}

func NewFormattingClient(provider ai.Provider, logger *slog.Logger) *FormattingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormattingClient{provider: provider, maxTokens: 1024, logger: logger}
}

var _ ai.Formatter = (*FormattingClient)(nil)

func (c *FormattingClient) FormatMessage(ctx context.Context, prompt ai.Prompt) (string, error) {
	resp, err := c.provider.Complete(ctx, prompt.Request(c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ai.ErrExternalService, c.provider.ID(), err)
	}
	c.logger.Debug("formatting call complete",
		"provider", c.provider.ID(),
		"model", resp.Model,
		"output_tokens", resp.Usage.OutputTokens,
	)

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &ai.MalformedResponseError{Service: c.provider.ID(), Issues: []string{"empty message"}}
	}
	return text, nil
}
