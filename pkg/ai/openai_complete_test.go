package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	infraAI "github.com/felixgeelhaar/launchpath/pkg/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
)

func TestOpenAIProvider_Complete_Success(t *testing.T) {
	var received struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&received)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "gpt-4o-mini-2024",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Hello from OpenAI!"}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProviderWithClient("gpt-4o-mini", "test-key", server.URL, server.Client())
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{System: "sys", Prompt: "Hello"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "Hello from OpenAI!" {
		t.Errorf("expected 'Hello from OpenAI!', got %q", resp.Text)
	}
	if resp.Model != "gpt-4o-mini-2024" {
		t.Errorf("expected model reported by API, got %s", resp.Model)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 5 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
	if len(received.Messages) != 2 || received.Messages[0].Role != "system" {
		t.Errorf("expected system + user messages, got %+v", received.Messages)
	}
}

func TestOpenAIProvider_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProviderWithClient("gpt-4o-mini", "test-key", server.URL, server.Client())
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "Hello"}); err == nil {
		t.Fatal("expected error when no choices are returned")
	}
}

func TestOpenAIProvider_Complete_NoAPIKey(t *testing.T) {
	p := infraAI.NewOpenAIProvider("", "")
	if p.ID() != "openai:gpt-4o-mini" {
		t.Errorf("unexpected default ID %q", p.ID())
	}
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "Hello"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
