package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
)

const taskDraftSchema = `{
  "type": "object",
  "required": ["title", "day_number"],
  "properties": {
    "day_number": { "type": "integer", "minimum": 1 },
    "sort_order": { "type": "integer", "minimum": 0 },
    "title": { "type": "string", "minLength": 1 },
    "description": { "type": "string" },
    "category": { "type": "string" },
    "difficulty": { "type": "string" },
    "estimated_minutes": { "type": "integer", "minimum": 0 },
    "resources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "type": { "type": "string" },
          "title": { "type": "string" },
          "content": { "type": "string" },
          "url": { "type": "string" }
        }
      }
    }
  }
}`

var (
	generatedPlanSchema = gojsonschema.NewStringLoader(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "tasks": { "type": "array", "minItems": 1, "items": ` + taskDraftSchema + ` }
  }
}`)

	adjustmentSchema = gojsonschema.NewStringLoader(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "remove_task_ids": { "type": "array", "items": { "type": ["string", "integer"] } },
    "reschedule": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["task_id", "new_day_number"],
        "properties": {
          "task_id": { "type": ["string", "integer"] },
          "new_day_number": { "type": "integer", "minimum": 1 }
        }
      }
    },
    "new_tasks": { "type": "array", "items": ` + taskDraftSchema + ` },
    "reasoning": { "type": "string" }
  }
}`)
)

// ReasoningClient implements ai.Reasoner on top of a completion provider.
// Replies are extracted from the completion text, validated against a
// JSON schema and decoded.
type ReasoningClient struct {
	provider  ai.Provider
	maxTokens int
	logger    *slog.Logger
}

func NewReasoningClient(provider ai.Provider, logger *slog.Logger) *ReasoningClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReasoningClient{provider: provider, maxTokens: 8192, logger: logger}
}

var _ ai.Reasoner = (*ReasoningClient)(nil)

func (c *ReasoningClient) GenerateTasks(ctx context.Context, prompt ai.Prompt) (*ai.GeneratedPlan, error) {
	payload, model, err := c.complete(ctx, prompt, generatedPlanSchema)
	if err != nil {
		return nil, err
	}

	var plan ai.GeneratedPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, &ai.MalformedResponseError{Service: c.provider.ID(), Issues: []string{err.Error()}}
	}
	for i := range plan.Tasks {
		normalizeDraft(&plan.Tasks[i])
	}
	plan.Model = model
	return &plan, nil
}

type wireReschedule struct {
	TaskID       flexID `json:"task_id"`
	NewDayNumber int    `json:"new_day_number"`
}

type wireAdjustment struct {
	RemoveTaskIDs []flexID         `json:"remove_task_ids"`
	Reschedule    []wireReschedule `json:"reschedule"`
	NewTasks      []ai.TaskDraft   `json:"new_tasks"`
	Reasoning     string           `json:"reasoning"`
}

func (c *ReasoningClient) AdjustPlan(ctx context.Context, prompt ai.Prompt) (*ai.Adjustment, error) {
	payload, model, err := c.complete(ctx, prompt, adjustmentSchema)
	if err != nil {
		return nil, err
	}

	var wire wireAdjustment
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, &ai.MalformedResponseError{Service: c.provider.ID(), Issues: []string{err.Error()}}
	}

	adj := &ai.Adjustment{
		Reasoning: wire.Reasoning,
		NewTasks:  wire.NewTasks,
		Model:     model,
	}
	for _, id := range wire.RemoveTaskIDs {
		adj.RemoveTaskIDs = append(adj.RemoveTaskIDs, string(id))
	}
	for _, r := range wire.Reschedule {
		adj.Reschedule = append(adj.Reschedule, ai.Reschedule{TaskID: string(r.TaskID), NewDayNumber: r.NewDayNumber})
	}
	for i := range adj.NewTasks {
		normalizeDraft(&adj.NewTasks[i])
	}
	return adj, nil
}

// complete calls the provider and returns the schema-valid JSON payload.
func (c *ReasoningClient) complete(ctx context.Context, prompt ai.Prompt, schema gojsonschema.JSONLoader) (string, string, error) {
	resp, err := c.provider.Complete(ctx, prompt.Request(c.maxTokens))
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ai.ErrExternalService, c.provider.ID(), err)
	}
	c.logger.Debug("reasoning call complete",
		"provider", c.provider.ID(),
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	payload := extractJSONPayload(resp.Text)
	if payload == "" {
		return "", "", &ai.MalformedResponseError{Service: c.provider.ID(), Issues: []string{"no JSON object in reply"}}
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(payload))
	if err != nil {
		return "", "", &ai.MalformedResponseError{Service: c.provider.ID(), Issues: []string{err.Error()}}
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return "", "", &ai.MalformedResponseError{Service: c.provider.ID(), Issues: issues}
	}
	return payload, resp.Model, nil
}

func normalizeDraft(d *ai.TaskDraft) {
	d.Title = strings.TrimSpace(d.Title)
	for i := range d.Resources {
		d.Resources[i].Type = resource.ParseType(string(d.Resources[i].Type))
	}
}

// extractJSONPayload strips markdown fences and surrounding prose and
// returns the first balanced JSON object in text.
func extractJSONPayload(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(clean); i++ {
		ch := clean[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return clean[start : i+1]
			}
		}
	}
	return ""
}

// flexID accepts task ids given either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("task id %s is not an integer", n)
	}
	*f = flexID(n.String())
	return nil
}
