// Package resource models the shared library of task resources that
// grows as plans are generated.
package resource

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/google/uuid"
)

type Type string

const (
	TypeGuide     Type = "GUIDE"
	TypeTemplate  Type = "TEMPLATE"
	TypeLink      Type = "LINK"
	TypeVideo     Type = "VIDEO"
	TypeChecklist Type = "CHECKLIST"
	TypeTool      Type = "TOOL"
)

// ParseType maps free-form input onto a known type, defaulting to GUIDE.
func ParseType(s string) Type {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeGuide, TypeTemplate, TypeLink, TypeVideo, TypeChecklist, TypeTool:
		return t
	default:
		return TypeGuide
	}
}

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusReviewed Status = "REVIEWED"
	StatusArchived Status = "ARCHIVED"
)

// Draft is a resource descriptor proposed alongside a generated task.
type Draft struct {
	Type    Type   `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Template is a library entry. REVIEWED templates are reused across plans.
type Template struct {
	ID           string            `json:"id"`
	Type         Type              `json:"type"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	URL          string            `json:"url,omitempty"`
	Category     planning.Category `json:"category"`
	BusinessType string            `json:"business_type,omitempty"`
	Status       Status            `json:"status"`
	TimesUsed    int               `json:"times_used"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TaskResource is a resource attached to one task.
type TaskResource struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	TemplateID string    `json:"template_id,omitempty"`
	Type       Type      `json:"type"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Query selects library templates. An empty BusinessType matches any.
type Query struct {
	Type         Type
	Category     planning.Category
	BusinessType string
	Status       Status
}

// Library stores templates and task attachments.
type Library interface {
	FindTemplates(ctx context.Context, q Query) ([]Template, error)
	CreateTemplate(ctx context.Context, t *Template) error
	IncrementUsage(ctx context.Context, templateID string) error
	AttachToTask(ctx context.Context, r *TaskResource) error
	ListForTask(ctx context.Context, taskID string) ([]TaskResource, error)
}

// Lookup finds a reusable template for a draft.
type Lookup interface {
	Find(ctx context.Context, lib Library, draft Draft, category planning.Category, businessType string) (*Template, error)
}

// TwoPassLookup prefers a reviewed template for the exact business type
// and category, then falls back to category only.
type TwoPassLookup struct{}

func (TwoPassLookup) Find(ctx context.Context, lib Library, draft Draft, category planning.Category, businessType string) (*Template, error) {
	passes := []Query{
		{Type: draft.Type, Category: category, BusinessType: businessType, Status: StatusReviewed},
		{Type: draft.Type, Category: category, Status: StatusReviewed},
	}
	if businessType == "" {
		passes = passes[1:]
	}
	for _, q := range passes {
		found, err := lib.FindTemplates(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			return &found[0], nil
		}
	}
	return nil, nil
}

// Matcher materializes drafts into task attachments using a lookup strategy.
type Matcher struct {
	Lookup Lookup
}

func NewMatcher(lookup Lookup) *Matcher {
	if lookup == nil {
		lookup = TwoPassLookup{}
	}
	return &Matcher{Lookup: lookup}
}

// Attach clones a matching template onto the task and bumps its usage, or
// stores the draft as a new DRAFT template with one use and attaches that.
func (r *Matcher) Attach(ctx context.Context, lib Library, task *planning.Task, businessType string, draft Draft) (*TaskResource, error) {
	draft.Type = ParseType(string(draft.Type))

	tmpl, err := r.Lookup.Find(ctx, lib, draft, task.Category, businessType)
	if err != nil {
		return nil, err
	}

	if tmpl != nil {
		if err := lib.IncrementUsage(ctx, tmpl.ID); err != nil {
			return nil, err
		}
	} else {
		tmpl = &Template{
			ID:           uuid.New().String(),
			Type:         draft.Type,
			Title:        draft.Title,
			Content:      draft.Content,
			URL:          draft.URL,
			Category:     task.Category,
			BusinessType: businessType,
			Status:       StatusDraft,
			TimesUsed:    1,
			CreatedAt:    time.Now().UTC(),
		}
		if err := lib.CreateTemplate(ctx, tmpl); err != nil {
			return nil, err
		}
	}

	res := &TaskResource{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		TemplateID: tmpl.ID,
		Type:       tmpl.Type,
		Title:      tmpl.Title,
		Content:    tmpl.Content,
		URL:        tmpl.URL,
		CreatedAt:  time.Now().UTC(),
	}
	if err := lib.AttachToTask(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}
