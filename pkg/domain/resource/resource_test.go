package resource_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/felixgeelhaar/launchpath/pkg/domain/resource"
)

type memLibrary struct {
	templates []resource.Template
	attached  []resource.TaskResource
	queries   []resource.Query
}

func (m *memLibrary) FindTemplates(_ context.Context, q resource.Query) ([]resource.Template, error) {
	m.queries = append(m.queries, q)
	var out []resource.Template
	for _, t := range m.templates {
		if t.Type != q.Type || t.Category != q.Category || t.Status != q.Status {
			continue
		}
		if q.BusinessType != "" && t.BusinessType != q.BusinessType {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memLibrary) CreateTemplate(_ context.Context, t *resource.Template) error {
	m.templates = append(m.templates, *t)
	return nil
}

func (m *memLibrary) IncrementUsage(_ context.Context, id string) error {
	for i := range m.templates {
		if m.templates[i].ID == id {
			m.templates[i].TimesUsed++
		}
	}
	return nil
}

func (m *memLibrary) AttachToTask(_ context.Context, r *resource.TaskResource) error {
	m.attached = append(m.attached, *r)
	return nil
}

func (m *memLibrary) ListForTask(_ context.Context, taskID string) ([]resource.TaskResource, error) {
	var out []resource.TaskResource
	for _, r := range m.attached {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out, nil
}

func task() *planning.Task {
	return &planning.Task{ID: "t1", Category: planning.CategoryFinance}
}

func TestResolver_PrefersExactBusinessType(t *testing.T) {
	lib := &memLibrary{templates: []resource.Template{
		{ID: "generic", Type: resource.TypeGuide, Category: planning.CategoryFinance, Status: resource.StatusReviewed, Title: "Generic"},
		{ID: "bakery", Type: resource.TypeGuide, Category: planning.CategoryFinance, BusinessType: "bakery", Status: resource.StatusReviewed, Title: "Bakery"},
	}}
	r := resource.NewMatcher(nil)

	res, err := r.Attach(context.Background(), lib, task(), "bakery", resource.Draft{Type: "guide", Title: "Pricing guide"})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if res.TemplateID != "bakery" {
		t.Errorf("expected exact match, got %s", res.TemplateID)
	}
	if lib.templates[1].TimesUsed != 1 {
		t.Errorf("expected usage increment, got %d", lib.templates[1].TimesUsed)
	}
}

func TestResolver_FallsBackToCategory(t *testing.T) {
	lib := &memLibrary{templates: []resource.Template{
		{ID: "generic", Type: resource.TypeGuide, Category: planning.CategoryFinance, Status: resource.StatusReviewed, Title: "Generic"},
	}}
	r := resource.NewMatcher(nil)

	res, err := r.Attach(context.Background(), lib, task(), "florist", resource.Draft{Type: "GUIDE", Title: "Pricing guide"})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if res.TemplateID != "generic" {
		t.Errorf("expected category fallback, got %s", res.TemplateID)
	}
	if len(lib.queries) != 2 {
		t.Errorf("expected two lookup passes, got %d", len(lib.queries))
	}
}

func TestResolver_IgnoresDraftTemplatesAndCreatesNew(t *testing.T) {
	lib := &memLibrary{templates: []resource.Template{
		{ID: "draft", Type: resource.TypeLink, Category: planning.CategoryFinance, Status: resource.StatusDraft},
	}}
	r := resource.NewMatcher(nil)

	res, err := r.Attach(context.Background(), lib, task(), "bakery", resource.Draft{Type: "LINK", Title: "SBA pricing", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if res.TemplateID == "draft" {
		t.Fatal("unreviewed templates must not be reused")
	}
	created := lib.templates[len(lib.templates)-1]
	if created.Status != resource.StatusDraft || created.TimesUsed != 1 {
		t.Errorf("expected new DRAFT template with one use, got %+v", created)
	}
	if created.BusinessType != "bakery" || created.Category != planning.CategoryFinance {
		t.Errorf("expected new template to carry task context, got %+v", created)
	}
	if len(lib.attached) != 1 || lib.attached[0].URL != "https://example.com" {
		t.Errorf("expected attachment, got %+v", lib.attached)
	}
}

func TestParseType(t *testing.T) {
	if resource.ParseType(" video ") != resource.TypeVideo {
		t.Error("expected VIDEO")
	}
	if resource.ParseType("podcast") != resource.TypeGuide {
		t.Error("unknown types default to GUIDE")
	}
}
