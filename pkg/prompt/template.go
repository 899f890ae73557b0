package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// TemplateRenderer renders prompts from the embedded templates. Each
// prompt kind defines "<kind>.system" and "<kind>.user".
type TemplateRenderer struct {
	tmpl *template.Template
}

var _ Renderer = (*TemplateRenderer)(nil)

func NewTemplateRenderer() (*TemplateRenderer, error) {
	funcMap := template.FuncMap{
		"join":       joinOr,
		"categories": joinCategories,
		"yesno":      yesNo,
		"inc":        func(i int) int { return i + 1 },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

// MustTemplateRenderer panics when the embedded templates fail to parse.
func MustTemplateRenderer() *TemplateRenderer {
	r, err := NewTemplateRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *TemplateRenderer) PlanGeneration(in PlanGenerationInput) (ai.Prompt, error) {
	return r.render("plan_generation", in)
}

func (r *TemplateRenderer) PlanAdjustment(in PlanAdjustmentInput) (ai.Prompt, error) {
	return r.render("plan_adjustment", in)
}

func (r *TemplateRenderer) PlanContinuation(in PlanContinuationInput) (ai.Prompt, error) {
	return r.render("plan_continuation", in)
}

func (r *TemplateRenderer) DailyMessage(in DailyMessageInput) (ai.Prompt, error) {
	return r.render("daily_message", in)
}

func (r *TemplateRenderer) WeeklySummary(in WeeklySummaryInput) (ai.Prompt, error) {
	return r.render("weekly_summary", in)
}

func (r *TemplateRenderer) render(kind string, data any) (ai.Prompt, error) {
	var sys, user bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&sys, kind+".system", data); err != nil {
		return ai.Prompt{}, fmt.Errorf("render %s system prompt: %w", kind, err)
	}
	if err := r.tmpl.ExecuteTemplate(&user, kind+".user", data); err != nil {
		return ai.Prompt{}, fmt.Errorf("render %s user prompt: %w", kind, err)
	}
	return ai.Prompt{
		System: strings.TrimSpace(sys.String()),
		User:   strings.TrimSpace(user.String()),
	}, nil
}

func joinOr(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func joinCategories(cats []planning.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return joinOr(names)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
