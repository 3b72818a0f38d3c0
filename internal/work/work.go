// Package work manages the per-organization settings of the business
// workspace: the ERIC assistant settings and reusable task templates.
package work

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/zioncity/zion-sync/internal/form"
	"github.com/zioncity/zion-sync/internal/zion"
)

// Task priorities accepted by the backend
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

var ErrNoOrganization = errors.New("organization is required")

// SettingsAPI is the assistant-settings part of the backend
type SettingsAPI interface {
	GetEricSettings(ctx context.Context, orgID string) (*zion.EricSettings, error)
	UpdateEricSettings(ctx context.Context, orgID string, settings zion.EricSettings) (*zion.EricSettings, error)
}

// TemplatesAPI is the task-template part of the backend
type TemplatesAPI interface {
	ListTaskTemplates(ctx context.Context, orgID string) ([]zion.TaskTemplate, error)
	CreateTaskTemplate(ctx context.Context, orgID string, tmpl zion.TaskTemplate) (*zion.TaskTemplate, error)
	UpdateTaskTemplate(ctx context.Context, orgID, templateID string, tmpl zion.TaskTemplate) (*zion.TaskTemplate, error)
	DeleteTaskTemplate(ctx context.Context, orgID, templateID string) error
}

// Settings loads and saves assistant settings
type Settings struct {
	api SettingsAPI
}

func NewSettings(api SettingsAPI) *Settings {
	return &Settings{api: api}
}

func (s *Settings) Load(ctx context.Context, orgID string) (*zion.EricSettings, error) {
	if orgID == "" {
		return nil, ErrNoOrganization
	}
	return s.api.GetEricSettings(ctx, orgID)
}

// Save replaces the settings and returns what the server stored
func (s *Settings) Save(ctx context.Context, orgID string, settings zion.EricSettings) (*zion.EricSettings, error) {
	if orgID == "" {
		return nil, ErrNoOrganization
	}
	settings.CustomInstructions = strings.TrimSpace(settings.CustomInstructions)
	return s.api.UpdateEricSettings(ctx, orgID, settings)
}

// TemplateForm declares the inputs of the task-template editor
func TemplateForm() *form.Form {
	return form.New(
		form.Field{Name: "name", Label: "Name", Required: true},
		form.Field{Name: "title_template", Label: "Title template", Required: true},
		form.Field{Name: "description", Label: "Description"},
		form.Field{Name: "default_priority", Label: "Priority"},
		form.Field{Name: "default_deadline_days", Label: "Deadline days"},
	)
}

// ValidateTemplate checks a template before it is sent
func ValidateTemplate(t zion.TaskTemplate) error {
	f := TemplateForm()
	f.Set("name", t.Name)
	f.Set("title_template", t.TitleTemplate)
	f.Set("description", t.Description)
	f.Set("default_priority", t.DefaultPriority)
	f.Set("default_deadline_days", strconv.Itoa(t.DefaultDeadlineDays))
	if err := f.Validate(); err != nil {
		return err
	}

	var errs []form.FieldError
	switch t.DefaultPriority {
	case "", PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
	default:
		errs = append(errs, form.FieldError{Field: "default_priority", Message: fmt.Sprintf("Priority %q is not valid", t.DefaultPriority)})
	}
	if t.DefaultDeadlineDays < 0 {
		errs = append(errs, form.FieldError{Field: "default_deadline_days", Message: "Deadline days cannot be negative"})
	}
	if len(errs) > 0 {
		return &form.ValidationError{Fields: errs}
	}
	return nil
}

// Templates keeps the task templates of one organization
type Templates struct {
	api   TemplatesAPI
	orgID string

	mu    sync.Mutex
	items []zion.TaskTemplate
}

func NewTemplates(api TemplatesAPI, orgID string) *Templates {
	return &Templates{api: api, orgID: orgID}
}

// Cached returns the templates from the last List or mutation
func (t *Templates) Cached() []zion.TaskTemplate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]zion.TaskTemplate(nil), t.items...)
}

func (t *Templates) List(ctx context.Context) ([]zion.TaskTemplate, error) {
	if t.orgID == "" {
		return nil, ErrNoOrganization
	}
	items, err := t.api.ListTaskTemplates(ctx, t.orgID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.items = items
	t.mu.Unlock()
	return append([]zion.TaskTemplate(nil), items...), nil
}

func (t *Templates) Create(ctx context.Context, tmpl zion.TaskTemplate) (*zion.TaskTemplate, error) {
	if t.orgID == "" {
		return nil, ErrNoOrganization
	}
	tmpl = normalize(tmpl)
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	created, err := t.api.CreateTaskTemplate(ctx, t.orgID, tmpl)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.items = append(t.items, *created)
	t.mu.Unlock()
	return created, nil
}

func (t *Templates) Update(ctx context.Context, id string, tmpl zion.TaskTemplate) (*zion.TaskTemplate, error) {
	if t.orgID == "" {
		return nil, ErrNoOrganization
	}
	tmpl = normalize(tmpl)
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	updated, err := t.api.UpdateTaskTemplate(ctx, t.orgID, id, tmpl)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	for i := range t.items {
		if t.items[i].ID == id {
			t.items[i] = *updated
		}
	}
	t.mu.Unlock()
	return updated, nil
}

func (t *Templates) Delete(ctx context.Context, id string) error {
	if t.orgID == "" {
		return ErrNoOrganization
	}
	if err := t.api.DeleteTaskTemplate(ctx, t.orgID, id); err != nil {
		return err
	}

	t.mu.Lock()
	kept := t.items[:0]
	for _, item := range t.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	t.items = kept
	t.mu.Unlock()
	return nil
}

func normalize(t zion.TaskTemplate) zion.TaskTemplate {
	t.Name = strings.TrimSpace(t.Name)
	t.TitleTemplate = strings.TrimSpace(t.TitleTemplate)
	t.Description = strings.TrimSpace(t.Description)
	t.DefaultPriority = strings.ToUpper(strings.TrimSpace(t.DefaultPriority))
	if t.DefaultPriority == "" {
		t.DefaultPriority = PriorityMedium
	}
	subtasks := make([]string, 0, len(t.Subtasks))
	for _, s := range t.Subtasks {
		if s = strings.TrimSpace(s); s != "" {
			subtasks = append(subtasks, s)
		}
	}
	t.Subtasks = subtasks
	return t
}
