package zion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func ericSettingsPath(orgID string) string {
	return fmt.Sprintf("/api/work/organizations/%s/eric-settings", url.PathEscape(orgID))
}

func taskTemplatesPath(orgID string) string {
	return fmt.Sprintf("/api/work/organizations/%s/task-templates", url.PathEscape(orgID))
}

// GetEricSettings fetches the AI assistant settings of a work organization
func (c *Client) GetEricSettings(ctx context.Context, orgID string) (*EricSettings, error) {
	var settings EricSettings
	if err := c.doAuth(ctx, http.MethodGet, ericSettingsPath(orgID), nil, &settings); err != nil {
		return nil, fmt.Errorf("get eric settings: %w", err)
	}
	return &settings, nil
}

// UpdateEricSettings replaces the AI assistant settings of a work organization
func (c *Client) UpdateEricSettings(ctx context.Context, orgID string, settings EricSettings) (*EricSettings, error) {
	var updated EricSettings
	if err := c.doAuth(ctx, http.MethodPut, ericSettingsPath(orgID), settings, &updated); err != nil {
		return nil, fmt.Errorf("update eric settings: %w", err)
	}
	return &updated, nil
}

// ListTaskTemplates fetches the task templates of a work organization
func (c *Client) ListTaskTemplates(ctx context.Context, orgID string) ([]TaskTemplate, error) {
	var templates []TaskTemplate
	if err := c.doAuth(ctx, http.MethodGet, taskTemplatesPath(orgID), nil, &templates); err != nil {
		return nil, fmt.Errorf("list task templates: %w", err)
	}
	return templates, nil
}

// CreateTaskTemplate stores a new task template
func (c *Client) CreateTaskTemplate(ctx context.Context, orgID string, tmpl TaskTemplate) (*TaskTemplate, error) {
	var created TaskTemplate
	if err := c.doAuth(ctx, http.MethodPost, taskTemplatesPath(orgID), tmpl, &created); err != nil {
		return nil, fmt.Errorf("create task template: %w", err)
	}
	return &created, nil
}

// UpdateTaskTemplate patches an existing task template
func (c *Client) UpdateTaskTemplate(ctx context.Context, orgID, templateID string, tmpl TaskTemplate) (*TaskTemplate, error) {
	path := taskTemplatesPath(orgID) + "/" + url.PathEscape(templateID)

	var updated TaskTemplate
	if err := c.doAuth(ctx, http.MethodPatch, path, tmpl, &updated); err != nil {
		return nil, fmt.Errorf("update task template: %w", err)
	}
	return &updated, nil
}

// DeleteTaskTemplate removes a task template
func (c *Client) DeleteTaskTemplate(ctx context.Context, orgID, templateID string) error {
	path := taskTemplatesPath(orgID) + "/" + url.PathEscape(templateID)
	if err := c.doAuth(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete task template: %w", err)
	}
	return nil
}
