package ghl

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Workflow is an automation defined in the location
type Workflow struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Version    int       `json:"version"`
	LocationID string    `json:"locationId,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

type listWorkflowsResponse struct {
	Workflows []Workflow `json:"workflows"`
}

type enrollRequest struct {
	EventStartTime string `json:"eventStartTime,omitempty"`
}

// ListWorkflows returns the workflows of the location
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var resp listWorkflowsResponse
	query := map[string]string{"locationId": c.locationID}
	if err := c.do(ctx, http.MethodGet, "/workflows/", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Workflows, nil
}

// AddContactToWorkflow enrolls a contact in a workflow starting now
func (c *Client) AddContactToWorkflow(ctx context.Context, contactID, workflowID string) error {
	return c.do(ctx, http.MethodPost, contactPath(contactID, "workflow", url.PathEscape(workflowID)), nil, enrollRequest{}, nil)
}

// RemoveContactFromWorkflow stops a contact's run of a workflow
func (c *Client) RemoveContactFromWorkflow(ctx context.Context, contactID, workflowID string) error {
	return c.do(ctx, http.MethodDelete, contactPath(contactID, "workflow", url.PathEscape(workflowID)), nil, nil, nil)
}
