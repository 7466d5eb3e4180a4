package crm

import (
	"context"
	"fmt"

	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/ghl"
)

// GHLCRM adapts the GoHighLevel client to the core CRM port
type GHLCRM struct {
	client *ghl.Client
	source string
}

// NewGHLCRM creates a CRM adapter. source is recorded on contacts it creates.
func NewGHLCRM(client *ghl.Client, source string) *GHLCRM {
	return &GHLCRM{client: client, source: source}
}

// FindContact returns the contact ID for an email, or "" when absent
func (c *GHLCRM) FindContact(ctx context.Context, email string) (string, error) {
	contact, err := c.client.FindContactByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if contact == nil {
		return "", nil
	}
	return contact.ID, nil
}

// UpsertContact creates or updates a contact keyed by email
func (c *GHLCRM) UpsertContact(ctx context.Context, candidate *core.Candidate) (string, bool, error) {
	contact, created, err := c.client.UpsertContact(ctx, ghl.ContactInput{
		Email:     candidate.Email,
		FirstName: candidate.FirstName,
		LastName:  candidate.LastName,
		Name:      candidate.Name,
		Phone:     candidate.Phone,
		Source:    c.source,
	})
	if err != nil {
		return "", false, err
	}
	return contact.ID, created, nil
}

// DeleteContact removes a contact
func (c *GHLCRM) DeleteContact(ctx context.Context, id string) error {
	return c.client.DeleteContact(ctx, id)
}

// EnsureTags creates any tags that do not exist yet
func (c *GHLCRM) EnsureTags(ctx context.Context, tags []string) error {
	for _, t := range tags {
		if _, err := c.client.EnsureTag(ctx, t); err != nil {
			return fmt.Errorf("failed to ensure tag %q: %w", t, err)
		}
	}
	return nil
}

// AddTags applies tags to a contact
func (c *GHLCRM) AddTags(ctx context.Context, id string, tags []string) error {
	return c.client.AddTags(ctx, id, tags)
}

// AddToWorkflow enrolls a contact in a workflow
func (c *GHLCRM) AddToWorkflow(ctx context.Context, id, workflowID string) error {
	return c.client.AddContactToWorkflow(ctx, id, workflowID)
}
