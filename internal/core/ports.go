package core

import (
	"context"
)

// CRM is the subset of the CRM API the sync service needs
type CRM interface {
	// FindContact returns the contact ID for an email, or "" when absent
	FindContact(ctx context.Context, email string) (string, error)

	// UpsertContact creates or updates a contact keyed by email
	UpsertContact(ctx context.Context, c *Candidate) (id string, created bool, err error)

	// DeleteContact removes a contact
	DeleteContact(ctx context.Context, id string) error

	// EnsureTags creates any tags that do not exist yet
	EnsureTags(ctx context.Context, tags []string) error

	// AddTags applies tags to a contact
	AddTags(ctx context.Context, id string, tags []string) error

	// AddToWorkflow enrolls a contact in a workflow
	AddToWorkflow(ctx context.Context, id, workflowID string) error
}

// LeadClassifier decides whether a candidate looks like a real lead
type LeadClassifier interface {
	Classify(ctx context.Context, c *Candidate) (*LeadAssessment, error)
}

// Ledger remembers contacts already synced so re-runs do not re-push them
type Ledger interface {
	// Get retrieves an entry, or ErrNotFound
	Get(ctx context.Context, email string) (*LedgerEntry, error)

	// Set stores an entry
	Set(ctx context.Context, entry *LedgerEntry) error

	// Delete removes an entry
	Delete(ctx context.Context, email string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error

	// Stop releases background resources
	Stop()
}

// Suppressor explains why an address may not be imported; "" means it may
type Suppressor interface {
	Check(email string) string
}

// Notifier delivers a run report to the operator
type Notifier interface {
	Notify(ctx context.Context, report *Report) error
}
