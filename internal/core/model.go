package core

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by ledgers when an entry is absent or expired
var ErrNotFound = errors.New("ledger entry not found")

// Lead categories a classifier may report; each becomes a contact tag
const (
	CategoryPurchase  = "purchase"
	CategoryRefinance = "refinance"
	CategoryRealtor   = "realtor"
	CategoryVendor    = "vendor"
	CategoryOther     = "other"
)

var leadCategories = map[string]struct{}{
	CategoryPurchase:  {},
	CategoryRefinance: {},
	CategoryRealtor:   {},
	CategoryVendor:    {},
	CategoryOther:     {},
}

// NormalizeCategory lower-cases a classifier category and maps anything
// outside the known set to CategoryOther. An empty category stays empty.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return ""
	}
	if _, ok := leadCategories[category]; !ok {
		return CategoryOther
	}
	return category
}

// Candidate is a contact proposed for import into the CRM
type Candidate struct {
	Email     string
	Name      string
	FirstName string
	LastName  string
	Phone     string
	Tags      []string
	// Subject and Body give the classifier context; both may be empty
	Subject string
	Body    string
}

// LeadAssessment represents the result of lead classification
type LeadAssessment struct {
	IsLead      bool
	Score       float64
	Confidence  float64
	Category    string
	Explanation string
	ModelUsed   string
	AssessedAt  time.Time
}

// LedgerEntry records a contact that has already been synced
type LedgerEntry struct {
	Email      string
	ContactID  string
	Tags       []string
	WorkflowID string
	Source     string
	SyncedAt   time.Time
	ExpiresAt  time.Time
}

// Status is the per-contact result of a sync
type Status string

const (
	StatusCreated    Status = "created"
	StatusUpdated    Status = "updated"
	StatusSkipped    Status = "skipped"
	StatusSuppressed Status = "suppressed"
	StatusRejected   Status = "rejected"
	StatusFailed     Status = "failed"
	StatusPlanned    Status = "planned"
	StatusDeleted    Status = "deleted"
)

// Outcome is what happened to one candidate
type Outcome struct {
	Email     string `json:"email"`
	Status    Status `json:"status"`
	ContactID string `json:"contact_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Report summarises one sync run
type Report struct {
	Source     string         `json:"source"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcomes   []Outcome      `json:"outcomes"`
	Counts     map[Status]int `json:"counts"`
}

// Failed reports whether any contact failed
func (r *Report) Failed() bool {
	return r.Counts[StatusFailed] > 0
}

func newReport(source string, size int) *Report {
	return &Report{
		Source:    source,
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, size),
		Counts:    make(map[Status]int),
	}
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
	for _, o := range r.Outcomes {
		if o.Status != "" {
			r.Counts[o.Status]++
		}
	}
}
