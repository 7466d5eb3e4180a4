package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options control one sync run
type Options struct {
	Source     string
	Tags       []string
	WorkflowID string
	DryRun     bool
	Force      bool
	Workers    int
}

// SyncService is the core service for importing contacts into the CRM
type SyncService struct {
	crm         CRM
	ledger      Ledger
	classifier  LeadClassifier
	suppressor  Suppressor
	logger      *zap.Logger
	ledgerTTL   time.Duration
	threshold   float64
	defaultTags []string
	workers     int
}

// NewSyncService creates a new sync service. classifier may be nil to
// import every candidate that passes suppression.
func NewSyncService(
	crm CRM,
	ledger Ledger,
	classifier LeadClassifier,
	suppressor Suppressor,
	logger *zap.Logger,
	ledgerTTL time.Duration,
	threshold float64,
	defaultTags []string,
	workers int,
) *SyncService {
	if workers < 1 {
		workers = 1
	}
	return &SyncService{
		crm:         crm,
		ledger:      ledger,
		classifier:  classifier,
		suppressor:  suppressor,
		logger:      logger,
		ledgerTTL:   ledgerTTL,
		threshold:   threshold,
		defaultTags: defaultTags,
		workers:     workers,
	}
}

// Sync imports candidates. Per-contact failures are recorded in the report;
// the returned error is only set when ctx is cancelled.
func (s *SyncService) Sync(ctx context.Context, candidates []Candidate, opts Options) (*Report, error) {
	report := newReport(opts.Source, len(candidates))
	workers := opts.Workers
	if workers < 1 {
		workers = s.workers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	seen := make(map[string]struct{}, len(candidates))
	for i := range candidates {
		c := candidates[i]
		email := strings.ToLower(strings.TrimSpace(c.Email))
		c.Email = email

		if _, dup := seen[email]; dup && email != "" {
			report.Outcomes[i] = Outcome{Email: email, Status: StatusSkipped, Reason: "duplicate in batch"}
			continue
		}
		seen[email] = struct{}{}

		if gctx.Err() != nil {
			report.Outcomes[i] = Outcome{Email: email, Status: StatusSkipped, Reason: "cancelled"}
			continue
		}

		idx := i
		g.Go(func() error {
			report.Outcomes[idx] = s.syncOne(gctx, &c, opts)
			return nil
		})
	}
	_ = g.Wait()
	report.finish()

	s.logger.Info("Sync finished",
		zap.String("source", opts.Source),
		zap.Int("candidates", len(candidates)),
		zap.Int("created", report.Counts[StatusCreated]),
		zap.Int("updated", report.Counts[StatusUpdated]),
		zap.Int("failed", report.Counts[StatusFailed]),
		zap.Bool("dry_run", opts.DryRun))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (s *SyncService) syncOne(ctx context.Context, c *Candidate, opts Options) Outcome {
	out := Outcome{Email: c.Email}

	if ctx.Err() != nil {
		out.Status, out.Reason = StatusSkipped, "cancelled"
		return out
	}

	// Only bare addresses, no display names or angle brackets
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		out.Status, out.Reason = StatusRejected, "invalid email"
		return out
	}
	if s.suppressor != nil {
		if reason := s.suppressor.Check(c.Email); reason != "" {
			out.Status, out.Reason = StatusSuppressed, reason
			return out
		}
	}

	if !opts.Force && s.ledger != nil {
		entry, err := s.ledger.Get(ctx, c.Email)
		switch {
		case err == nil:
			out.Status, out.ContactID, out.Reason = StatusSkipped, entry.ContactID, "already synced"
			return out
		case !errors.Is(err, ErrNotFound):
			s.logger.Warn("Ledger lookup failed", zap.String("email", c.Email), zap.Error(err))
		}
	}

	var category string
	if s.classifier != nil {
		assessment, err := s.classifier.Classify(ctx, c)
		if err != nil {
			s.logger.Error("Failed to classify candidate", zap.String("email", c.Email), zap.Error(err))
			out.Status, out.Reason = StatusFailed, fmt.Sprintf("classification failed: %v", err)
			return out
		}
		if !assessment.IsLead || assessment.Score < s.threshold {
			out.Status = StatusRejected
			out.Reason = fmt.Sprintf("not a lead (score %.2f): %s", assessment.Score, assessment.Explanation)
			return out
		}
		category = NormalizeCategory(assessment.Category)
	}

	tags := mergeTags(s.defaultTags, opts.Tags, c.Tags, []string{category})

	if opts.DryRun {
		id, err := s.crm.FindContact(ctx, c.Email)
		if err != nil {
			out.Status, out.Reason = StatusFailed, fmt.Sprintf("lookup failed: %v", err)
			return out
		}
		out.Status, out.ContactID = StatusPlanned, id
		if id == "" {
			out.Reason = "would create"
		} else {
			out.Reason = "would update"
		}
		return out
	}

	id, created, err := s.crm.UpsertContact(ctx, c)
	if err != nil {
		s.logger.Error("Failed to upsert contact", zap.String("email", c.Email), zap.Error(err))
		out.Status, out.Reason = StatusFailed, fmt.Sprintf("upsert failed: %v", err)
		return out
	}
	out.ContactID = id

	if len(tags) > 0 {
		if err := s.crm.EnsureTags(ctx, tags); err != nil {
			out.Status, out.Reason = StatusFailed, fmt.Sprintf("failed to ensure tags: %v", err)
			return out
		}
		if err := s.crm.AddTags(ctx, id, tags); err != nil {
			out.Status, out.Reason = StatusFailed, fmt.Sprintf("failed to tag contact: %v", err)
			return out
		}
	}

	if opts.WorkflowID != "" {
		if err := s.crm.AddToWorkflow(ctx, id, opts.WorkflowID); err != nil {
			out.Status, out.Reason = StatusFailed, fmt.Sprintf("failed to enroll in workflow: %v", err)
			return out
		}
	}

	if created {
		out.Status = StatusCreated
	} else {
		out.Status = StatusUpdated
	}

	if s.ledger != nil {
		now := time.Now()
		entry := &LedgerEntry{
			Email:      c.Email,
			ContactID:  id,
			Tags:       tags,
			WorkflowID: opts.WorkflowID,
			Source:     opts.Source,
			SyncedAt:   now,
			ExpiresAt:  now.Add(s.ledgerTTL),
		}
		if err := s.ledger.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update ledger", zap.String("email", c.Email), zap.Error(err))
		}
	}

	s.logger.Debug("Contact synced",
		zap.String("email", c.Email),
		zap.String("contact_id", id),
		zap.String("status", string(out.Status)))

	return out
}

// Delete removes the CRM contacts for the given emails and forgets them
// in the ledger
func (s *SyncService) Delete(ctx context.Context, emails []string, source string, dryRun bool) (*Report, error) {
	report := newReport(source, len(emails))

	for i, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if err := ctx.Err(); err != nil {
			report.Outcomes[i] = Outcome{Email: email, Status: StatusSkipped, Reason: "cancelled"}
			continue
		}
		report.Outcomes[i] = s.deleteOne(ctx, email, dryRun)
	}
	report.finish()

	s.logger.Info("Delete finished",
		zap.String("source", source),
		zap.Int("requested", len(emails)),
		zap.Int("deleted", report.Counts[StatusDeleted]),
		zap.Bool("dry_run", dryRun))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (s *SyncService) deleteOne(ctx context.Context, email string, dryRun bool) Outcome {
	out := Outcome{Email: email}

	id, err := s.crm.FindContact(ctx, email)
	if err != nil {
		out.Status, out.Reason = StatusFailed, fmt.Sprintf("lookup failed: %v", err)
		return out
	}
	if id == "" {
		out.Status, out.Reason = StatusSkipped, "not found"
		return out
	}
	out.ContactID = id

	if dryRun {
		out.Status, out.Reason = StatusPlanned, "would delete"
		return out
	}

	if err := s.crm.DeleteContact(ctx, id); err != nil {
		s.logger.Error("Failed to delete contact", zap.String("email", email), zap.Error(err))
		out.Status, out.Reason = StatusFailed, fmt.Sprintf("delete failed: %v", err)
		return out
	}
	out.Status = StatusDeleted

	if s.ledger != nil {
		if err := s.ledger.Delete(ctx, email); err != nil {
			s.logger.Warn("Failed to remove ledger entry", zap.String("email", email), zap.Error(err))
		}
	}
	return out
}

// mergeTags unions tag lists case-insensitively, keeping first spelling and order
func mergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			key := strings.ToLower(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
