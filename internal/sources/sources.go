// Package sources turns contact exports into sync candidates.
package sources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/crossref"
	"github.com/mikey/ghl-ops/internal/mbox"
	"go.uber.org/zap"
)

// Kind names a supported input format
type Kind string

const (
	KindCSV  Kind = "csv"
	KindMbox Kind = "mbox"
)

// ParseKind validates a --source value
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCSV, KindMbox:
		return k, nil
	}
	return "", fmt.Errorf("unsupported source %q (want csv or mbox)", s)
}

// MboxOptions control contact extraction from an mbox file
type MboxOptions struct {
	MaxMessageBytes int64
	MinMessages     int
}

// Loader reads candidates from files
type Loader struct {
	suppressor mbox.Suppressor
	logger     *zap.Logger
}

// NewLoader creates a loader. suppressor may be nil.
func NewLoader(suppressor mbox.Suppressor, logger *zap.Logger) *Loader {
	return &Loader{suppressor: suppressor, logger: logger}
}

// ReadMbox streams an mbox export into a contact list
func (l *Loader) ReadMbox(r io.Reader, opts MboxOptions) ([]mbox.Contact, mbox.Stats, error) {
	reader := mbox.NewReader(r, mbox.WithMaxMessageBytes(opts.MaxMessageBytes))
	collector := mbox.NewCollector(l.suppressor)

	for {
		msg, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, reader.Stats(), fmt.Errorf("failed to read mbox: %w", err)
		}
		collector.Add(msg)
	}

	contacts := collector.Contacts()
	if opts.MinMessages > 1 {
		kept := contacts[:0]
		for _, c := range contacts {
			if c.MessageCount >= opts.MinMessages {
				kept = append(kept, c)
			}
		}
		contacts = kept
	}

	stats := reader.Stats()
	l.logger.Info("Read mbox",
		zap.Int("messages", stats.Messages),
		zap.Int("malformed", stats.Malformed),
		zap.Int("oversized", stats.Oversized),
		zap.Int("suppressed_addresses", collector.Skipped()),
		zap.Int("contacts", len(contacts)))

	return contacts, stats, nil
}

// ReadMboxFile opens and reads an mbox file
func (l *Loader) ReadMboxFile(path string, opts MboxOptions) ([]mbox.Contact, mbox.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mbox.Stats{}, fmt.Errorf("failed to open mbox: %w", err)
	}
	defer f.Close()
	return l.ReadMbox(f, opts)
}

// ReadTableFile opens and parses a contact CSV
func ReadTableFile(path string) (*crossref.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	table, err := crossref.ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// Load reads candidates from a file of the given kind
func (l *Loader) Load(kind Kind, path string, opts MboxOptions) ([]core.Candidate, error) {
	switch kind {
	case KindCSV:
		table, err := ReadTableFile(path)
		if err != nil {
			return nil, err
		}
		return FromTable(table), nil
	case KindMbox:
		contacts, _, err := l.ReadMboxFile(path, opts)
		if err != nil {
			return nil, err
		}
		return FromContacts(contacts), nil
	default:
		return nil, fmt.Errorf("unsupported source %q", kind)
	}
}

// FromContacts maps mbox contacts to candidates, carrying the latest
// subject and body excerpt for classification
func FromContacts(contacts []mbox.Contact) []core.Candidate {
	out := make([]core.Candidate, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, core.Candidate{
			Email:     c.Email,
			Name:      c.Name,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Phone:     c.Phone,
			Subject:   c.LastSubject,
			Body:      c.Snippet,
		})
	}
	return out
}

// FromTable maps CSV records to candidates. Rows without an email are kept
// so they show up as rejected in the report.
func FromTable(table *crossref.Table) []core.Candidate {
	out := make([]core.Candidate, 0, len(table.Records))
	for _, r := range table.Records {
		out = append(out, core.Candidate{
			Email:     r.Email,
			Name:      r.Name,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Phone:     r.Phone,
		})
	}
	return out
}

// ReadEmailList reads addresses from a CSV with an email column, or from
// any text containing addresses (one per line, pasted lists)
func ReadEmailList(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email list: %w", err)
	}

	if table, err := crossref.ReadTable(bytes.NewReader(data)); err == nil {
		seen := make(map[string]struct{})
		var out []string
		for _, rec := range table.Records {
			if rec.Email == "" {
				continue
			}
			if _, ok := seen[rec.Email]; ok {
				continue
			}
			seen[rec.Email] = struct{}{}
			out = append(out, rec.Email)
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	return mbox.FindEmails(string(data)), nil
}
