// Package report renders contacts, matches and sync results.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/crossref"
	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/mikey/ghl-ops/internal/mbox"
)

// Format is an output encoding
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unsupported format %q (want table, json or csv)", s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, header []string, rows [][]string, footer string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	h := make(table.Row, len(header))
	for i, v := range header {
		h[i] = v
	}
	t.AppendHeader(h)
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	if footer != "" {
		t.AppendFooter(table.Row{footer})
	}

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func render(w io.Writer, format Format, v any, header []string, rows [][]string, footer string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatCSV:
		return writeCSV(w, header, rows)
	default:
		writeTable(w, header, rows, footer)
		return nil
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// WriteContacts renders an mbox contact list
func WriteContacts(w io.Writer, format Format, contacts []mbox.Contact) error {
	if contacts == nil {
		contacts = []mbox.Contact{}
	}
	header := []string{"email", "name", "first_name", "last_name", "phone", "messages", "sent", "received", "first_seen", "last_seen"}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{
			c.Email, c.Name, c.FirstName, c.LastName, c.Phone,
			strconv.Itoa(c.MessageCount), strconv.Itoa(c.SentCount), strconv.Itoa(c.ReceivedCount),
			formatTime(c.FirstSeen), formatTime(c.LastSeen),
		})
	}
	return render(w, format, contacts, header, rows, fmt.Sprintf("%d contacts", len(contacts)))
}

// WriteMatches renders cross-reference results
func WriteMatches(w io.Writer, format Format, matches []crossref.Match) error {
	switch format {
	case FormatJSON:
		return crossref.WriteJSON(w, matches)
	case FormatCSV:
		return crossref.WriteCSV(w, matches)
	}

	header := []string{"row", "name", "email", "match", "score", "other row", "other name", "other email"}
	rows := make([][]string, 0, len(matches))
	matched := 0
	for _, m := range matches {
		row := []string{strconv.Itoa(m.Left.Row), m.Left.Name, m.Left.Email, string(m.Kind), "", "", "", ""}
		if m.Right != nil {
			matched++
			row[4] = strconv.FormatFloat(m.Score, 'f', 3, 64)
			row[5] = strconv.Itoa(m.Right.Row)
			row[6] = m.Right.Name
			row[7] = m.Right.Email
		}
		rows = append(rows, row)
	}
	writeTable(w, header, rows, fmt.Sprintf("%d of %d matched", matched, len(matches)))
	return nil
}

// WriteRecords renders raw table records, used for unmatched rows
func WriteRecords(w io.Writer, format Format, records []crossref.Record) error {
	if records == nil {
		records = []crossref.Record{}
	}
	header := []string{"row", "name", "email", "phone"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{strconv.Itoa(r.Row), r.Name, r.Email, r.Phone})
	}
	return render(w, format, records, header, rows, fmt.Sprintf("%d rows", len(records)))
}

// WriteSyncReport renders the per-contact outcomes of a sync
func WriteSyncReport(w io.Writer, format Format, r *core.Report) error {
	header := []string{"email", "status", "contact_id", "reason"}
	rows := make([][]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		rows = append(rows, []string{o.Email, string(o.Status), o.ContactID, o.Reason})
	}
	return render(w, format, r, header, rows, CountsLine(r))
}

// WriteTags renders location tags
func WriteTags(w io.Writer, format Format, tags []ghl.Tag) error {
	if tags == nil {
		tags = []ghl.Tag{}
	}
	header := []string{"id", "name"}
	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, []string{t.ID, t.Name})
	}
	return render(w, format, tags, header, rows, "")
}

// WriteWorkflows renders location workflows
func WriteWorkflows(w io.Writer, format Format, workflows []ghl.Workflow) error {
	if workflows == nil {
		workflows = []ghl.Workflow{}
	}
	header := []string{"id", "name", "status", "version"}
	rows := make([][]string, 0, len(workflows))
	for _, wf := range workflows {
		rows = append(rows, []string{wf.ID, wf.Name, wf.Status, strconv.Itoa(wf.Version)})
	}
	return render(w, format, workflows, header, rows, "")
}

// CountsLine summarises a report as "created=2 failed=1", statuses sorted
func CountsLine(r *core.Report) string {
	statuses := make([]string, 0, len(r.Counts))
	for s := range r.Counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%s=%d", s, r.Counts[core.Status(s)]))
	}
	return strings.Join(parts, " ")
}

// Summary is the plain-text body used for report notifications
func Summary(r *core.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source:   %s\n", r.Source)
	fmt.Fprintf(&b, "Started:  %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&b, "Contacts: %d\n", len(r.Outcomes))
	fmt.Fprintf(&b, "Counts:   %s\n", CountsLine(r))

	var failures []core.Outcome
	for _, o := range r.Outcomes {
		if o.Status == core.StatusFailed {
			failures = append(failures, o)
		}
	}
	if len(failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, o := range failures {
			fmt.Fprintf(&b, "  %s: %s\n", o.Email, o.Reason)
		}
	}
	return b.String()
}
