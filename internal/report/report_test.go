package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/crossref"
	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/mikey/ghl-ops/internal/mbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *core.Report {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	return &core.Report{
		Source:     "leads.csv",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Outcomes: []core.Outcome{
			{Email: "a@x.com", Status: core.StatusCreated, ContactID: "c1"},
			{Email: "b@x.com", Status: core.StatusFailed, Reason: "upsert failed: status 422"},
		},
		Counts: map[core.Status]int{core.StatusFailed: 1, core.StatusCreated: 1},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteContacts(t *testing.T) {
	contacts := []mbox.Contact{{Email: "jane@x.com", Name: "Jane Doe", MessageCount: 3, LastSeen: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}}

	var buf bytes.Buffer
	require.NoError(t, WriteContacts(&buf, FormatCSV, contacts))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "email,name,first_name,last_name,phone,messages,sent,received,first_seen,last_seen", lines[0])
	assert.Equal(t, "jane@x.com,Jane Doe,,,,3,0,0,,2024-03-05", lines[1])

	buf.Reset()
	require.NoError(t, WriteContacts(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteContacts(&buf, FormatTable, contacts))
	assert.Contains(t, buf.String(), "jane@x.com")
	assert.Contains(t, buf.String(), "1 contacts")
}

func TestWriteMatchesTable(t *testing.T) {
	right := crossref.Record{Row: 5, Name: "John Smith"}
	var buf bytes.Buffer
	require.NoError(t, WriteMatches(&buf, FormatTable, []crossref.Match{
		{Left: crossref.Record{Row: 2, Name: "Jon Smith"}, Right: &right, Kind: crossref.KindFuzzy, Score: 0.9733},
		{Left: crossref.Record{Row: 3, Name: "Ann Lee"}, Kind: crossref.KindNone},
	}))
	out := buf.String()
	assert.Contains(t, out, "0.973")
	assert.Contains(t, out, "John Smith")
	assert.Contains(t, out, "1 of 2 matched")
}

func TestWriteSyncReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSyncReport(&buf, FormatJSON, sampleReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "leads.csv", decoded["source"])
	assert.Len(t, decoded["outcomes"], 2)

	buf.Reset()
	require.NoError(t, WriteSyncReport(&buf, FormatTable, sampleReport()))
	assert.Contains(t, buf.String(), "created=1 failed=1")
}

func TestWriteTagsAndWorkflows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTags(&buf, FormatCSV, []ghl.Tag{{ID: "t1", Name: "lead"}}))
	assert.Equal(t, "id,name\nt1,lead\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteWorkflows(&buf, FormatCSV, []ghl.Workflow{{ID: "w1", Name: "Nurture", Status: "published", Version: 2}}))
	assert.Equal(t, "id,name,status,version\nw1,Nurture,published,2\n", buf.String())
}

func TestSummary(t *testing.T) {
	s := Summary(sampleReport())
	assert.Contains(t, s, "Source:   leads.csv")
	assert.Contains(t, s, "Duration: 1.5s")
	assert.Contains(t, s, "Counts:   created=1 failed=1")
	assert.Contains(t, s, "b@x.com: upsert failed: status 422")
}
