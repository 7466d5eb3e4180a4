package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGHL serves the handful of endpoints a sync touches
type fakeGHL struct {
	mu       sync.Mutex
	contacts map[string]string
	tags     []string
	applied  map[string][]string
	enrolled []string
}

func (f *fakeGHL) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/contacts/search/duplicate":
		id, ok := f.contacts[r.URL.Query().Get("email")]
		if !ok {
			_ = enc.Encode(map[string]any{"contact": nil})
			return
		}
		_ = enc.Encode(map[string]any{"contact": map[string]any{"id": id}})
	case r.Method == http.MethodPost && r.URL.Path == "/contacts/upsert":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		email := body["email"].(string)
		id, ok := f.contacts[email]
		if !ok {
			id = "id-" + email
			f.contacts[email] = id
		}
		_ = enc.Encode(map[string]any{"new": !ok, "contact": map[string]any{"id": id, "source": body["source"]}})
	case r.Method == http.MethodGet && r.URL.Path == "/locations/loc/tags":
		var tags []map[string]any
		for i, name := range f.tags {
			tags = append(tags, map[string]any{"id": string(rune('a' + i)), "name": name})
		}
		_ = enc.Encode(map[string]any{"tags": tags})
	case r.Method == http.MethodPost && r.URL.Path == "/locations/loc/tags":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.tags = append(f.tags, body["name"])
		_ = enc.Encode(map[string]any{"tag": map[string]any{"id": "new", "name": body["name"]}})
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/contacts/") && strings.HasSuffix(r.URL.Path, "/tags"):
		var body struct{ Tags []string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.applied[r.URL.Path] = append(f.applied[r.URL.Path], body.Tags...)
		_ = enc.Encode(map[string]any{"tags": body.Tags})
	case r.Method == http.MethodPost:
		f.enrolled = append(f.enrolled, r.URL.Path)
		_ = enc.Encode(map[string]any{"succeded": true})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = enc.Encode(map[string]any{"message": "no route " + r.URL.Path})
	}
}

func TestSyncThroughGHL(t *testing.T) {
	fake := &fakeGHL{
		contacts: map[string]string{"old@x.com": "id-old"},
		tags:     []string{"imported"},
		applied:  map[string][]string{},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := ghl.NewClient(ghl.Options{BaseURL: srv.URL, Token: "t", LocationID: "loc", RateLimit: 1000, RateBurst: 10}, zap.NewNop())
	require.NoError(t, err)

	svc := core.NewSyncService(NewGHLCRM(client, "ghl-ops"), nil, nil, nil, zap.NewNop(), time.Hour, 0, []string{"imported"}, 2)
	report, err := svc.Sync(context.Background(), []core.Candidate{
		{Email: "new@x.com", FirstName: "New"},
		{Email: "old@x.com"},
	}, core.Options{Source: "test", Tags: []string{"Spring"}, WorkflowID: "wf9"})
	require.NoError(t, err)

	assert.Equal(t, core.StatusCreated, report.Outcomes[0].Status)
	assert.Equal(t, "id-new@x.com", report.Outcomes[0].ContactID)
	assert.Equal(t, core.StatusUpdated, report.Outcomes[1].Status)

	assert.ElementsMatch(t, []string{"imported", "Spring"}, fake.tags)
	assert.Equal(t, []string{"imported", "Spring"}, fake.applied["/contacts/id-old/tags"])
	assert.ElementsMatch(t, []string{"/contacts/id-new@x.com/workflow/wf9", "/contacts/id-old/workflow/wf9"}, fake.enrolled)
}

func TestFindContactMissing(t *testing.T) {
	fake := &fakeGHL{contacts: map[string]string{}, applied: map[string][]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := ghl.NewClient(ghl.Options{BaseURL: srv.URL, Token: "t", LocationID: "loc"}, zap.NewNop())
	require.NoError(t, err)

	id, err := NewGHLCRM(client, "").FindContact(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, id)
}
