package ghl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		BaseURL:      srv.URL,
		Token:        "secret-token",
		LocationID:   "loc1",
		RateLimit:    1000,
		RateBurst:    100,
		RetryCount:   2,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{LocationID: "loc"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient(Options{Token: "t"}, zap.NewNop())
	assert.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Token: "t", LocationID: "loc"}.withDefaults()
	assert.Equal(t, DefaultBaseURL, o.BaseURL)
	assert.Equal(t, DefaultAPIVersion, o.APIVersion)
	assert.Equal(t, 30*time.Second, o.Timeout)
	assert.Equal(t, 10.0, o.RateLimit)
	assert.Equal(t, 10, o.RateBurst)

	o = Options{RateLimit: 2, RateBurst: 3}.withDefaults()
	assert.Equal(t, 2.0, o.RateLimit)
	assert.Equal(t, 3, o.RateBurst)
}

func TestUpsertContact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contacts/upsert", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultAPIVersion, r.Header.Get("Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "loc1", body["locationId"])
		assert.Equal(t, "jane@x.com", body["email"])
		assert.Equal(t, "Jane", body["firstName"])
		assert.NotContains(t, body, "phone")

		writeJSON(w, http.StatusOK, map[string]any{
			"new":     true,
			"contact": map[string]any{"id": "abc", "email": "jane@x.com", "locationId": "loc1"},
		})
	})

	contact, created, err := c.UpsertContact(context.Background(), ContactInput{Email: "jane@x.com", FirstName: "Jane"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "abc", contact.ID)
}

func TestUpsertContactNeedsIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request")
	})
	_, _, err := c.UpsertContact(context.Background(), ContactInput{FirstName: "Nobody"})
	assert.Error(t, err)
}

func TestFindContactByEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/search/duplicate", r.URL.Path)
		assert.Equal(t, "loc1", r.URL.Query().Get("locationId"))
		switch r.URL.Query().Get("email") {
		case "jane@x.com":
			writeJSON(w, http.StatusOK, map[string]any{"contact": map[string]any{"id": "abc"}})
		case "gone@x.com":
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Contact not found"})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"contact": nil})
		}
	})

	contact, err := c.FindContactByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "abc", contact.ID)

	contact, err = c.FindContactByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, contact)

	contact, err = c.FindContactByEmail(context.Background(), "gone@x.com")
	require.NoError(t, err)
	assert.Nil(t, contact)
}

func TestAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contacts/missing":
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Contact not found"})
		case "/contacts/forbidden":
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": []string{"token invalid", "expired"}})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "bad input")
		}
	})

	_, err := c.GetContact(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Contact not found", apiErr.Message)
	assert.Equal(t, http.MethodGet, apiErr.Method)

	_, err = c.GetContact(context.Background(), "forbidden")
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "token invalid; expired", apiErr.Message)

	err = c.DeleteContact(context.Background(), "other")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad input", apiErr.Message)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRetriesOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"message": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"workflows": []map[string]any{{"id": "wf1", "name": "Nurture", "status": "published"}}})
	})

	workflows, err := c.ListWorkflows(context.Background())
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "Nurture", workflows[0].Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRateLimitedAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"message": "slow down"})
	})

	_, err := c.ListWorkflows(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "invalid email"})
	})

	_, _, err := c.UpsertContact(context.Background(), ContactInput{Email: "x"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestContactTags(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/abc/tags", r.URL.Path)
		var body tagsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = append(got, r.Method)
		got = append(got, body.Tags...)
		writeJSON(w, http.StatusOK, map[string]any{"tags": body.Tags})
	})

	require.NoError(t, c.AddTags(context.Background(), "abc", []string{"lead", "fha"}))
	require.NoError(t, c.RemoveTags(context.Background(), "abc", []string{"fha"}))
	require.NoError(t, c.AddTags(context.Background(), "abc", nil))
	assert.Equal(t, []string{http.MethodPost, "lead", "fha", http.MethodDelete, "fha"}, got)
}

func TestEnsureTag(t *testing.T) {
	var lists, creates atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations/loc1/tags", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			lists.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{"tags": []map[string]any{{"id": "t1", "name": "Existing"}}})
		case http.MethodPost:
			creates.Add(1)
			var body createTagRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusCreated, map[string]any{"tag": map[string]any{"id": "t2", "name": body.Name}})
		}
	})

	ctx := context.Background()
	tag, err := c.EnsureTag(ctx, "existing")
	require.NoError(t, err)
	assert.Equal(t, "t1", tag.ID)

	tag, err = c.EnsureTag(ctx, "Spring Leads")
	require.NoError(t, err)
	assert.Equal(t, "t2", tag.ID)

	// both now served from the cache
	_, err = c.EnsureTag(ctx, "EXISTING")
	require.NoError(t, err)
	_, err = c.EnsureTag(ctx, "spring leads")
	require.NoError(t, err)

	assert.Equal(t, int32(2), lists.Load())
	assert.Equal(t, int32(1), creates.Load())
}

func TestDeleteTagEvictsCache(t *testing.T) {
	var lists atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			lists.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{"tags": []map[string]any{{"id": "t1", "name": "old"}}})
		case r.Method == http.MethodDelete:
			assert.Equal(t, "/locations/loc1/tags/t1", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{"succeded": true})
		}
	})

	ctx := context.Background()
	tag, err := c.FindTag(ctx, "old")
	require.NoError(t, err)
	require.NoError(t, c.DeleteTag(ctx, tag.ID))

	_, err = c.FindTag(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, int32(2), lists.Load())
}

func TestWorkflowEnrollment(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"succeded": true})
	})

	ctx := context.Background()
	require.NoError(t, c.AddContactToWorkflow(ctx, "abc", "wf1"))
	require.NoError(t, c.RemoveContactFromWorkflow(ctx, "abc", "wf1"))
	assert.Equal(t, []string{
		"POST /contacts/abc/workflow/wf1",
		"DELETE /contacts/abc/workflow/wf1",
	}, seen)
}

func TestContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListTags(ctx)
	assert.Error(t, err)
}
