package intake

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/mbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSyncer struct {
	mu    sync.Mutex
	calls [][]core.Candidate
	opts  []core.Options
	err   error
}

func (f *fakeSyncer) Sync(_ context.Context, candidates []core.Candidate, opts core.Options) (*core.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, candidates)
	f.opts = append(f.opts, opts)

	report := &core.Report{Source: opts.Source, Counts: map[core.Status]int{}}
	for _, c := range candidates {
		report.Outcomes = append(report.Outcomes, core.Outcome{Email: c.Email, Status: core.StatusCreated})
		report.Counts[core.StatusCreated]++
	}
	return report, f.err
}

type fakeNotifier struct {
	reports []*core.Report
}

func (f *fakeNotifier) Notify(_ context.Context, r *core.Report) error {
	f.reports = append(f.reports, r)
	return nil
}

type noreplySuppressor struct{}

func (noreplySuppressor) IsSuppressed(email string) bool {
	return strings.HasPrefix(email, "noreply@")
}

const leadEmail = "From: Zillow <noreply@zillow.com>\r\n" +
	"Reply-To: \"Jane Doe\" <Jane.Doe@example.com>\r\n" +
	"To: leads@broker.com\r\n" +
	"Subject: New lead: purchase inquiry\r\n" +
	"\r\n" +
	"Jane is looking to buy. Call (555) 234-5678.\r\n" +
	"Co-borrower: sam@example.com, cc leads@broker.com\r\n"

func testConfig() config.IntakeConfig {
	return config.IntakeConfig{
		ListenAddress:   "127.0.0.1:0",
		Domain:          "localhost",
		MaxMessageBytes: 1 << 20,
		MaxRecipients:   10,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		Tags:            []string{"email-lead"},
		WorkflowID:      "wf-1",
		SyncTimeout:     5 * time.Second,
	}
}

func TestExtractCandidates(t *testing.T) {
	msg, err := mbox.ParseMessage([]byte(leadEmail))
	require.NoError(t, err)

	got := ExtractCandidates(msg, noreplySuppressor{}, []string{"Leads@Broker.com"})
	require.Len(t, got, 2)

	assert.Equal(t, "jane.doe@example.com", got[0].Email)
	assert.Equal(t, "Jane Doe", got[0].Name)
	assert.Equal(t, "Jane", got[0].FirstName)
	assert.Equal(t, "Doe", got[0].LastName)
	assert.Equal(t, "(555) 234-5678", got[0].Phone)
	assert.Equal(t, "New lead: purchase inquiry", got[0].Subject)

	assert.Equal(t, "sam@example.com", got[1].Email)
	assert.Empty(t, got[1].Phone)
}

func TestSessionSyncsLead(t *testing.T) {
	syncer := &fakeSyncer{}
	notifier := &fakeNotifier{}
	srv := NewServer(syncer, noreplySuppressor{}, notifier, testConfig(), zap.NewNop())

	s := &session{server: srv}
	require.NoError(t, s.Mail("forwarder@broker.com", nil))
	require.NoError(t, s.Rcpt("leads@broker.com", nil))
	require.NoError(t, s.Data(strings.NewReader(leadEmail)))

	require.Len(t, syncer.calls, 1)
	assert.Len(t, syncer.calls[0], 2)
	assert.Equal(t, core.Options{Source: "intake", Tags: []string{"email-lead"}, WorkflowID: "wf-1"}, syncer.opts[0])
	require.Len(t, notifier.reports, 1)
	assert.Equal(t, 2, notifier.reports[0].Counts[core.StatusCreated])

	s.Reset()
	assert.Empty(t, s.recipients)
	assert.NoError(t, s.Logout())
}

func TestSessionRejectsUnlistedRecipient(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedRecipients = []string{"Leads@Broker.com"}
	srv := NewServer(&fakeSyncer{}, nil, nil, cfg, zap.NewNop())

	s := &session{server: srv}
	assert.NoError(t, s.Rcpt("leads@broker.com", nil))

	err := s.Rcpt("someone@else.com", nil)
	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 550, smtpErr.Code)
}

func TestSessionRejectsUnparseable(t *testing.T) {
	syncer := &fakeSyncer{}
	srv := NewServer(syncer, nil, nil, testConfig(), zap.NewNop())

	s := &session{server: srv}
	err := s.Data(strings.NewReader("this is not a header\r\n\r\nbody"))
	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 554, smtpErr.Code)
	assert.Empty(t, syncer.calls)
}

func TestSyncFailureStillAccepts(t *testing.T) {
	syncer := &fakeSyncer{err: context.DeadlineExceeded}
	srv := NewServer(syncer, noreplySuppressor{}, nil, testConfig(), zap.NewNop())

	s := &session{server: srv}
	assert.NoError(t, s.Data(strings.NewReader(leadEmail)))
	assert.Len(t, syncer.calls, 1)
}

func TestNoLeadSkipsSync(t *testing.T) {
	syncer := &fakeSyncer{}
	srv := NewServer(syncer, noreplySuppressor{}, nil, testConfig(), zap.NewNop())

	raw := "From: noreply@zillow.com\r\nSubject: digest\r\n\r\nnothing here\r\n"
	report, err := srv.Process(context.Background(), []byte(raw), nil)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Empty(t, syncer.calls)
}

func TestServerEndToEnd(t *testing.T) {
	syncer := &fakeSyncer{}
	srv := NewServer(syncer, noreplySuppressor{}, nil, testConfig(), zap.NewNop())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	assert.Error(t, srv.Start())

	c, err := smtp.Dial(srv.Addr())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Hello("localhost"))
	require.NoError(t, c.Mail("forwarder@broker.com", nil))
	require.NoError(t, c.Rcpt("leads@broker.com", nil))
	wc, err := c.Data()
	require.NoError(t, err)
	_, err = wc.Write([]byte(leadEmail))
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	require.NoError(t, c.Quit())

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	require.Len(t, syncer.calls, 1)
	assert.Equal(t, "jane.doe@example.com", syncer.calls[0][0].Email)
}
