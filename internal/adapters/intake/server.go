package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/mbox"
	"go.uber.org/zap"
)

// Syncer imports candidates into the CRM
type Syncer interface {
	Sync(ctx context.Context, candidates []core.Candidate, opts core.Options) (*core.Report, error)
}

// Server receives forwarded lead notification emails over SMTP and syncs
// the contacts they carry
type Server struct {
	syncer     Syncer
	suppressor mbox.Suppressor
	notifier   core.Notifier
	logger     *zap.Logger
	cfg        config.IntakeConfig
	allowed    map[string]struct{}

	mu       sync.Mutex
	server   *smtp.Server
	listener net.Listener
}

// NewServer creates a new intake server. notifier may be nil.
func NewServer(
	syncer Syncer,
	suppressor mbox.Suppressor,
	notifier core.Notifier,
	cfg config.IntakeConfig,
	logger *zap.Logger,
) *Server {
	allowed := make(map[string]struct{}, len(cfg.AllowedRecipients))
	for _, r := range cfg.AllowedRecipients {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			allowed[r] = struct{}{}
		}
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 60 * time.Second
	}

	return &Server{
		syncer:     syncer,
		suppressor: suppressor,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
		allowed:    allowed,
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("intake server already started")
	}

	srv := smtp.NewServer(&backend{server: s})
	srv.Addr = s.cfg.ListenAddress
	srv.Domain = s.cfg.Domain
	srv.ReadTimeout = s.cfg.ReadTimeout
	srv.WriteTimeout = s.cfg.WriteTimeout
	srv.MaxMessageBytes = s.cfg.MaxMessageBytes
	srv.MaxRecipients = s.cfg.MaxRecipients
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.server = srv
	s.listener = l

	s.logger.Info("Lead intake starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and every open session
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.server = nil
	s.listener = nil
	return err
}

func (s *Server) recipientAllowed(to string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[strings.ToLower(strings.TrimSpace(to))]
	return ok
}

// Process handles one raw message. Sync failures are logged and reported
// but never returned; only unparseable messages are an error.
func (s *Server) Process(ctx context.Context, raw []byte, recipients []string) (*core.Report, error) {
	msg, err := mbox.ParseMessage(raw)
	if err != nil {
		return nil, err
	}

	candidates := ExtractCandidates(msg, s.suppressor, recipients)
	if len(candidates) == 0 {
		s.logger.Info("No lead found in message",
			zap.String("message_id", msg.MessageID),
			zap.String("subject", msg.Subject))
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SyncTimeout)
	defer cancel()

	report, err := s.syncer.Sync(ctx, candidates, core.Options{
		Source:     "intake",
		Tags:       s.cfg.Tags,
		WorkflowID: s.cfg.WorkflowID,
	})
	if err != nil {
		s.logger.Error("Lead sync interrupted",
			zap.Error(err),
			zap.String("message_id", msg.MessageID))
	}
	if report == nil {
		return nil, nil
	}

	for _, o := range report.Outcomes {
		s.logger.Info("Processed lead",
			zap.String("email", o.Email),
			zap.String("status", string(o.Status)),
			zap.String("contact_id", o.ContactID),
			zap.String("reason", o.Reason),
			zap.String("message_id", msg.MessageID))
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report); err != nil {
			s.logger.Warn("Failed to send intake report", zap.Error(err))
		}
	}

	return report, nil
}

// ExtractCandidates picks the leads out of a notification email: Reply-To
// first, then From, then addresses mentioned in the body. Suppressed
// addresses and the envelope recipients are dropped.
func ExtractCandidates(msg *mbox.Message, suppressor mbox.Suppressor, recipients []string) []core.Candidate {
	exclude := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		exclude[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	var out []core.Candidate
	seen := make(map[string]struct{})
	add := func(addr mbox.Address) {
		email := strings.ToLower(strings.TrimSpace(addr.Email))
		if email == "" {
			return
		}
		if _, ok := seen[email]; ok {
			return
		}
		seen[email] = struct{}{}
		if _, ok := exclude[email]; ok {
			return
		}
		if suppressor != nil && suppressor.IsSuppressed(email) {
			return
		}
		first, last := mbox.SplitName(addr.Name)
		out = append(out, core.Candidate{
			Email:     email,
			Name:      addr.Name,
			FirstName: first,
			LastName:  last,
			Subject:   msg.Subject,
			Body:      msg.Body,
		})
	}

	for _, a := range msg.ReplyTo {
		add(a)
	}
	for _, a := range msg.From {
		add(a)
	}
	for _, email := range mbox.FindEmails(msg.Body) {
		add(mbox.Address{Email: email})
	}

	// A phone number in the body belongs to the primary lead
	if len(out) > 0 {
		out[0].Phone = mbox.FindPhone(msg.Body)
	}
	return out
}

// backend implements the go-smtp Backend interface
type backend struct {
	server *Server
}

// NewSession creates a new SMTP session
func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{server: b.server}, nil
}

// session implements the go-smtp Session interface
type session struct {
	server     *Server
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *session) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	if !s.server.recipientAllowed(to) {
		s.server.logger.Warn("Rejected recipient", zap.String("recipient", to))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Recipient not accepted",
		}
	}
	s.recipients = append(s.recipients, to)
	return nil
}

// Data handles the message body
func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.server.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	if _, err := s.server.Process(context.Background(), raw, s.recipients); err != nil {
		s.server.logger.Warn("Rejected unparseable message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}
	return nil
}

// Logout ends the session
func (s *session) Logout() error {
	return nil
}
