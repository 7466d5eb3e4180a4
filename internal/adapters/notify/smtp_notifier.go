package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/jordan-wright/email"
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/report"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// SMTPNotifier emails a plain-text summary of each sync report
type SMTPNotifier struct {
	cfg       config.NotifyConfig
	sender    string
	tlsConfig *tls.Config
	logger    *zap.Logger
}

// NewSMTPNotifier creates a new SMTP report notifier
func NewSMTPNotifier(cfg config.NotifyConfig, logger *zap.Logger) (*SMTPNotifier, error) {
	if cfg.SMTPAddress == "" {
		return nil, errors.New("notify.smtp_address is required")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("notify.to is required")
	}
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid notify.from address: %w", err)
	}

	host, _, err := net.SplitHostPort(cfg.SMTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid notify.smtp_address: %w", err)
	}

	return &SMTPNotifier{
		cfg:       cfg,
		sender:    from.Address,
		tlsConfig: &tls.Config{ServerName: host},
		logger:    logger,
	}, nil
}

// Compose builds the report message
func (n *SMTPNotifier) Compose(r *core.Report) ([]byte, error) {
	msg := email.NewEmail()
	msg.From = n.cfg.From
	msg.To = n.cfg.To
	msg.Subject = strings.TrimSpace(fmt.Sprintf("%s %s: %s", n.cfg.SubjectPrefix, r.Source, report.CountsLine(r)))
	msg.Text = []byte(report.Summary(r))

	data, err := msg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to compose report email: %w", err)
	}
	return data, nil
}

// Notify sends the report summary to every configured recipient
func (n *SMTPNotifier) Notify(ctx context.Context, r *core.Report) error {
	data, err := n.Compose(r)
	if err != nil {
		return err
	}
	if err := n.send(ctx, data); err != nil {
		return err
	}

	n.logger.Debug("Sent report email",
		zap.String("source", r.Source),
		zap.Strings("to", n.cfg.To))
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, data []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", n.cfg.SMTPAddress)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	// The client resets conn deadlines per command, so the context bounds the whole exchange
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := n.newClient(conn)
	if err != nil {
		return err
	}
	defer c.Close()

	if n.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("SMTP server does not support AUTH")
		}
		if err := c.Auth(sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := c.Mail(n.sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, to := range n.cfg.To {
		if err := c.Rcpt(to, nil); err != nil {
			return fmt.Errorf("RCPT TO %s failed: %w", to, err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

func (n *SMTPNotifier) newClient(conn net.Conn) (*smtp.Client, error) {
	if n.cfg.StartTLS {
		// Greets with EHLO before upgrading and closes conn on failure
		c, err := smtp.NewClientStartTLS(conn, n.tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
		return c, nil
	}

	c := smtp.NewClient(conn)
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		c.Close()
		return nil, fmt.Errorf("EHLO failed: %w", err)
	}
	return c, nil
}
