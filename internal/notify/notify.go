// Package notify delivers finished summaries to people.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/synopsis/internal/config"
	"github.com/hyperjump/synopsis/internal/models"
)

// ErrNoRecipients is returned when a summary is sent to nobody.
var ErrNoRecipients = errors.New("no recipients")

// Notifier sends a summary to a list of addresses.
type Notifier interface {
	NotifySummary(ctx context.Context, summary *models.Summary, to []string) error
}

// NoOpNotifier drops every summary. It is used when mail is disabled.
type NoOpNotifier struct{}

// NotifySummary does nothing.
func (NoOpNotifier) NotifySummary(context.Context, *models.Summary, []string) error {
	return nil
}

// MailNotifier sends summaries over SMTP. Port 465 uses implicit TLS;
// any other port tries STARTTLS when the server offers it.
type MailNotifier struct {
	cfg    config.MailConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewMailNotifier returns a notifier for cfg. A nil logger is replaced by a no-op logger.
func NewMailNotifier(cfg config.MailConfig, logger *zap.Logger) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailNotifier{cfg: cfg, logger: logger, now: time.Now}
}

// New returns a MailNotifier when mail is enabled and a NoOpNotifier otherwise.
func New(cfg config.MailConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return NoOpNotifier{}
	}
	return NewMailNotifier(cfg, logger)
}

// NotifySummary mails summary to the given addresses, or to the configured
// default recipients when to is empty.
func (m *MailNotifier) NotifySummary(ctx context.Context, summary *models.Summary, to []string) error {
	if len(to) == 0 {
		to = m.cfg.To
	}
	if len(to) == 0 {
		return ErrNoRecipients
	}
	msg := BuildMessage(m.cfg.From, to, m.cfg.Subject, summary, m.now())
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	done := make(chan error, 1)
	go func() { done <- m.send(addr, to, msg) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
	}
	m.logger.Info("summary mailed", zap.Strings("to", to), zap.String("id", summary.ID))
	return nil
}

func (m *MailNotifier) send(addr string, to []string, msg []byte) error {
	tlsCfg := &tls.Config{ServerName: m.cfg.Host}
	var (
		conn net.Conn
		err  error
	)
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	if m.cfg.Port == 465 {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if m.cfg.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsCfg); err != nil {
				return err
			}
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// BuildMessage renders an RFC 5322 plain-text message carrying summary.
func BuildMessage(from string, to []string, subject string, summary *models.Summary, at time.Time) []byte {
	if subject == "" {
		subject = "Your summary"
	}
	if summary.Source != "" {
		subject = fmt.Sprintf("%s: %s", subject, summary.Source)
	}
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + headerSafe(subject) + "\r\n")
	b.WriteString("Date: " + at.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	for _, line := range strings.Split(summary.Text, "\n") {
		b.WriteString(line + "\r\n")
	}
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "%d of %d sentences kept (ratio %.2f).\r\n", len(summary.Sentences), summary.SentenceCount, summary.Ratio)
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
