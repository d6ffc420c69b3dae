package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned by Send when the SMTP user, password or
// recipients are missing.
var ErrNotConfigured = errors.New("email is not configured")

// defaultSendTimeout bounds one SMTP session.
const defaultSendTimeout = 30 * time.Second

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// From is the sender address. Defaults to User.
	From string

	// To lists the recipients.
	To []string
}

// Configured reports whether the settings are sufficient to send mail.
func (c Config) Configured() bool {
	return c.User != "" && c.Password != "" && len(c.To) > 0
}

// sendFunc delivers a prepared message.
type sendFunc func(ctx context.Context, msg *mail.Msg) error

// Mailer sends Messages over SMTP.
type Mailer struct {
	cfg     Config
	timeout time.Duration
	send    sendFunc
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithTimeout sets the SMTP session timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Mailer) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// withSendFunc replaces SMTP delivery. Used by tests.
func withSendFunc(fn sendFunc) Option {
	return func(m *Mailer) {
		m.send = fn
	}
}

// NewMailer creates a Mailer for cfg.
func NewMailer(cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		cfg:     cfg,
		timeout: defaultSendTimeout,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.send == nil {
		m.send = m.dialAndSend
	}

	return m
}

// Send delivers msg to all recipients.
// It returns ErrNotConfigured without contacting any server when the
// configuration is incomplete.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Configured() {
		return ErrNotConfigured
	}

	mm, err := m.build(msg)
	if err != nil {
		return err
	}

	if err := m.send(ctx, mm); err != nil {
		return fmt.Errorf("failed to send email via %s:%d: %w", m.cfg.Host, m.cfg.Port, err)
	}
	return nil
}

// build converts msg into a multipart/alternative email.
func (m *Mailer) build(msg Message) (*mail.Msg, error) {
	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	mm := mail.NewMsg()
	if err := mm.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	if err := mm.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	return mm, nil
}

// dialAndSend delivers mm with STARTTLS and PLAIN authentication.
func (m *Mailer) dialAndSend(ctx context.Context, mm *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, mm)
}
