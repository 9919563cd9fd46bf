package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"SlicerQC/internal/ports"
)

const defaultPort = 587

// SendFunc delivers a rendered message through the relay described by cfg.
type SendFunc func(ctx context.Context, cfg Config, msg *mail.Msg) error

// Config describes the SMTP relay and the fixed recipient.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Notifier e-mails alerts to a fixed address.
type Notifier struct {
	cfg  Config
	send SendFunc
	now  func() time.Time
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier dials the relay with go-mail unless send is provided. An empty
// From falls back to Username.
func NewNotifier(cfg Config, send SendFunc) *Notifier {
	if send == nil {
		send = DialAndSend
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	return &Notifier{cfg: cfg, send: send, now: time.Now}
}

func (n *Notifier) Name() string {
	return "email"
}

// Publish sends one plain-text message.
func (n *Notifier) Publish(ctx context.Context, subject, body string) error {
	if n.cfg.Host == "" || n.cfg.From == "" || n.cfg.To == "" {
		return fmt.Errorf("email notifier misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := BuildMessage(n.cfg.From, n.cfg.To, subject, body, n.now())
	if err != nil {
		return err
	}
	if err := n.send(ctx, n.cfg, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", n.cfg.To, err)
	}
	return nil
}

// BuildMessage renders a UTF-8 plain-text message.
func BuildMessage(from, to, subject, body string, at time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(at)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// DialAndSend opens an SMTP session, upgrading to TLS when the relay offers
// it, and honours ctx for the whole exchange.
func DialAndSend(ctx context.Context, cfg Config, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
