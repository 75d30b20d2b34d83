// Package smtp delivers plain-text email over SMTP.
package smtp

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/st-angelo/webarena-auth/internal/config"
	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/model"
)

var _ model.Notifier = (*Notifier)(nil)

// sender is the part of *mail.Client the notifier needs.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Notifier sends model.Message values through an SMTP relay.
type Notifier struct {
	client sender
	from   string
	logger *logger.Logger
}

// New creates a Notifier for the relay described by cfg. SMTP AUTH is only
// used when a username is configured.
func New(cfg config.Email, logger *logger.Logger) (*Notifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
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
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newWithSender(client, cfg.From, logger), nil
}

func newWithSender(client sender, from string, logger *logger.Logger) *Notifier {
	return &Notifier{
		client: client,
		from:   from,
		logger: logger,
	}
}

// Send builds a plain-text message and delivers it in one SMTP session.
func (n *Notifier) Send(ctx context.Context, msg model.Message) error {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		n.logger.Error("SMTP notifier: failed to send email",
			"subject", msg.Subject,
			"error", err.Error())
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Debug("SMTP notifier: email sent",
		"subject", msg.Subject)

	return nil
}
