package notification

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier sends messages as HTML email.
type SMTPNotifier struct {
	from   string
	client mailSender
}

// NewSMTPNotifier builds a notifier backed by an SMTP client.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
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
		return nil, oops.Code("SMTP_CLIENT_INIT_FAILED").With("host", cfg.Host).Wrap(err)
	}
	return &SMTPNotifier{from: cfg.From, client: client}, nil
}

// Send builds and delivers the message.
func (n *SMTPNotifier) Send(ctx context.Context, message Message) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return oops.Code("SMTP_INVALID_FROM").With("from", n.from).Wrap(err)
	}
	if err := msg.To(message.Destination); err != nil {
		return oops.Code("SMTP_INVALID_RECIPIENT").Wrap(err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.Body)
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}
