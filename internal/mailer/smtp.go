package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/internal/config"
)

// Ensure SMTPMailer implements Mailer interface.
var _ Mailer = (*SMTPMailer)(nil)

type sendFunc func(ctx context.Context, msg *mail.Msg) error

type SMTPMailer struct {
	send sendFunc
	now  func() time.Time
	from string
	to   []string
}

func NewSMTPMailer(cfg *config.SMTPConfig) (*SMTPMailer, error) {
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
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		now:  time.Now,
		from: cfg.From,
		to:   cfg.To,
	}, nil
}

func (m *SMTPMailer) message(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(m.to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(m.now().UTC())
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

func (m *SMTPMailer) FallbackEmail(ctx context.Context, f Fallback) error {
	ctx, span := tracer.Start(ctx, "SMTPMailer.FallbackEmail", trace.WithAttributes(
		attribute.String("formID", f.FormID),
		attribute.String("integration", f.Integration),
		attribute.Int("recipients", len(m.to)),
	))
	defer span.End()

	body, err := Body(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render body")
		return err
	}

	msg, err := m.message(Subject(f), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build message")
		return err
	}

	if err = m.send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send mail")
		return fmt.Errorf("failed to send fallback email: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "sent fallback email")
	return nil
}
