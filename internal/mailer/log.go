package mailer

import (
	"context"
	"log/slog"

	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/logger"
)

// Ensure LogMailer implements Mailer interface.
var _ Mailer = (*LogMailer)(nil)

// Used when no SMTP server is configured. The failure still shows up in the logs.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{logger: logger.For("mailer")}
}

func (m *LogMailer) FallbackEmail(ctx context.Context, f Fallback) error {
	body, err := Body(f)
	if err != nil {
		return err
	}

	m.logger.WarnContext(ctx, Subject(f), slog.String("body", body))
	return nil
}

// SMTP mailer when a server and recipients are configured, log mailer otherwise
func FromConfig(cfg *config.SMTPConfig) Mailer {
	if cfg == nil || cfg.Host == "" || len(cfg.To) == 0 {
		return NewLogMailer()
	}

	m, err := NewSMTPMailer(cfg)
	if err != nil {
		logger.For("mailer").Error("falling back to log mailer", slog.Any("error", err))
		return NewLogMailer()
	}

	return m
}
