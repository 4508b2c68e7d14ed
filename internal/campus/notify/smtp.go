package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Configured reports whether enough is set to attempt delivery.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPMailer sends through an SMTP relay using gomail.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
	logger *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		logger: logger,
	}
}

func (m *SMTPMailer) build(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	if msg.ToName != "" {
		gm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	for _, att := range msg.Inline {
		data := att.Data
		gm.Embed(att.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {att.ContentType}}),
		)
	}
	return gm
}

// Send dials, delivers and hangs up. gomail has no context support, so a
// cancelled ctx returns early while the dial finishes in the background.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	gm := m.build(msg)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(gm) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		m.logger.Info("email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}

// LogMailer writes messages to the log instead of sending them. Used when
// SMTP is not configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.Logger.InfoContext(ctx, "email (not sent, smtp unconfigured)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("summary", msg.Summary),
		slog.Int("inline", len(msg.Inline)))
	return nil
}

// NewMailer picks SMTP when configured, otherwise logs.
func NewMailer(cfg SMTPConfig, logger *slog.Logger) Mailer {
	if cfg.Configured() {
		return NewSMTPMailer(cfg, logger)
	}
	logger.Warn("smtp not configured, emails will be logged only")
	return &LogMailer{Logger: logger}
}
