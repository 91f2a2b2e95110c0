// Package mail renders and delivers the service's outgoing email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// VerificationData fills the verification email template.
type VerificationData struct {
	AppName   string
	Username  string
	Link      string
	ExpiresIn string
}

// RenderVerification returns the subject and HTML body of a verification
// email.
func RenderVerification(d VerificationData) (string, string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "verification.html", d); err != nil {
		return "", "", fmt.Errorf("render verification email: %w", err)
	}
	return fmt.Sprintf("Verify your %s account", d.AppName), buf.String(), nil
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

// Send dials the relay and delivers one HTML message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer { return &LogMailer{log: log} }

func (m *LogMailer) Send(_ context.Context, to, subject, html string) error {
	m.log.Info("mail not delivered: smtp disabled",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(html)),
	)
	return nil
}
