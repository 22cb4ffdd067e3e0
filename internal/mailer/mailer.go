// Package mailer delivers interview invitations.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
)

//go:embed templates/*
var templateFiles embed.FS

var (
	textTemplate = template.Must(template.ParseFS(templateFiles, "templates/invitation.txt"))
	htmlTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFiles, "templates/invitation.html"))
)

// Invitation is everything a candidate needs to open their interview
type Invitation struct {
	RecipientEmail  string
	RecipientName   string
	InterviewURL    string
	JobTitle        string
	DurationMinutes int
	ExpiresAt       time.Time
}

// Sender delivers invitations
type Sender interface {
	Send(ctx context.Context, inv Invitation) error
}

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends invitations through an SMTP relay
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send renders and delivers one invitation
func (s *SMTPSender) Send(ctx context.Context, inv Invitation) error {
	msg, err := buildMessage(s.cfg.From, inv)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send invitation to %s: %w", inv.RecipientEmail, err)
	}

	slog.Info("invitation sent", "to", inv.RecipientEmail)
	return nil
}

func buildMessage(from string, inv Invitation) (*mail.Msg, error) {
	text, html, err := Render(inv)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.AddToFormat(inv.RecipientName, inv.RecipientEmail); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(Subject(inv))
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	return msg, nil
}

// Subject returns the invitation subject line
func Subject(inv Invitation) string {
	return fmt.Sprintf("Interview invitation: %s", inv.JobTitle)
}

// Render returns the plain text and HTML bodies
func Render(inv Invitation) (string, string, error) {
	var text, html bytes.Buffer
	if err := textTemplate.Execute(&text, inv); err != nil {
		return "", "", fmt.Errorf("failed to render invitation: %w", err)
	}
	if err := htmlTemplate.Execute(&html, inv); err != nil {
		return "", "", fmt.Errorf("failed to render invitation: %w", err)
	}
	return text.String(), html.String(), nil
}

// LogSender writes invitations to the log instead of sending them. Used when SMTP is not configured.
type LogSender struct{}

// Send logs the invitation
func (LogSender) Send(_ context.Context, inv Invitation) error {
	if strings.TrimSpace(inv.RecipientEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}
	slog.Info("invitation (smtp disabled)",
		"to", inv.RecipientEmail,
		"name", inv.RecipientName,
		"job_title", inv.JobTitle,
		"url", inv.InterviewURL,
	)
	return nil
}
