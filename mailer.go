package authkit

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
)

// Notifier renders and delivers the emails the auth flows produce. The
// rendering is done here; delivery goes through the injected Mailer.
type Notifier struct {
	mailer Mailer
	engine *django.Engine
	logger Logger
}

// NotifierOption customizes notifier construction.
type NotifierOption func(*Notifier)

// WithNotifierLogger overrides the logger.
func WithNotifierLogger(logger Logger) NotifierOption {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier builds a notifier over the embedded email templates.
func NewNotifier(mailer Mailer, opts ...NotifierOption) (*Notifier, error) {
	engine := django.NewFileSystem(http.FS(GetTemplatesFS()), ".html")
	if err := engine.Load(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load email templates")
	}

	n := &Notifier{
		mailer: mailer,
		engine: engine,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	return n, nil
}

func (n *Notifier) render(name string, binding map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := n.engine.Render(&buf, name, binding); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to render email template").
			WithMetadata(map[string]any{"template": name})
	}
	return buf.String(), nil
}

func (n *Notifier) send(ctx context.Context, to, subject, body string) error {
	if n.mailer == nil {
		n.logger.Warn("no mailer configured, dropping email to %s (%s)", to, subject)
		return nil
	}
	return n.mailer.Send(ctx, to, subject, body)
}

// SendOTP delivers a one-time code.
func (n *Notifier) SendOTP(ctx context.Context, to, code string, purpose OTPPurpose, ttl time.Duration) error {
	body, err := n.render("emails/otp", map[string]any{
		"code":    code,
		"purpose": string(purpose),
		"minutes": int(ttl / time.Minute),
	})
	if err != nil {
		return err
	}
	return n.send(ctx, to, "Your verification code", body)
}

// SendApplicationNotification tells one admin about a new engineer
// application. The approve/reject URLs are personal to this admin; each
// embeds an action token addressed to them.
func (n *Notifier) SendApplicationNotification(ctx context.Context, admin *User, app *EngineerApplication, approveURL, rejectURL string) error {
	applicant := app.User
	if applicant == nil {
		applicant = &User{}
	}

	body, err := n.render("emails/application_review", map[string]any{
		"admin_name":      admin.FullName(),
		"applicant_name":  applicant.FullName(),
		"applicant_email": applicant.Email,
		"department":      app.Department,
		"experience":      app.Experience,
		"cover_letter":    app.CoverLetter,
		"approve_url":     approveURL,
		"reject_url":      rejectURL,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Engineer application from %s", applicant.Email)
	return n.send(ctx, admin.Email, subject, body)
}

// SendApplicationDecision tells the applicant how their review went.
func (n *Notifier) SendApplicationDecision(ctx context.Context, applicant *User, approved bool) error {
	template := "emails/application_rejected"
	subject := "Your engineer application"
	if approved {
		template = "emails/application_approved"
		subject = "Your engineer application was approved"
	}

	body, err := n.render(template, map[string]any{
		"name": applicant.FullName(),
	})
	if err != nil {
		return err
	}

	return n.send(ctx, applicant.Email, subject, body)
}

// LogMailer is a Mailer that only logs. Useful default for development and
// tests so flows never fail on a missing SMTP transport.
type LogMailer struct {
	Logger Logger
}

// Send implements Mailer.
func (m LogMailer) Send(_ context.Context, to, subject, _ string) error {
	logger := m.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("email to=%s subject=%q", to, subject)
	return nil
}

var _ Mailer = LogMailer{}
