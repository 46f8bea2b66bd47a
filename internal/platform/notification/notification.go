// Package notification renders email templates and tracks outbound messages
// in an in-memory outbox with retry support. Delivery is pluggable through
// the EmailSender interface; the default sender only logs.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EmailSender delivers a rendered email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Email is a single outbound message tracked by the outbox.
type Email struct {
	ID           string            `json:"id"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable email template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages email templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "newsletter-confirm",
			Name:    "Newsletter Confirmation",
			Subject: "Confirm your KidsGourmet subscription",
			Body:    "Hi, please confirm your subscription by visiting {{confirm_link}}. The link is valid for this address: {{email}}.",
		},
		{
			ID:      "newsletter-welcome",
			Name:    "Newsletter Welcome",
			Subject: "Welcome to the KidsGourmet newsletter",
			Body:    "Your subscription for {{email}} is confirmed. You can unsubscribe at any time via {{unsubscribe_link}}.",
		},
		{
			ID:      "vaccine-reminder",
			Name:    "Vaccine Reminder",
			Subject: "Upcoming vaccine for {{child_name}}",
			Body:    "Hi {{parent_name}}, {{child_name}} has {{vaccine_name}} scheduled for {{date}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from data
// are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Senders
// ---------------------------------------------------------------------------

// LogSender writes emails to the log instead of delivering them. The default
// in development and tests.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_len", len(body)).
		Msg("email (log-only sender)")
	return nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------------

// Outbox sends emails and keeps an in-memory record of every attempt.
type Outbox struct {
	sender    EmailSender
	templates *TemplateEngine
	mu        sync.RWMutex
	emails    map[string]*Email
}

func NewOutbox(sender EmailSender, tpl *TemplateEngine) *Outbox {
	return &Outbox{
		sender:    sender,
		templates: tpl,
		emails:    make(map[string]*Email),
	}
}

// Send dispatches an email, assigns an ID and timestamps, and records the
// result.
func (o *Outbox) Send(ctx context.Context, e *Email) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()
	e.Status = "pending"

	sendErr := o.sender.SendEmail(ctx, e.Recipient, e.Subject, e.Body)
	if sendErr != nil {
		e.Status = "failed"
		e.Error = sendErr.Error()
	} else {
		e.Status = "sent"
		sentAt := time.Now().UTC()
		e.SentAt = &sentAt
	}

	o.mu.Lock()
	o.emails[e.ID] = e
	o.mu.Unlock()

	return sendErr
}

// SendFromTemplate renders a template and sends the resulting email.
func (o *Outbox) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Email, error) {
	subject, body, err := o.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	e := &Email{
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}

	if err := o.Send(ctx, e); err != nil {
		return e, err
	}
	return e, nil
}

// Get retrieves a recorded email by ID.
func (o *Outbox) Get(id string) (*Email, error) {
	o.mu.RLock()
	e, ok := o.emails[id]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("email %q not found", id)
	}
	return e, nil
}

// Retry re-sends a failed email. Returns an error if the email is not in
// "failed" status.
func (o *Outbox) Retry(ctx context.Context, id string) error {
	o.mu.RLock()
	e, ok := o.emails[id]
	o.mu.RUnlock()
	if !ok {
		return fmt.Errorf("email %q not found", id)
	}
	if e.Status != "failed" {
		return fmt.Errorf("email %q is not in failed status (current: %s)", id, e.Status)
	}

	sendErr := o.sender.SendEmail(ctx, e.Recipient, e.Subject, e.Body)

	o.mu.Lock()
	if sendErr != nil {
		e.Status = "failed"
		e.Error = sendErr.Error()
	} else {
		e.Status = "sent"
		sentAt := time.Now().UTC()
		e.SentAt = &sentAt
		e.Error = ""
	}
	o.mu.Unlock()

	return sendErr
}

// Stats returns counts of recorded emails grouped by status.
func (o *Outbox) Stats() map[string]int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := make(map[string]int)
	for _, e := range o.emails {
		stats[e.Status]++
	}
	return stats
}
