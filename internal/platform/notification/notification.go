// Package notification renders patient and staff messages from templates and
// hands them to a delivery channel.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is one outbound message.
type Notification struct {
	ID           string            `json:"id"`
	Channel      Channel           `json:"channel"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Sender delivers or enqueues a rendered notification.
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}

type Template struct {
	ID      string
	Subject string
	Body    string
}

type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

const (
	TemplateAppointmentReminder = "appointment-reminder"
	TemplateDailySummary        = "daily-summary"
)

func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.RegisterTemplate(Template{
		ID:      TemplateAppointmentReminder,
		Subject: "Appointment reminder: {{clinic_name}}",
		Body: "Dear {{patient_name}}, this is a reminder of your appointment at {{clinic_name}} " +
			"on {{date}} at {{time}} with {{doctor_name}}. Your token number is {{token_number}}.",
	})
	e.RegisterTemplate(Template{
		ID:      TemplateDailySummary,
		Subject: "{{clinic_name}} summary for {{date}}",
		Body:    "{{clinic_name}} on {{date}}: {{appointments}} appointments, revenue {{revenue}}.",
	})
	return e
}

func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render replaces {{key}} placeholders with data. Unknown placeholders are
// left in place.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(t.Subject), r.Replace(t.Body), nil
}

type Manager struct {
	sender    Sender
	templates *TemplateEngine
	now       func() time.Time
}

func NewManager(sender Sender, templates *TemplateEngine) *Manager {
	return &Manager{sender: sender, templates: templates, now: time.Now}
}

// SendFromTemplate renders templateID with data and sends it to recipient
// over channel.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, channel Channel, recipient string, data map[string]string) (*Notification, error) {
	if recipient == "" {
		return nil, fmt.Errorf("notification %s: empty recipient", templateID)
	}
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		ID:           uuid.NewString(),
		Channel:      channel,
		Recipient:    recipient,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
		CreatedAt:    m.now().UTC(),
	}
	if channel == ChannelEmail {
		n.Subject = subject
	}

	if err := m.sender.Send(ctx, n); err != nil {
		return n, fmt.Errorf("send %s notification: %w", channel, err)
	}
	return n, nil
}
