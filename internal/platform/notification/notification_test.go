package notification

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTemplateEngine_Render(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render(TemplateAppointmentReminder, map[string]string{
		"patient_name": "Ayesha",
		"clinic_name":  "City Clinic",
		"date":         "2024-06-02",
		"time":         "09:30",
		"doctor_name":  "Dr. Khan",
		"token_number": "4",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Appointment reminder: City Clinic" {
		t.Errorf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Dear Ayesha") || !strings.Contains(body, "token number is 4") {
		t.Errorf("unexpected body %q", body)
	}
}

func TestTemplateEngine_MissingKeysKept(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render(TemplateDailySummary, map[string]string{"clinic_name": "A"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "{{appointments}}") {
		t.Errorf("expected unknown placeholder to be kept, got %q", body)
	}
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	if _, _, err := NewTemplateEngine().Render("nope", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestManager_SendFromTemplate(t *testing.T) {
	rec := &RecordingSender{}
	m := NewManager(rec, NewTemplateEngine())

	n, err := m.SendFromTemplate(context.Background(), TemplateAppointmentReminder, ChannelSMS, "+923001234567",
		map[string]string{"patient_name": "Ayesha"})
	if err != nil {
		t.Fatalf("SendFromTemplate: %v", err)
	}
	if n.ID == "" || n.Subject != "" {
		t.Errorf("sms should have an id and no subject: %+v", n)
	}
	sent := rec.Sent()
	if len(sent) != 1 || sent[0].Recipient != "+923001234567" {
		t.Fatalf("unexpected sent %+v", sent)
	}

	n, err = m.SendFromTemplate(context.Background(), TemplateAppointmentReminder, ChannelEmail, "a@b.c", nil)
	if err != nil {
		t.Fatalf("SendFromTemplate email: %v", err)
	}
	if n.Subject == "" {
		t.Error("email should carry a subject")
	}
}

func TestManager_Errors(t *testing.T) {
	rec := &RecordingSender{Err: errors.New("broker down")}
	m := NewManager(rec, NewTemplateEngine())

	if _, err := m.SendFromTemplate(context.Background(), TemplateDailySummary, ChannelEmail, "", nil); err == nil {
		t.Error("expected error for empty recipient")
	}
	if _, err := m.SendFromTemplate(context.Background(), TemplateDailySummary, ChannelEmail, "a@b.c", nil); err == nil {
		t.Error("expected sender error to propagate")
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zerolog.New(io.Discard))
	if err := s.Send(context.Background(), &Notification{ID: "1"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

var (
	_ Sender = (*AMQPSender)(nil)
	_ Sender = (*LogSender)(nil)
	_ Sender = (*RecordingSender)(nil)
)
