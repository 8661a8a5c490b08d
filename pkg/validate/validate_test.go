package validate

import (
	"errors"
	"testing"

	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type sample struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"min=8"`
	StartTime string `json:"start_time" validate:"hhmm"`
	Date      string `json:"date" validate:"omitempty,isodate"`
	Timezone  string `json:"timezone" validate:"omitempty,timezone"`
	VisitType string `json:"visit_type" validate:"omitempty,oneof=NEW FOLLOW_UP"`
}

func valid() sample {
	return sample{
		Name:      "Dr. Sana",
		Password:  "longenough",
		StartTime: "09:30",
		Date:      "2024-06-01",
		Timezone:  "Asia/Karachi",
		VisitType: "NEW",
	}
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_FieldDetails(t *testing.T) {
	s := valid()
	s.Name = ""
	s.Password = "short"
	err := Struct(s)
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
	var ae *apperr.Error
	errors.As(err, &ae)
	if len(ae.Details) != 2 {
		t.Fatalf("expected 2 details, got %v", ae.Details)
	}
	if ae.Details[0] != "name: is required" {
		t.Errorf("unexpected detail %q", ae.Details[0])
	}
	if ae.Details[1] != "password: must be at least 8 characters" {
		t.Errorf("unexpected detail %q", ae.Details[1])
	}
}

func TestStruct_CustomTags(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sample)
	}{
		{"bad hour", func(s *sample) { s.StartTime = "24:00" }},
		{"bad minutes", func(s *sample) { s.StartTime = "9:5" }},
		{"bad date", func(s *sample) { s.Date = "01/06/2024" }},
		{"bad timezone", func(s *sample) { s.Timezone = "Mars/Olympus" }},
		{"bad visit type", func(s *sample) { s.VisitType = "WALK_IN" }},
		{"bad email", func(s *sample) { s.Email = "nope" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			if err := Struct(s); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestVar(t *testing.T) {
	if err := Var("email", "a@example.com", "email"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Var("email", "nope", "email")
	var ae *apperr.Error
	if !errors.As(err, &ae) || len(ae.Details) != 1 || ae.Details[0] != "email: must be a valid email" {
		t.Fatalf("unexpected error %v", err)
	}
}
