package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/cache"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

type revenueCall struct {
	clinicID uuid.UUID
	from, to time.Time
}

type fakeRepo struct {
	clinics   []ClinicInfo
	counts    map[string]Counts
	revenue   map[uuid.UUID]float64
	scheduled map[string][]*Reminder
	revCalls  []revenueCall
}

func dayKey(clinicID uuid.UUID, date string) string { return clinicID.String() + "/" + date }

func (f *fakeRepo) ListClinics(context.Context) ([]ClinicInfo, error) {
	out := make([]ClinicInfo, len(f.clinics))
	copy(out, f.clinics)
	return out, nil
}

func (f *fakeRepo) AppointmentCounts(_ context.Context, clinicID uuid.UUID, date string) (Counts, error) {
	return f.counts[dayKey(clinicID, date)], nil
}

func (f *fakeRepo) PaidRevenue(_ context.Context, clinicID uuid.UUID, from, to time.Time) (float64, error) {
	f.revCalls = append(f.revCalls, revenueCall{clinicID, from, to})
	return f.revenue[clinicID], nil
}

func (f *fakeRepo) ScheduledOn(_ context.Context, clinicID uuid.UUID, date string) ([]*Reminder, error) {
	var out []*Reminder
	for _, r := range f.scheduled[dayKey(clinicID, date)] {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

type fakeLocator map[uuid.UUID]*time.Location

func (f fakeLocator) Location(_ context.Context, id uuid.UUID) (*time.Location, error) {
	if loc, ok := f[id]; ok {
		return loc, nil
	}
	return time.UTC, nil
}

type fakeSubs map[uuid.UUID]bool

func (f fakeSubs) Serviceable(_ context.Context, id uuid.UUID) (bool, error) {
	ok, known := f[id]
	return ok || !known, nil
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	sender  *notification.RecordingSender
	archive *blobstore.MemoryStore
	karachi *time.Location
	khi     uuid.UUID
	utc     uuid.UUID
	expired uuid.UUID
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	karachi, err := time.LoadLocation("Asia/Karachi")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	f := &fixture{
		sender:  &notification.RecordingSender{},
		archive: blobstore.NewMemoryStore(),
		karachi: karachi,
		khi:     uuid.New(),
		utc:     uuid.New(),
		expired: uuid.New(),
	}
	f.repo = &fakeRepo{
		clinics: []ClinicInfo{
			{ID: f.khi, Name: "Karachi Clinic", Timezone: "Asia/Karachi", OwnerEmail: strPtr("owner@khi.example")},
			{ID: f.utc, Name: "London Clinic", Timezone: "UTC"},
			{ID: f.expired, Name: "Lapsed Clinic", Timezone: "UTC", OwnerEmail: strPtr("owner@lapsed.example")},
		},
		counts:    map[string]Counts{},
		revenue:   map[uuid.UUID]float64{},
		scheduled: map[string][]*Reminder{},
	}
	manager := notification.NewManager(f.sender, notification.NewTemplateEngine())
	f.svc = NewService(f.repo, fakeLocator{f.khi: karachi}, fakeSubs{f.expired: false},
		manager, cache.NewMemory(), f.archive, zerolog.Nop())
	// 01:00 on 2024-06-02 in Karachi, still 2024-06-01 in UTC.
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC) }
	return f
}

func TestDashboard_UsesClinicDay(t *testing.T) {
	f := newFixture(t)
	f.repo.counts[dayKey(f.khi, "2024-06-02")] = Counts{Total: 7, Completed: 4, NoShows: 1}
	f.repo.revenue[f.khi] = 4500

	d, err := f.svc.Dashboard(context.Background(), f.khi)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Date != "2024-06-02" || d.TotalAppointments != 7 || d.Completed != 4 || d.NoShows != 1 || d.Revenue != 4500 {
		t.Errorf("unexpected dashboard %+v", d)
	}
	call := f.repo.revCalls[0]
	wantFrom := time.Date(2024, 6, 2, 0, 0, 0, 0, f.karachi)
	if !call.from.Equal(wantFrom) || !call.to.Equal(wantFrom.AddDate(0, 0, 1)) {
		t.Errorf("unexpected revenue window %s - %s", call.from, call.to)
	}
}

func TestSendReminders(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2024, 6, 3, 4, 30, 0, 0, time.UTC)
	f.repo.scheduled[dayKey(f.khi, "2024-06-03")] = []*Reminder{
		{AppointmentID: uuid.New(), ClinicID: f.khi, DoctorName: "Dr. Sana", PatientName: "Ali",
			PatientPhone: "+923001234567", PatientEmail: strPtr("ali@example.com"), Date: "2024-06-03", StartTime: start, TokenNumber: 3},
	}
	f.repo.scheduled[dayKey(f.utc, "2024-06-02")] = []*Reminder{
		{AppointmentID: uuid.New(), ClinicID: f.utc, DoctorName: "Dr. Reed", PatientName: "Beth",
			PatientPhone: "+447700900000", Date: "2024-06-02", StartTime: time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC), TokenNumber: 1},
	}
	f.repo.scheduled[dayKey(f.expired, "2024-06-02")] = []*Reminder{
		{AppointmentID: uuid.New(), ClinicID: f.expired, PatientName: "Skipped", PatientPhone: "1"},
	}

	run, err := f.svc.SendReminders(context.Background())
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if !run.Success || run.RemindersSent != 2 {
		t.Fatalf("expected 2 reminders, got %+v", run)
	}
	if got := run.Reminders[0].Channels; len(got) != 2 {
		t.Errorf("expected sms and email, got %v", got)
	}
	if got := run.Reminders[1].Channels; len(got) != 1 || got[0] != "sms" {
		t.Errorf("expected sms only, got %v", got)
	}

	sent := f.sender.Sent()
	if len(sent) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(sent))
	}
	want := "Dear Ali, this is a reminder of your appointment at Karachi Clinic on 2024-06-03 at 09:30 with Dr. Sana. Your token number is 3."
	if sent[0].Body != want {
		t.Errorf("unexpected body %q", sent[0].Body)
	}

	again, err := f.svc.SendReminders(context.Background())
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if again.RemindersSent != 0 || len(f.sender.Sent()) != 3 {
		t.Errorf("expected no repeat reminders, got %d", again.RemindersSent)
	}
}

func TestSendReminders_SMSFailureAllowsRetry(t *testing.T) {
	f := newFixture(t)
	f.repo.scheduled[dayKey(f.utc, "2024-06-02")] = []*Reminder{
		{AppointmentID: uuid.New(), ClinicID: f.utc, PatientName: "Beth", PatientPhone: "+447700900000", Date: "2024-06-02"},
	}
	f.sender.Err = errors.New("queue down")
	run, err := f.svc.SendReminders(context.Background())
	if err != nil {
		t.Fatalf("SendReminders: %v", err)
	}
	if run.RemindersSent != 0 {
		t.Errorf("expected nothing sent, got %d", run.RemindersSent)
	}

	f.sender.Err = nil
	run, _ = f.svc.SendReminders(context.Background())
	if run.RemindersSent != 1 {
		t.Errorf("expected retry to send, got %d", run.RemindersSent)
	}
}

func TestDailySummaries(t *testing.T) {
	f := newFixture(t)
	f.repo.counts[dayKey(f.khi, "2024-06-01")] = Counts{Total: 12}
	f.repo.counts[dayKey(f.utc, "2024-05-31")] = Counts{Total: 5}
	f.repo.revenue[f.khi] = 1234.5

	run, err := f.svc.DailySummaries(context.Background())
	if err != nil {
		t.Fatalf("DailySummaries: %v", err)
	}
	if run.Date != "2024-05-31" || len(run.Summaries) != 2 {
		t.Fatalf("unexpected run %+v", run)
	}
	khi := run.Summaries[0]
	if khi.Date != "2024-06-01" || khi.Appointments != 12 || khi.Revenue != 1234.5 {
		t.Errorf("unexpected summary %+v", khi)
	}

	raw, err := f.archive.Get(context.Background(), "daily-summary/2024-06-01/"+f.khi.String()+".json")
	if err != nil {
		t.Fatalf("expected archived summary: %v", err)
	}
	var stored DailySummary
	if err := json.Unmarshal(raw, &stored); err != nil || stored.Appointments != 12 {
		t.Errorf("unexpected archive %s (%v)", raw, err)
	}
	if keys := f.archive.Keys("daily-summary/"); len(keys) != 2 {
		t.Errorf("expected 2 archived summaries, got %v", keys)
	}

	sent := f.sender.Sent()
	if len(sent) != 1 || sent[0].Recipient != "owner@khi.example" || sent[0].Subject != "Karachi Clinic summary for 2024-06-01" {
		t.Errorf("unexpected owner emails %+v", sent)
	}
}
