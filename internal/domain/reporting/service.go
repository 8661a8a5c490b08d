package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/cache"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

const reminderMarkerTTL = 48 * time.Hour

type ClinicLocator interface {
	Location(ctx context.Context, clinicID uuid.UUID) (*time.Location, error)
}

// ServiceabilityChecker reports whether scheduled jobs still run for a
// clinic.
type ServiceabilityChecker interface {
	Serviceable(ctx context.Context, clinicID uuid.UUID) (bool, error)
}

type Service struct {
	repo     Repository
	clinics  ClinicLocator
	subs     ServiceabilityChecker
	notifier *notification.Manager
	markers  cache.Cache
	archive  blobstore.Store
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService wires reporting. archive may be nil, in which case daily
// summaries are not stored.
func NewService(repo Repository, clinics ClinicLocator, subs ServiceabilityChecker, notifier *notification.Manager,
	markers cache.Cache, archive blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		clinics:  clinics,
		subs:     subs,
		notifier: notifier,
		markers:  markers,
		archive:  archive,
		logger:   logger,
		now:      time.Now,
	}
}

func dayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Dashboard summarises the clinic's current local day.
func (s *Service) Dashboard(ctx context.Context, clinicID uuid.UUID) (*Dashboard, error) {
	loc, err := s.clinics.Location(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	start, end := dayBounds(s.now(), loc)
	date := start.Format(time.DateOnly)

	counts, err := s.repo.AppointmentCounts(ctx, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	revenue, err := s.repo.PaidRevenue(ctx, clinicID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	return &Dashboard{
		Date:              date,
		TotalAppointments: counts.Total,
		Completed:         counts.Completed,
		NoShows:           counts.NoShows,
		Revenue:           revenue,
	}, nil
}

func (s *Service) serviceableClinics(ctx context.Context) ([]ClinicInfo, error) {
	clinics, err := s.repo.ListClinics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	out := clinics[:0]
	for _, c := range clinics {
		ok, err := s.subs.Serviceable(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("check subscription: %w", err)
		}
		if !ok {
			s.logger.Debug().Str("clinic_id", c.ID.String()).Msg("skipping clinic without active subscription")
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func reminderKey(appointmentID uuid.UUID) string {
	return "reminder:" + appointmentID.String()
}

// SendReminders notifies patients of tomorrow's SCHEDULED appointments,
// tomorrow being taken in each clinic's timezone. An appointment is
// reminded at most once.
func (s *Service) SendReminders(ctx context.Context) (*ReminderRun, error) {
	clinics, err := s.serviceableClinics(ctx)
	if err != nil {
		return nil, err
	}

	run := &ReminderRun{Success: true, Reminders: []*Reminder{}}
	for _, c := range clinics {
		loc := location(c.Timezone)
		tomorrow := s.now().In(loc).AddDate(0, 0, 1).Format(time.DateOnly)
		appts, err := s.repo.ScheduledOn(ctx, c.ID, tomorrow)
		if err != nil {
			return nil, fmt.Errorf("list appointments: %w", err)
		}
		for _, rm := range appts {
			rm.ClinicName = c.Name
			sent, err := s.remind(ctx, rm, loc)
			if err != nil {
				return nil, err
			}
			if sent {
				run.Reminders = append(run.Reminders, rm)
			}
		}
	}
	run.RemindersSent = len(run.Reminders)
	s.logger.Info().Int("reminders_sent", run.RemindersSent).Msg("reminders job finished")
	return run, nil
}

func (s *Service) remind(ctx context.Context, rm *Reminder, loc *time.Location) (bool, error) {
	key := reminderKey(rm.AppointmentID)
	fresh, err := s.markers.SetNX(ctx, key, s.now().UTC(), reminderMarkerTTL)
	if err != nil {
		return false, fmt.Errorf("reminder marker: %w", err)
	}
	if !fresh {
		return false, nil
	}

	data := map[string]string{
		"clinic_name":  rm.ClinicName,
		"patient_name": rm.PatientName,
		"doctor_name":  rm.DoctorName,
		"date":         rm.Date,
		"time":         rm.StartTime.In(loc).Format("15:04"),
		"token_number": strconv.Itoa(rm.TokenNumber),
	}
	log := s.logger.With().Str("appointment_id", rm.AppointmentID.String()).Logger()

	if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateAppointmentReminder,
		notification.ChannelSMS, rm.PatientPhone, data); err != nil {
		log.Warn().Err(err).Msg("reminder sms failed")
		_ = s.markers.Delete(ctx, key)
		return false, nil
	}
	rm.Channels = []string{string(notification.ChannelSMS)}

	if rm.PatientEmail != nil && *rm.PatientEmail != "" {
		if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateAppointmentReminder,
			notification.ChannelEmail, *rm.PatientEmail, data); err != nil {
			log.Warn().Err(err).Msg("reminder email failed")
		} else {
			rm.Channels = append(rm.Channels, string(notification.ChannelEmail))
		}
	}
	log.Info().Strs("channels", rm.Channels).Msg("reminder queued")
	return true, nil
}

func summaryKey(date string, clinicID uuid.UUID) string {
	return fmt.Sprintf("daily-summary/%s/%s.json", date, clinicID)
}

// DailySummaries computes yesterday's figures for every serviceable clinic,
// archives them and mails the owner.
func (s *Service) DailySummaries(ctx context.Context) (*SummaryRun, error) {
	clinics, err := s.serviceableClinics(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	run := &SummaryRun{
		Success:   true,
		Date:      now.UTC().AddDate(0, 0, -1).Format(time.DateOnly),
		Summaries: []*DailySummary{},
	}
	for _, c := range clinics {
		loc := location(c.Timezone)
		start, end := dayBounds(now.In(loc).AddDate(0, 0, -1), loc)
		date := start.Format(time.DateOnly)

		counts, err := s.repo.AppointmentCounts(ctx, c.ID, date)
		if err != nil {
			return nil, fmt.Errorf("count appointments: %w", err)
		}
		revenue, err := s.repo.PaidRevenue(ctx, c.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("sum revenue: %w", err)
		}
		sum := &DailySummary{
			ClinicID:     c.ID,
			ClinicName:   c.Name,
			Date:         date,
			Appointments: counts.Total,
			Revenue:      revenue,
			GeneratedAt:  now.UTC(),
		}
		run.Summaries = append(run.Summaries, sum)

		if err := s.archiveSummary(ctx, sum); err != nil {
			s.logger.Warn().Err(err).Str("clinic_id", c.ID.String()).Msg("archive daily summary failed")
		}
		if c.OwnerEmail != nil && *c.OwnerEmail != "" {
			data := map[string]string{
				"clinic_name":  c.Name,
				"date":         date,
				"appointments": strconv.Itoa(sum.Appointments),
				"revenue":      strconv.FormatFloat(sum.Revenue, 'f', 2, 64),
			}
			if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateDailySummary,
				notification.ChannelEmail, *c.OwnerEmail, data); err != nil {
				s.logger.Warn().Err(err).Str("clinic_id", c.ID.String()).Msg("daily summary email failed")
			}
		}
	}
	s.logger.Info().Int("clinics", len(run.Summaries)).Str("date", run.Date).Msg("daily summary job finished")
	return run, nil
}

func (s *Service) archiveSummary(ctx context.Context, sum *DailySummary) error {
	if s.archive == nil {
		return nil
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return s.archive.Put(ctx, summaryKey(sum.Date, sum.ClinicID), "application/json", data)
}
