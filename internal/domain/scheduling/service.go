package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/platform/cache"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

const maxTokenAttempts = 3

var (
	ErrNotFound        = apperr.NotFound("appointment not found")
	ErrTokenContention = apperr.Conflict("could not assign a token number, please retry")
)

type ClinicLocator interface {
	Location(ctx context.Context, clinicID uuid.UUID) (*time.Location, error)
}

type DoctorDirectory interface {
	InClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
	ListDoctors(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*doctor.Doctor, error)
}

type PatientDirectory interface {
	InClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
}

type ServiceDirectory interface {
	ServiceInClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
}

// Directory resolves the clinic-scoped records an appointment refers to.
type Directory struct {
	Clinics  ClinicLocator
	Doctors  DoctorDirectory
	Patients PatientDirectory
	Services ServiceDirectory
}

// QueueNotifier is told whenever a clinic's queue changes.
type QueueNotifier interface {
	QueueChanged(ctx context.Context, clinicID uuid.UUID, reason string)
}

type Service struct {
	repo         Repository
	tx           db.Transactor
	dir          Directory
	cache        cache.Cache
	notifier     QueueNotifier
	pollInterval time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(repo Repository, tx db.Transactor, dir Directory, c cache.Cache, notifier QueueNotifier, pollInterval time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		tx:           tx,
		dir:          dir,
		cache:        c,
		notifier:     notifier,
		pollInterval: pollInterval,
		logger:       logger,
		now:          time.Now,
	}
}

// Today returns the current date in the clinic's time zone.
func (s *Service) Today(ctx context.Context, clinicID uuid.UUID) (string, *time.Location, error) {
	loc, err := s.dir.Clinics.Location(ctx, clinicID)
	if err != nil {
		return "", nil, err
	}
	return s.now().In(loc).Format(time.DateOnly), loc, nil
}

func startTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, loc)
	if err != nil {
		return time.Time{}, apperr.Invalidf("invalid date or time: %s %s", date, hhmm)
	}
	return t, nil
}

func (s *Service) CreateAppointment(ctx context.Context, clinicID uuid.UUID, req CreateRequest) (*Appointment, error) {
	// A blank service id means no service.
	req.PrimaryServiceID = strings.TrimSpace(req.PrimaryServiceID)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	doctorID := uuid.MustParse(req.DoctorID)
	patientID := uuid.MustParse(req.PatientID)

	if ok, err := s.dir.Doctors.InClinic(ctx, clinicID, doctorID); err != nil {
		return nil, fmt.Errorf("check doctor: %w", err)
	} else if !ok {
		return nil, apperr.Invalid("doctor does not belong to this clinic")
	}
	if ok, err := s.dir.Patients.InClinic(ctx, clinicID, patientID); err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	} else if !ok {
		return nil, apperr.Invalid("patient does not belong to this clinic")
	}

	a := &Appointment{
		ClinicID:          clinicID,
		DoctorID:          doctorID,
		PatientID:         patientID,
		Date:              req.Date,
		VisitType:         VisitNew,
		Status:            StatusScheduled,
		NotesForReception: req.NotesForReception,
		NotesForDoctor:    req.NotesForDoctor,
	}
	if req.VisitType != "" {
		a.VisitType = VisitType(req.VisitType)
	}
	if req.PrimaryServiceID != "" {
		serviceID := uuid.MustParse(req.PrimaryServiceID)
		if ok, err := s.dir.Services.ServiceInClinic(ctx, clinicID, serviceID); err != nil {
			return nil, fmt.Errorf("check service: %w", err)
		} else if !ok {
			return nil, apperr.Invalid("service does not belong to this clinic")
		}
		a.PrimaryServiceID = &serviceID
	}

	loc, err := s.dir.Clinics.Location(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if a.StartTime, err = startTime(req.Date, req.StartTime, loc); err != nil {
		return nil, err
	}

	err = s.withTokenRetry(ctx, func(ctx context.Context) error {
		if err := s.takeToken(ctx, a); err != nil {
			return err
		}
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("clinic_id", clinicID.String()).
		Str("appointment_id", a.ID.String()).
		Int("token_number", a.TokenNumber).
		Msg("appointment created")
	s.queueChanged(ctx, clinicID, "appointment.created")
	return s.repo.GetByID(ctx, clinicID, a.ID)
}

// takeToken assigns the next token of a's queue. It must run inside a
// transaction so the queue lock is held until the row is written.
func (s *Service) takeToken(ctx context.Context, a *Appointment) error {
	if err := s.repo.LockQueue(ctx, a.ClinicID, a.DoctorID, a.Date); err != nil {
		return err
	}
	next, err := s.repo.NextToken(ctx, a.ClinicID, a.DoctorID, a.Date)
	if err != nil {
		return fmt.Errorf("next token: %w", err)
	}
	a.TokenNumber = next
	return nil
}

// withTokenRetry runs fn in a transaction and retries it when the token
// unique index rejects the write.
func (s *Service) withTokenRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := s.tx.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err) {
			return err
		}
		if attempt == maxTokenAttempts {
			s.logger.Error().Err(err).Int("attempts", attempt).Msg("token assignment failed")
			return ErrTokenContention
		}
		s.logger.Warn().Int("attempt", attempt).Msg("token collision, retrying")
	}
}

// Lookup answers whether an appointment belongs to a clinic.
type Lookup struct{ repo Repository }

func NewLookup(repo Repository) *Lookup { return &Lookup{repo: repo} }

func (l *Lookup) AppointmentInClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	_, err := l.repo.GetByID(ctx, clinicID, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) GetAppointment(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, clinicID, id)
}

// UpdateAppointment applies a partial update. Any status may follow any
// other. Moving to another date gives the appointment the next token of the
// new day's queue. The row stays locked from read to write so concurrent
// updates apply one after the other.
func (s *Service) UpdateAppointment(ctx context.Context, clinicID, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var loc *time.Location
	if req.Date != nil || req.StartTime != nil {
		var err error
		if loc, err = s.dir.Clinics.Location(ctx, clinicID); err != nil {
			return nil, err
		}
	}

	err := s.withTokenRetry(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, clinicID, id)
		if err != nil {
			return err
		}
		moved, err := applyUpdate(a, req, loc)
		if err != nil {
			return err
		}
		if moved {
			if err := s.takeToken(ctx, a); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.queueChanged(ctx, clinicID, "appointment.updated")
	return s.repo.GetByID(ctx, clinicID, id)
}

// applyUpdate copies the fields present in req onto a and reports whether
// the appointment moved to another day.
func applyUpdate(a *Appointment, req UpdateRequest, loc *time.Location) (bool, error) {
	if req.Status != nil {
		a.Status = Status(*req.Status)
	}
	if req.NotesForReception != nil {
		a.NotesForReception = req.NotesForReception
	}
	if req.NotesForDoctor != nil {
		a.NotesForDoctor = req.NotesForDoctor
	}
	if req.Date == nil && req.StartTime == nil {
		return false, nil
	}

	moved := req.Date != nil && *req.Date != a.Date
	date := a.Date
	if req.Date != nil {
		date = *req.Date
	}
	hhmm := a.StartTime.In(loc).Format("15:04")
	if req.StartTime != nil {
		hhmm = *req.StartTime
	}
	start, err := startTime(date, hhmm, loc)
	if err != nil {
		return false, err
	}
	a.StartTime = start
	a.Date = date
	return moved, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, clinicID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, clinicID, id); err != nil {
		return err
	}
	s.queueChanged(ctx, clinicID, "appointment.deleted")
	return nil
}

// ListAppointments returns one day's appointments. An empty date means
// today in the clinic's time zone.
func (s *Service) ListAppointments(ctx context.Context, clinicID uuid.UUID, date string, doctorID *uuid.UUID) ([]*Appointment, error) {
	if date == "" {
		today, _, err := s.Today(ctx, clinicID)
		if err != nil {
			return nil, err
		}
		date = today
	} else if err := validate.Var("date", date, "isodate"); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByDate(ctx, clinicID, date, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return items, nil
}

func (s *Service) GetTokenSlip(ctx context.Context, clinicID, id uuid.UUID) (*TokenSlip, error) {
	return s.repo.TokenSlip(ctx, clinicID, id)
}

func queueCachePrefix(clinicID uuid.UUID) string {
	return "queue:" + clinicID.String() + ":"
}

func queueCacheKey(clinicID uuid.UUID, date string, doctorID *uuid.UUID) string {
	who := "all"
	if doctorID != nil {
		who = doctorID.String()
	}
	return queueCachePrefix(clinicID) + date + ":" + who
}

func queueLockKey(clinicID, doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("token:%s:%s:%s", clinicID, doctorID, date)
}

// Queue builds today's queue board. Boards are cached for one poll interval.
func (s *Service) Queue(ctx context.Context, clinicID uuid.UUID, doctorID *uuid.UUID) (*QueueBoard, error) {
	today, _, err := s.Today(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	key := queueCacheKey(clinicID, today, doctorID)

	var cached QueueBoard
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("queue cache read failed")
	} else if hit {
		return &cached, nil
	}

	board, err := s.buildQueue(ctx, clinicID, today, doctorID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, board, s.pollInterval); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("queue cache write failed")
	}
	return board, nil
}

func (s *Service) buildQueue(ctx context.Context, clinicID uuid.UUID, date string, doctorID *uuid.UUID) (*QueueBoard, error) {
	items, err := s.repo.ListActive(ctx, clinicID, date, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	doctors, err := s.dir.Doctors.ListDoctors(ctx, clinicID, true)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	board := &QueueBoard{
		Date:                date,
		Doctors:             make([]DoctorSummary, 0, len(doctors)),
		Queues:              []DoctorQueue{},
		PollIntervalSeconds: int(s.pollInterval / time.Second),
		GeneratedAt:         s.now().UTC(),
	}
	for _, d := range doctors {
		board.Doctors = append(board.Doctors, DoctorSummary{
			ID: d.ID, Name: d.Name, Speciality: d.Speciality, RoomNumber: d.RoomNumber,
		})
	}

	byDoctor := make(map[uuid.UUID]*DoctorQueue)
	var order []uuid.UUID
	for _, a := range items {
		q, ok := byDoctor[a.DoctorID]
		if !ok {
			q = &DoctorQueue{
				InConsultation: []*Appointment{},
				CheckedIn:      []*Appointment{},
				Scheduled:      []*Appointment{},
			}
			if a.Doctor != nil {
				q.Doctor = *a.Doctor
			} else {
				q.Doctor = DoctorSummary{ID: a.DoctorID}
			}
			byDoctor[a.DoctorID] = q
			order = append(order, a.DoctorID)
		}
		switch a.Status {
		case StatusInConsultation:
			if q.NowServing == nil {
				q.NowServing = a
			}
			q.InConsultation = append(q.InConsultation, a)
		case StatusCheckedIn:
			q.CheckedIn = append(q.CheckedIn, a)
		case StatusScheduled:
			q.Scheduled = append(q.Scheduled, a)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return byDoctor[order[i]].Doctor.Name < byDoctor[order[j]].Doctor.Name
	})
	for _, id := range order {
		board.Queues = append(board.Queues, *byDoctor[id])
	}
	return board, nil
}

func (s *Service) queueChanged(ctx context.Context, clinicID uuid.UUID, reason string) {
	if err := s.cache.DeletePrefix(ctx, queueCachePrefix(clinicID)); err != nil {
		s.logger.Warn().Err(err).Str("clinic_id", clinicID.String()).Msg("queue cache invalidation failed")
	}
	if s.notifier != nil {
		s.notifier.QueueChanged(ctx, clinicID, reason)
	}
}
