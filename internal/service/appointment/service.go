package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/internal/repository"
	"github.com/healthbook/scheduling-api/internal/service/event"
	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
	"github.com/healthbook/scheduling-api/pkg/logger"
	"github.com/healthbook/scheduling-api/pkg/metrics"
)

// Service orchestrates booking, rescheduling, cancellation and status
// updates. It holds no state of its own; every operation runs its
// load-check-save sequence inside a repository transaction.
type Service struct {
	repo    repository.AppointmentRepository
	events  *event.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(repo repository.AppointmentRepository, events *event.Service, m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the service clock, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BookParams carries everything needed to create an appointment.
// PatientID is nil for walk-in patients; their name travels in the
// denormalized fields.
type BookParams struct {
	DoctorID         uuid.UUID
	PatientID        *uuid.UUID
	Date             model.Date
	Range            model.TimeRange
	Type             model.AppointmentType
	Reason           string
	Notes            string
	Department       string
	PatientFirstName string
	PatientLastName  string
}

func (s *Service) Book(ctx context.Context, p BookParams) (*model.Appointment, error) {
	if !p.Type.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown appointment type %q", p.Type), nil)
	}
	if p.Date.Before(s.today().Time) {
		return nil, apperrors.NewBadRequest("appointment date cannot be in the past", nil)
	}

	var appt *model.Appointment
	err := s.repo.Transact(ctx, func(r repository.AppointmentRepository) error {
		existing, err := r.ListForDoctorDate(ctx, p.DoctorID, p.Date)
		if err != nil {
			return err
		}
		if !IsBookable(p.Range, existing, uuid.Nil) {
			return apperrors.NewSlotConflict(
				fmt.Sprintf("doctor is already booked during %s on %s", p.Range, p.Date), nil)
		}

		appt = &model.Appointment{
			DoctorID:         p.DoctorID,
			PatientID:        p.PatientID,
			AppointmentDate:  p.Date,
			StartTime:        p.Range.Start,
			EndTime:          p.Range.End,
			Duration:         p.Range.Duration(),
			Type:             p.Type,
			Department:       p.Department,
			Status:           model.AppointmentStatusScheduled,
			Reason:           p.Reason,
			Notes:            p.Notes,
			PatientFirstName: p.PatientFirstName,
			PatientLastName:  p.PatientLastName,
		}
		if err := r.Create(ctx, appt); err != nil {
			return err
		}
		return s.events.Record(ctx, r, model.EventAppointmentCreated, appt)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrSlotConflict) {
			s.metrics.SlotConflictsTotal.WithLabelValues("book").Inc()
		}
		return nil, err
	}

	s.metrics.BookingsTotal.Inc()
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID, "doctor_id", p.DoctorID, "date", p.Date.String())
	return appt, nil
}

// Reschedule moves an appointment to a new date and window. The
// appointment's own slot is excluded from conflict checking; status is
// unaffected.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate model.Date, newRange model.TimeRange) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.repo.Transact(ctx, func(r repository.AppointmentRepository) error {
		var err error
		appt, err = r.Get(ctx, id)
		if err != nil {
			return err
		}
		if appt.Status.Terminal() {
			return apperrors.NewBadRequest(
				fmt.Sprintf("cannot reschedule a %s appointment", appt.Status), nil)
		}

		existing, err := r.ListForDoctorDate(ctx, appt.DoctorID, newDate)
		if err != nil {
			return err
		}
		if !IsBookable(newRange, existing, appt.ID) {
			return apperrors.NewSlotConflict(
				fmt.Sprintf("doctor is already booked during %s on %s", newRange, newDate), nil)
		}

		appt.AppointmentDate = newDate
		appt.StartTime = newRange.Start
		appt.EndTime = newRange.End
		appt.Duration = newRange.Duration()

		if err := r.Update(ctx, appt); err != nil {
			return err
		}
		return s.events.Record(ctx, r, model.EventAppointmentRescheduled, appt)
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrSlotConflict) {
			s.metrics.SlotConflictsTotal.WithLabelValues("reschedule").Inc()
		}
		return nil, err
	}

	s.metrics.ReschedulesTotal.Inc()
	s.logger.Info("appointment rescheduled",
		"appointment_id", id, "new_date", newDate.String(), "new_range", newRange.String())
	return appt, nil
}

// UpdateStatus runs the requested transition through the status
// machine and persists the result. An illegal edge leaves the
// appointment untouched.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, requested model.AppointmentStatus) (*model.Appointment, error) {
	appt, err := s.transition(ctx, id, requested, nil)
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Cancel transitions the appointment to cancelled and stores the
// caller's reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	var cancelReason *string
	if reason != "" {
		cancelReason = &reason
	}
	return s.transition(ctx, id, model.AppointmentStatusCancelled, cancelReason)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, requested model.AppointmentStatus, cancelReason *string) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.repo.Transact(ctx, func(r repository.AppointmentRepository) error {
		var err error
		appt, err = r.Get(ctx, id)
		if err != nil {
			return err
		}

		from := appt.Status
		next, err := model.TransitionStatus(from, requested)
		if err != nil {
			s.metrics.InvalidTransitions.Inc()
			return err
		}

		appt.Status = next
		if cancelReason != nil {
			appt.CancelReason = cancelReason
		}
		if err := r.Update(ctx, appt); err != nil {
			return err
		}

		eventType := model.EventAppointmentStatusChanged
		if next == model.AppointmentStatusCancelled {
			eventType = model.EventAppointmentCancelled
		}
		if err := s.events.Record(ctx, r, eventType, appt); err != nil {
			return err
		}

		s.metrics.StatusTransitions.WithLabelValues(string(from), string(next)).Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment status updated",
		"appointment_id", id, "status", string(appt.Status))
	return appt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// ListAppointments applies the shared filter contract against the
// persisted data set.
func (s *Service) ListAppointments(ctx context.Context, q model.FilterQuery) ([]model.Appointment, int, error) {
	return s.repo.List(ctx, q)
}

// LegalTransitions reports which statuses the appointment can move to,
// so clients ask the machine instead of encoding the rules.
func (s *Service) LegalTransitions(ctx context.Context, id uuid.UUID) ([]model.AppointmentStatus, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return model.LegalTransitions(appt.Status), nil
}

func (s *Service) today() model.Date {
	now := s.now()
	return model.NewDate(now.Year(), now.Month(), now.Day())
}
