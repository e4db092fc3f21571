package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthbook/scheduling-api/internal/model"
)

// AppointmentRepository is the persistence collaborator for the
// scheduling engine. Transact runs fn against a transaction-scoped
// repository; booking and rescheduling wrap their load-check-save
// sequence in it so concurrent callers cannot both claim overlapping
// time.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, appt *model.Appointment) error
	List(ctx context.Context, q model.FilterQuery) ([]model.Appointment, int, error)
	ListForDoctorDate(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.Appointment, error)
	CreateEvent(ctx context.Context, event *model.OutboxEvent) error
	Transact(ctx context.Context, fn func(AppointmentRepository) error) error
}

// AvailabilityRepository stores doctors' recurring weekly schedules.
type AvailabilityRepository interface {
	GetWeekly(ctx context.Context, doctorID uuid.UUID) (*model.WeeklyAvailability, error)
	ReplaceWeekly(ctx context.Context, doctorID uuid.UUID, entries []model.AvailabilityEntry) error
}

// OutboxRepository is consumed by the worker that publishes
// appointment events to the broker.
type OutboxRepository interface {
	PendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
