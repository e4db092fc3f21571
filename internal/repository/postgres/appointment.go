package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/internal/repository"
	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
)

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
)

const appointmentColumns = `
	id, doctor_id, patient_id, appointment_date, start_time, end_time,
	duration, type, department, status, reason, notes, cancel_reason,
	patient_first_name, patient_last_name, created_at, updated_at`

type appointmentRepository struct {
	db  *sqlx.DB // nil when scoped to a transaction
	ext sqlx.ExtContext
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db, ext: db}
}

// Transact runs fn inside a serializable transaction. Together with
// the unique index on (doctor_id, appointment_date, start_time) this
// closes the race between concurrent bookers; both failure modes
// surface as SlotConflict.
func (r *appointmentRepository) Transact(ctx context.Context, fn func(repository.AppointmentRepository) error) error {
	if r.db == nil {
		// Already transaction-scoped, reuse it.
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&appointmentRepository{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapConflict(err, "failed to commit booking")
	}
	return nil
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, appointment_date, start_time, end_time,
			duration, type, department, status, reason, notes, cancel_reason,
			patient_first_name, patient_last_name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = time.Now()

	_, err := r.ext.ExecContext(ctx, query,
		appt.ID,
		appt.DoctorID,
		appt.PatientID,
		appt.AppointmentDate,
		appt.StartTime,
		appt.EndTime,
		appt.Duration,
		appt.Type,
		appt.Department,
		appt.Status,
		appt.Reason,
		appt.Notes,
		appt.CancelReason,
		appt.PatientFirstName,
		appt.PatientLastName,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return mapConflict(err, "failed to create appointment")
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appt model.Appointment
	err := sqlx.GetContext(ctx, r.ext, &appt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appointment_date = $1, start_time = $2, end_time = $3,
			duration = $4, status = $5, notes = $6, cancel_reason = $7,
			updated_at = $8
		WHERE id = $9
	`
	appt.UpdatedAt = time.Now()

	result, err := r.ext.ExecContext(ctx, query,
		appt.AppointmentDate,
		appt.StartTime,
		appt.EndTime,
		appt.Duration,
		appt.Status,
		appt.Notes,
		appt.CancelReason,
		appt.UpdatedAt,
		appt.ID,
	)
	if err != nil {
		return mapConflict(err, "failed to update appointment")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) ListForDoctorDate(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2
		ORDER BY start_time ASC
	`
	var appointments []model.Appointment
	err := sqlx.SelectContext(ctx, r.ext, &appointments, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for doctor: %w", err)
	}
	return appointments, nil
}

// List applies the same FilterQuery contract as model.FilterQuery.Apply,
// pushed down to SQL for the persisted data set.
func (r *appointmentRepository) List(ctx context.Context, q model.FilterQuery) ([]model.Appointment, int, error) {
	where, args := buildAppointmentFilter(q)

	countQuery := "SELECT COUNT(*) FROM appointments" + where
	var total int
	if err := sqlx.GetContext(ctx, r.ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	meta := q.PageMeta(total)
	pageSize := q.EffectivePageSize()
	offset := (meta.CurrentPage - 1) * pageSize

	query := fmt.Sprintf(
		"SELECT %s FROM appointments%s ORDER BY %s LIMIT %d OFFSET %d",
		appointmentColumns, where, orderClause(q), pageSize, offset,
	)

	var appointments []model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}

func (r *appointmentRepository) CreateEvent(ctx context.Context, event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	_, err := r.ext.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func buildAppointmentFilter(q model.FilterQuery) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(patient_first_name ILIKE %[1]s OR patient_last_name ILIKE %[1]s OR reason ILIKE %[1]s OR department ILIKE %[1]s)", p))
	}
	if q.Type != "" {
		clauses = append(clauses, "type = "+arg(model.NormalizeAppointmentType(q.Type)))
	}
	if q.Department != "" {
		clauses = append(clauses, "department ILIKE "+arg(q.Department))
	}
	if len(q.Status) > 0 {
		clauses = append(clauses, "status = ANY("+arg(pq.Array(q.Status))+")")
	}
	if !q.StartDate.IsZero() {
		clauses = append(clauses, "appointment_date >= "+arg(q.StartDate))
	}
	if !q.EndDate.IsZero() {
		clauses = append(clauses, "appointment_date <= "+arg(q.EndDate))
	}
	if q.PatientID != "" {
		clauses = append(clauses, "patient_id = "+arg(q.PatientID))
	}
	if q.DoctorID != "" {
		clauses = append(clauses, "doctor_id = "+arg(q.DoctorID))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(q model.FilterQuery) string {
	dir := "ASC"
	if q.SortOrder == model.SortOrderDesc {
		dir = "DESC"
	}

	var key string
	switch q.SortBy {
	case model.SortByCreatedAt:
		key = "created_at"
	case model.SortByFirstName:
		key = "patient_first_name"
	default:
		key = "appointment_date"
	}

	// Id tie-break stays ascending so pagination is deterministic.
	return fmt.Sprintf("%s %s, id ASC", key, dir)
}

// mapConflict translates storage-level contention into the same
// SlotConflict the validator reports, so racing callers see one error.
func mapConflict(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return apperrors.NewSlotConflict("time slot is no longer available", err)
		case pqSerializationFailure:
			return apperrors.NewSlotConflict("time slot was booked concurrently", err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
