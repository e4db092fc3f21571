package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/internal/repository"
)

type availabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) GetWeekly(ctx context.Context, doctorID uuid.UUID) (*model.WeeklyAvailability, error) {
	query := `
		SELECT id, doctor_id, day, start_time, end_time, is_available,
			   created_at, updated_at
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY CASE day
			WHEN 'monday' THEN 1
			WHEN 'tuesday' THEN 2
			WHEN 'wednesday' THEN 3
			WHEN 'thursday' THEN 4
			WHEN 'friday' THEN 5
			WHEN 'saturday' THEN 6
			WHEN 'sunday' THEN 7
		END
	`
	var entries []model.AvailabilityEntry
	if err := r.db.SelectContext(ctx, &entries, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to get weekly availability: %w", err)
	}

	return &model.WeeklyAvailability{DoctorID: doctorID, Entries: entries}, nil
}

// ReplaceWeekly swaps the doctor's entire recurring schedule in one
// transaction. The unique index on (doctor_id, day) backs up the
// duplicate-day validation done at the service boundary.
func (r *availabilityRepository) ReplaceWeekly(ctx context.Context, doctorID uuid.UUID, entries []model.AvailabilityEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM doctor_availability WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("failed to clear weekly availability: %w", err)
	}

	insert := `
		INSERT INTO doctor_availability (
			id, doctor_id, day, start_time, end_time, is_available,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	for i := range entries {
		e := &entries[i]
		e.ID = uuid.New()
		e.DoctorID = doctorID
		e.CreatedAt = now
		e.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, insert,
			e.ID, e.DoctorID, e.Day, e.StartTime, e.EndTime,
			e.IsAvailable, e.CreatedAt, e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert availability entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit weekly availability: %w", err)
	}
	return nil
}
