package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
)

// Both ways the database can reject a racing booking — the unique index
// firing and the serializable transaction aborting — must come back as
// the same SlotConflict the pre-check reports.
func TestMapConflictRaceErrors(t *testing.T) {
	unique := mapConflict(&pq.Error{Code: pqUniqueViolation}, "failed to create appointment")
	assert.True(t, apperrors.IsCode(unique, apperrors.ErrSlotConflict))

	serialization := mapConflict(&pq.Error{Code: pqSerializationFailure}, "failed to commit booking")
	assert.True(t, apperrors.IsCode(serialization, apperrors.ErrSlotConflict))
}

func TestMapConflictSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("exec failed: %w", &pq.Error{Code: pqUniqueViolation})
	assert.True(t, apperrors.IsCode(mapConflict(wrapped, "failed to create appointment"), apperrors.ErrSlotConflict))
}

func TestMapConflictPassesThroughOtherErrors(t *testing.T) {
	// A foreign-key violation is a real failure, not a lost race.
	fk := &pq.Error{Code: "23503"}
	err := mapConflict(fk, "failed to create appointment")
	require.Error(t, err)
	assert.False(t, apperrors.IsCode(err, apperrors.ErrSlotConflict))
	assert.True(t, errors.Is(err, fk), "original cause must stay unwrappable")
	assert.Contains(t, err.Error(), "failed to create appointment")

	plain := errors.New("connection reset")
	err = mapConflict(plain, "failed to update appointment")
	assert.False(t, apperrors.IsCode(err, apperrors.ErrSlotConflict))
	assert.True(t, errors.Is(err, plain))
}
