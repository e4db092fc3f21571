package appointment

import (
	"github.com/google/uuid"

	"github.com/healthbook/scheduling-api/internal/model"
)

// IsBookable decides whether the candidate window can be booked
// against the doctor's existing appointments for that date. Cancelled
// and no-show appointments do not block their slot. Pass the
// appointment's own id as exclude when rescheduling, so it does not
// conflict with itself.
func IsBookable(candidate model.TimeRange, existing []model.Appointment, exclude uuid.UUID) bool {
	for i := range existing {
		appt := &existing[i]
		if appt.ID == exclude {
			continue
		}
		if !appt.Status.BlocksSlot() {
			continue
		}
		if candidate.Overlaps(appt.TimeRange()) {
			return false
		}
	}
	return true
}

// BlockedRanges returns the time ranges still occupying the doctor's
// calendar, in the order given.
func BlockedRanges(existing []model.Appointment) []model.TimeRange {
	ranges := make([]model.TimeRange, 0, len(existing))
	for i := range existing {
		if existing[i].Status.BlocksSlot() {
			ranges = append(ranges, existing[i].TimeRange())
		}
	}
	return ranges
}
