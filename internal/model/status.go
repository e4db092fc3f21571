package model

import (
	"github.com/healthbook/scheduling-api/pkg/errors"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// statusTransitions is the authoritative appointment lifecycle.
// Terminal states have no outgoing edges. No other code may mutate an
// appointment's status without going through TransitionStatus.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled:  {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed:  {AppointmentStatusInProgress, AppointmentStatusCancelled},
	AppointmentStatusInProgress: {AppointmentStatusCompleted, AppointmentStatusNoShow},
	AppointmentStatusCompleted:  {},
	AppointmentStatusCancelled:  {},
	AppointmentStatusNoShow:     {},
}

func (s AppointmentStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether the status has no outgoing transitions.
func (s AppointmentStatus) Terminal() bool {
	next, ok := statusTransitions[s]
	return ok && len(next) == 0
}

// BlocksSlot reports whether an appointment in this status still
// occupies its time on the doctor's calendar.
func (s AppointmentStatus) BlocksSlot() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusNoShow
}

// LegalTransitions returns the statuses reachable from current, so
// callers can ask what is allowed instead of encoding the rules.
func LegalTransitions(current AppointmentStatus) []AppointmentStatus {
	next, ok := statusTransitions[current]
	if !ok {
		return nil
	}
	out := make([]AppointmentStatus, len(next))
	copy(out, next)
	return out
}

// TransitionStatus validates the requested status change and returns
// the new status, or InvalidTransition naming both states.
func TransitionStatus(current, requested AppointmentStatus) (AppointmentStatus, error) {
	for _, next := range statusTransitions[current] {
		if next == requested {
			return requested, nil
		}
	}
	return current, errors.NewInvalidTransition(string(current), string(requested))
}
