package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentType string

// Canonical type spellings. Clients historically sent both
// "follow_up"/"follow-up" and "checkup"/"check-up"; the underscore and
// single-word forms are authoritative, normalized at the HTTP boundary.
const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeFollowUp     AppointmentType = "follow_up"
	AppointmentTypeEmergency    AppointmentType = "emergency"
	AppointmentTypeSurgery      AppointmentType = "surgery"
	AppointmentTypeCheckup      AppointmentType = "checkup"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentTypeConsultation, AppointmentTypeFollowUp,
		AppointmentTypeEmergency, AppointmentTypeSurgery, AppointmentTypeCheckup:
		return true
	}
	return false
}

// NormalizeAppointmentType maps legacy hyphenated spellings onto the
// canonical enumeration.
func NormalizeAppointmentType(s string) AppointmentType {
	switch s {
	case "follow-up":
		return AppointmentTypeFollowUp
	case "check-up":
		return AppointmentTypeCheckup
	default:
		return AppointmentType(s)
	}
}

type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctorId"`
	PatientID       *uuid.UUID        `db:"patient_id" json:"patientId,omitempty"`
	AppointmentDate Date              `db:"appointment_date" json:"appointmentDate"`
	StartTime       ClockTime         `db:"start_time" json:"startTime"`
	EndTime         ClockTime         `db:"end_time" json:"endTime"`
	Duration        int               `db:"duration" json:"duration"`
	Type            AppointmentType   `db:"type" json:"type"`
	Department      string            `db:"department" json:"department,omitempty"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Reason          string            `db:"reason" json:"reason,omitempty"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	CancelReason    *string           `db:"cancel_reason" json:"cancelReason,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updatedAt"`

	// Denormalized from the patients table on reads, used for search
	// and name sorting.
	PatientFirstName string `db:"patient_first_name" json:"patientFirstName,omitempty"`
	PatientLastName  string `db:"patient_last_name" json:"patientLastName,omitempty"`
}

// TimeRange returns the appointment's [start, end) window.
func (a *Appointment) TimeRange() TimeRange {
	return TimeRange{Start: a.StartTime, End: a.EndTime}
}

type CreateAppointmentRequest struct {
	DoctorID        string `json:"doctorId" binding:"required,uuid"`
	PatientID       string `json:"patientId" binding:"omitempty,uuid"`
	AppointmentDate string `json:"appointmentDate" binding:"required,dateonly"`
	StartTime       string `json:"startTime" binding:"required,clocktime"`
	EndTime         string `json:"endTime" binding:"required,clocktime"`
	Duration        int    `json:"duration" binding:"required,gt=0"`
	Type            string `json:"type" binding:"required"`
	Reason          string `json:"reason" binding:"max=500"`
	Notes           string `json:"notes" binding:"max=1000"`
	Department      string `json:"department" binding:"max=255"`
}

type RescheduleAppointmentRequest struct {
	NewAppointmentDate string `json:"newAppointmentDate" binding:"required,dateonly"`
	NewStartTime       string `json:"newStartTime" binding:"required,clocktime"`
	NewEndTime         string `json:"newEndTime" binding:"required,clocktime"`
}

// UpdateStatusRequest drives the status endpoint. Reason is only
// meaningful when requesting cancellation.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled confirmed in_progress completed cancelled no_show"`
	Reason string `json:"reason" binding:"max=500"`
}
