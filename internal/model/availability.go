package model

import (
	"time"

	"github.com/google/uuid"
)

type Weekday string

const (
	WeekdayMonday    Weekday = "monday"
	WeekdayTuesday   Weekday = "tuesday"
	WeekdayWednesday Weekday = "wednesday"
	WeekdayThursday  Weekday = "thursday"
	WeekdayFriday    Weekday = "friday"
	WeekdaySaturday  Weekday = "saturday"
	WeekdaySunday    Weekday = "sunday"
)

var weekdayFromTime = map[time.Weekday]Weekday{
	time.Monday:    WeekdayMonday,
	time.Tuesday:   WeekdayTuesday,
	time.Wednesday: WeekdayWednesday,
	time.Thursday:  WeekdayThursday,
	time.Friday:    WeekdayFriday,
	time.Saturday:  WeekdaySaturday,
	time.Sunday:    WeekdaySunday,
}

// WeekdayOf maps a calendar date onto the schedule's day key.
func WeekdayOf(d Date) Weekday {
	return weekdayFromTime[d.Weekday()]
}

func (w Weekday) Valid() bool {
	for _, day := range weekdayFromTime {
		if day == w {
			return true
		}
	}
	return false
}

// AvailabilityEntry is one day of a doctor's recurring weekly
// schedule. At most one entry per day is meaningful.
type AvailabilityEntry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctorId"`
	Day         Weekday   `db:"day" json:"day"`
	StartTime   ClockTime `db:"start_time" json:"startTime"`
	EndTime     ClockTime `db:"end_time" json:"endTime"`
	IsAvailable bool      `db:"is_available" json:"isAvailable"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Window returns the entry's working window for the day.
func (e *AvailabilityEntry) Window() TimeRange {
	return TimeRange{Start: e.StartTime, End: e.EndTime}
}

// WeeklyAvailability is a doctor's full recurring schedule.
type WeeklyAvailability struct {
	DoctorID uuid.UUID           `json:"doctorId"`
	Entries  []AvailabilityEntry `json:"entries"`
}

// EntryFor returns the entry matching the given day, if any.
func (w *WeeklyAvailability) EntryFor(day Weekday) (*AvailabilityEntry, bool) {
	for i := range w.Entries {
		if w.Entries[i].Day == day {
			return &w.Entries[i], true
		}
	}
	return nil, false
}

// Slot is a bookable window offered to clients, formatted "HH:mm".
type Slot struct {
	StartTime ClockTime `json:"startTime"`
	EndTime   ClockTime `json:"endTime"`
}

type ScheduleEntryRequest struct {
	Day         string `json:"day" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string `json:"startTime" binding:"required,clocktime"`
	EndTime     string `json:"endTime" binding:"required,clocktime"`
	IsAvailable bool   `json:"isAvailable"`
}

type SetScheduleRequest struct {
	Entries []ScheduleEntryRequest `json:"entries" binding:"required,dive"`
}
