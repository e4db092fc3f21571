package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/healthbook/scheduling-api/pkg/errors"
)

const (
	ClockFormat = "15:04"
	DateFormat  = "2006-01-02"

	minutesPerDay = 24 * 60
)

// ClockTime is a minute-precision time of day, stored as minutes since
// midnight. It renders as "HH:mm" in JSON and maps to a TIME column.
type ClockTime int

// ParseClockTime parses a 24-hour "HH:mm" string.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse(ClockFormat, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (t ClockTime) Hour() int   { return int(t) / 60 }
func (t ClockTime) Minute() int { return int(t) % 60 }

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t ClockTime) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute()), nil
}

func (t *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = ClockTime(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

func (t *ClockTime) scanString(s string) error {
	// TIME columns come back as "15:04:00"
	if len(s) > len(ClockFormat) {
		s = s[:len(ClockFormat)]
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeRange is a half-open [Start, End) time-of-day interval.
type TimeRange struct {
	Start ClockTime `json:"startTime"`
	End   ClockTime `json:"endTime"`
}

// NewTimeRange builds a range, rejecting empty and inverted windows.
func NewTimeRange(start, end ClockTime) (TimeRange, error) {
	if start < 0 || end > minutesPerDay {
		return TimeRange{}, errors.NewInvalidRange(
			fmt.Sprintf("time range %s-%s is outside the day", start, end))
	}
	if end <= start {
		return TimeRange{}, errors.NewInvalidRange(
			fmt.Sprintf("time range end %s must be after start %s", end, start))
	}
	return TimeRange{Start: start, End: end}, nil
}

// ParseTimeRange builds a range from two "HH:mm" strings.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseClockTime(start)
	if err != nil {
		return TimeRange{}, errors.NewInvalidRange(err.Error())
	}
	e, err := ParseClockTime(end)
	if err != nil {
		return TimeRange{}, errors.NewInvalidRange(err.Error())
	}
	return NewTimeRange(s, e)
}

// Overlaps reports whether the two half-open intervals intersect.
// Zero-length ranges never overlap anything.
func (r TimeRange) Overlaps(other TimeRange) bool {
	if r.Start >= r.End || other.Start >= other.End {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

// Duration returns the range length in minutes.
func (r TimeRange) Duration() int {
	return int(r.End - r.Start)
}

// Contains reports whether the point falls inside [Start, End).
func (r TimeRange) Contains(point ClockTime) bool {
	return point >= r.Start && point < r.End
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Date is a calendar date with no time component. It renders as
// "YYYY-MM-DD" in JSON and maps to a DATE column.
type Date struct {
	time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// Today returns the current date in the given location.
func Today(loc *time.Location) Date {
	now := time.Now().In(loc)
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Equal compares calendar dates ignoring any time component.
func (d Date) Equal(other Date) bool {
	return d.Year() == other.Year() && d.YearDay() == other.YearDay()
}
