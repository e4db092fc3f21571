package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/internal/repository"
	"github.com/healthbook/scheduling-api/internal/service/appointment"
	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
	"github.com/healthbook/scheduling-api/pkg/logger"
	"github.com/healthbook/scheduling-api/pkg/metrics"
)

const (
	weeklyCacheTTL     = 5 * time.Minute
	weeklyCacheCleanup = 10 * time.Minute
)

// ComputeSlots turns a doctor's recurring weekly availability into the
// ordered bookable windows for a single date. A day the doctor is not
// working yields an empty result, not an error. The trailing partial
// slot is discarded; candidates overlapping any existing range are
// removed.
func ComputeSlots(weekly *model.WeeklyAvailability, date model.Date, slotDuration int, existing []model.TimeRange) ([]model.TimeRange, error) {
	if slotDuration <= 0 {
		return nil, apperrors.NewInvalidDuration(slotDuration)
	}

	entry, ok := weekly.EntryFor(model.WeekdayOf(date))
	if !ok || !entry.IsAvailable {
		return []model.TimeRange{}, nil
	}

	window := entry.Window()
	slots := []model.TimeRange{}
	step := model.ClockTime(slotDuration)

	for start := window.Start; start+step <= window.End; start += step {
		candidate := model.TimeRange{Start: start, End: start + step}

		blocked := false
		for _, ex := range existing {
			if candidate.Overlaps(ex) {
				blocked = true
				break
			}
		}
		if !blocked {
			slots = append(slots, candidate)
		}
	}

	return slots, nil
}

// Service resolves availability against the persisted schedule and the
// doctor's booked appointments.
type Service struct {
	repo     repository.AvailabilityRepository
	apptRepo repository.AppointmentRepository
	cache    *gocache.Cache
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewService(repo repository.AvailabilityRepository, apptRepo repository.AppointmentRepository, m *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		apptRepo: apptRepo,
		cache:    gocache.New(weeklyCacheTTL, weeklyCacheCleanup),
		metrics:  m,
		logger:   logger,
	}
}

// GetAvailableSlots returns the bookable windows for one doctor and
// date. Cancelled and no-show appointments do not block slots.
func (s *Service) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date model.Date, slotDuration int) ([]model.Slot, error) {
	start := time.Now()
	defer func() {
		s.metrics.SlotComputations.Observe(time.Since(start).Seconds())
	}()
	s.metrics.AvailabilityQueries.Inc()

	weekly, err := s.weeklyFor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	existing, err := s.apptRepo.ListForDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	ranges, err := ComputeSlots(weekly, date, slotDuration, appointment.BlockedRanges(existing))
	if err != nil {
		return nil, err
	}

	slots := make([]model.Slot, len(ranges))
	for i, r := range ranges {
		slots[i] = model.Slot{StartTime: r.Start, EndTime: r.End}
	}
	return slots, nil
}

// GetAvailableSlotsRange computes availability for every date in
// [startDate, endDate], keyed by date. Calendar views use this for
// multi-day navigation; the calculator itself stays single-date.
func (s *Service) GetAvailableSlotsRange(ctx context.Context, doctorID uuid.UUID, startDate, endDate model.Date, slotDuration int) (map[string][]model.Slot, error) {
	if endDate.Before(startDate.Time) {
		return nil, apperrors.NewBadRequest("endDate must not be before startDate", nil)
	}

	out := make(map[string][]model.Slot)
	for d := startDate; !d.After(endDate.Time); d = (model.Date{Time: d.AddDate(0, 0, 1)}) {
		slots, err := s.GetAvailableSlots(ctx, doctorID, d, slotDuration)
		if err != nil {
			return nil, err
		}
		out[d.String()] = slots
	}
	return out, nil
}

func (s *Service) GetWeeklySchedule(ctx context.Context, doctorID uuid.UUID) (*model.WeeklyAvailability, error) {
	return s.weeklyFor(ctx, doctorID)
}

// SetWeeklySchedule replaces the doctor's recurring schedule. Each day
// may appear at most once and every window must be well-formed.
func (s *Service) SetWeeklySchedule(ctx context.Context, doctorID uuid.UUID, req model.SetScheduleRequest) (*model.WeeklyAvailability, error) {
	seen := make(map[model.Weekday]bool, len(req.Entries))
	entries := make([]model.AvailabilityEntry, 0, len(req.Entries))

	for _, e := range req.Entries {
		day := model.Weekday(e.Day)
		if seen[day] {
			return nil, apperrors.NewBadRequest("duplicate schedule entry for "+e.Day, nil)
		}
		seen[day] = true

		window, err := model.ParseTimeRange(e.StartTime, e.EndTime)
		if err != nil {
			return nil, err
		}

		entries = append(entries, model.AvailabilityEntry{
			DoctorID:    doctorID,
			Day:         day,
			StartTime:   window.Start,
			EndTime:     window.End,
			IsAvailable: e.IsAvailable,
		})
	}

	if err := s.repo.ReplaceWeekly(ctx, doctorID, entries); err != nil {
		return nil, err
	}
	s.cache.Delete(doctorID.String())

	s.logger.Info("weekly schedule replaced",
		"doctor_id", doctorID, "entries", len(entries))
	return &model.WeeklyAvailability{DoctorID: doctorID, Entries: entries}, nil
}

func (s *Service) weeklyFor(ctx context.Context, doctorID uuid.UUID) (*model.WeeklyAvailability, error) {
	key := doctorID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.WeeklyAvailability), nil
	}

	weekly, err := s.repo.GetWeekly(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, weekly, gocache.DefaultExpiration)
	return weekly, nil
}
