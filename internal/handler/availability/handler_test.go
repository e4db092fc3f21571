package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbook/scheduling-api/internal/handler"
	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/internal/repository"
	availabilityService "github.com/healthbook/scheduling-api/internal/service/availability"
	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
	"github.com/healthbook/scheduling-api/pkg/logger"
	"github.com/healthbook/scheduling-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "availability_handler")

type memoryScheduleRepo struct {
	entries map[uuid.UUID][]model.AvailabilityEntry
}

func (r *memoryScheduleRepo) GetWeekly(_ context.Context, doctorID uuid.UUID) (*model.WeeklyAvailability, error) {
	return &model.WeeklyAvailability{DoctorID: doctorID, Entries: r.entries[doctorID]}, nil
}

func (r *memoryScheduleRepo) ReplaceWeekly(_ context.Context, doctorID uuid.UUID, entries []model.AvailabilityEntry) error {
	r.entries[doctorID] = entries
	return nil
}

type noAppointments struct{}

func (noAppointments) Create(context.Context, *model.Appointment) error { return nil }
func (noAppointments) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NewNotFound("appointment", nil)
}
func (noAppointments) Update(context.Context, *model.Appointment) error { return nil }
func (noAppointments) List(context.Context, model.FilterQuery) ([]model.Appointment, int, error) {
	return nil, 0, nil
}
func (noAppointments) ListForDoctorDate(context.Context, uuid.UUID, model.Date) ([]model.Appointment, error) {
	return nil, nil
}
func (noAppointments) CreateEvent(context.Context, *model.OutboxEvent) error { return nil }
func (noAppointments) Transact(_ context.Context, fn func(repository.AppointmentRepository) error) error {
	return fn(noAppointments{})
}

func setupRouter(t *testing.T) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler.RegisterValidations()

	doctorID := uuid.New()
	repo := &memoryScheduleRepo{entries: map[uuid.UUID][]model.AvailabilityEntry{
		doctorID: {{
			Day:         model.WeekdayMonday,
			StartTime:   model.ClockTime(9 * 60),
			EndTime:     model.ClockTime(12 * 60),
			IsAvailable: true,
		}},
	}}

	svc := availabilityService.NewService(repo, noAppointments{}, testMetrics, logger.NewLogger(nil))

	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine, doctorID
}

func get(t *testing.T, engine *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetAvailability(t *testing.T) {
	engine, doctorID := setupRouter(t)

	// 2026-03-02 is a Monday.
	w := get(t, engine, "/api/v1/doctors/"+doctorID.String()+"/availability?date=2026-03-02&duration=30")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	slots := decodeBody(t, w)["slots"].([]interface{})
	require.Len(t, slots, 6)

	first := slots[0].(map[string]interface{})
	assert.Equal(t, "09:00", first["startTime"])
	assert.Equal(t, "09:30", first["endTime"])
}

func TestGetAvailabilityOffDay(t *testing.T) {
	engine, doctorID := setupRouter(t)

	w := get(t, engine, "/api/v1/doctors/"+doctorID.String()+"/availability?date=2026-03-03")
	require.Equal(t, http.StatusOK, w.Code)

	slots, ok := decodeBody(t, w)["slots"].([]interface{})
	require.True(t, ok, "slots must be an array, not null")
	assert.Empty(t, slots)
}

func TestGetAvailabilityValidation(t *testing.T) {
	engine, doctorID := setupRouter(t)
	base := "/api/v1/doctors/" + doctorID.String() + "/availability"

	w := get(t, engine, base)
	assert.Equal(t, http.StatusBadRequest, w.Code, "date is required")

	w = get(t, engine, base+"?date=03/02/2026")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, engine, base+"?date=2026-03-02&duration=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidDuration", decodeBody(t, w)["error"])
}

func TestGetAvailabilityRange(t *testing.T) {
	engine, doctorID := setupRouter(t)

	w := get(t, engine, "/api/v1/doctors/"+doctorID.String()+"/availability?date=2026-03-02&endDate=2026-03-04")
	require.Equal(t, http.StatusOK, w.Code)

	days := decodeBody(t, w)["days"].(map[string]interface{})
	require.Len(t, days, 3)
	assert.Len(t, days["2026-03-02"], 6)
	assert.Empty(t, days["2026-03-03"])
}

func TestSetAndGetSchedule(t *testing.T) {
	engine, doctorID := setupRouter(t)
	path := "/api/v1/doctors/" + doctorID.String() + "/schedule"

	body := `{"entries":[
		{"day":"tuesday","startTime":"13:00","endTime":"17:00","isAvailable":true},
		{"day":"wednesday","startTime":"08:00","endTime":"12:00","isAvailable":false}
	]}`
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(t, engine, path)
	require.Equal(t, http.StatusOK, w.Code)

	entries := decodeBody(t, w)["entries"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "tuesday", first["day"])
	assert.Equal(t, "13:00", first["startTime"])
}
