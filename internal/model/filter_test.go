package model

import (
	"fmt"
	"math/rand"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
)

func makeAppointments(t *testing.T, n int) []Appointment {
	t.Helper()
	appts := make([]Appointment, n)
	for i := range appts {
		appts[i] = Appointment{
			ID:               uuid.New(),
			DoctorID:         uuid.New(),
			AppointmentDate:  NewDate(2026, time.March, 2+i%5),
			StartTime:        ClockTime(9*60 + 30*(i%6)),
			EndTime:          ClockTime(9*60 + 30*(i%6) + 30),
			Duration:         30,
			Type:             AppointmentTypeConsultation,
			Status:           AppointmentStatusScheduled,
			PatientFirstName: fmt.Sprintf("Patient%02d", i),
			CreatedAt:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		}
	}
	return appts
}

func TestFilterQueryRoundTrip(t *testing.T) {
	queries := []FilterQuery{
		{},
		{Search: "maria", Page: 2, PageSize: 25},
		{
			Type:       "follow_up",
			Department: "cardiology",
			Status:     []string{"scheduled", "confirmed"},
			StartDate:  NewDate(2026, time.March, 1),
			EndDate:    NewDate(2026, time.March, 31),
			PatientID:  uuid.New().String(),
			DoctorID:   uuid.New().String(),
			SortBy:     SortByFirstName,
			SortOrder:  SortOrderDesc,
			Page:       3,
			PageSize:   50,
		},
	}

	for _, q := range queries {
		decoded, err := DecodeFilterQuery(q.Encode())
		require.NoError(t, err)
		assert.Equal(t, q, decoded)
	}
}

func TestDecodeFilterQueryDefaults(t *testing.T) {
	q, err := DecodeFilterQuery(url.Values{})
	require.NoError(t, err)

	// Decoding leaves fields unset; defaults only apply at use time.
	assert.Zero(t, q.Page)
	assert.Zero(t, q.PageSize)
	assert.Equal(t, DefaultPageSize, q.EffectivePageSize())
}

func TestDecodeFilterQueryRejectsBadInput(t *testing.T) {
	for _, values := range []url.Values{
		{"sortBy": {"department"}},
		{"sortOrder": {"sideways"}},
		{"startDate": {"03/02/2026"}},
		{"endDate": {"soon"}},
		{"page": {"one"}},
		{"pageSize": {"ten"}},
	} {
		_, err := DecodeFilterQuery(values)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest), "values %v", values)
	}
}

func TestEffectivePageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, FilterQuery{}.EffectivePageSize())
	assert.Equal(t, DefaultPageSize, FilterQuery{PageSize: -5}.EffectivePageSize())
	assert.Equal(t, 25, FilterQuery{PageSize: 25}.EffectivePageSize())
	assert.Equal(t, MaxPageSize, FilterQuery{PageSize: 5000}.EffectivePageSize())
}

func TestApplyPagination(t *testing.T) {
	appts := makeAppointments(t, 25)

	q := FilterQuery{SortBy: SortByCreatedAt, Page: 1, PageSize: 10}
	page1, total := q.Apply(appts)
	require.Equal(t, 25, total)
	assert.Len(t, page1, 10)

	meta := q.PageMeta(total)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 25, meta.TotalCount)

	q.Page = 3
	page3, _ := q.Apply(appts)
	assert.Len(t, page3, 5, "last page holds the remainder")

	// Pages past the end clamp to the last page.
	q.Page = 99
	clamped, _ := q.Apply(appts)
	assert.Equal(t, page3, clamped)
	assert.Equal(t, 3, q.PageMeta(total).CurrentPage)
}

func TestPageMetaEmptySet(t *testing.T) {
	meta := FilterQuery{Page: 5, PageSize: 10}.PageMeta(0)
	assert.Equal(t, 1, meta.CurrentPage, "empty set must not report a page past the end")
	assert.Equal(t, 0, meta.TotalPages)
	assert.Equal(t, 0, meta.TotalCount)

	out, total := FilterQuery{Page: 5, PageSize: 10}.Apply(nil)
	assert.Zero(t, total)
	assert.Empty(t, out)
}

// Concatenating every page in order must reproduce the full filtered
// set, with no item repeated or dropped, regardless of input order.
func TestApplyPageConcatenation(t *testing.T) {
	appts := makeAppointments(t, 47)
	rand.Shuffle(len(appts), func(i, j int) { appts[i], appts[j] = appts[j], appts[i] })

	q := FilterQuery{SortBy: SortByAppointmentDate, PageSize: 10}
	all, total := FilterQuery{SortBy: SortByAppointmentDate, PageSize: MaxPageSize, Page: 1}.Apply(appts)
	require.Equal(t, 47, total)

	var concat []Appointment
	for page := 1; page <= q.PageMeta(total).TotalPages; page++ {
		q.Page = page
		items, _ := q.Apply(appts)
		concat = append(concat, items...)
	}

	require.Len(t, concat, 47)
	assert.Equal(t, all, concat)
}

func TestApplyDeterministicAcrossInputOrder(t *testing.T) {
	appts := makeAppointments(t, 30)
	// Force ties on the sort key so the id tie-break has to do the work.
	shared := NewDate(2026, time.March, 2)
	for i := range appts {
		appts[i].AppointmentDate = shared
	}

	shuffled := make([]Appointment, len(appts))
	copy(shuffled, appts)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	q := FilterQuery{SortBy: SortByAppointmentDate, SortOrder: SortOrderDesc, Page: 2, PageSize: 7}
	a, _ := q.Apply(appts)
	b, _ := q.Apply(shuffled)
	assert.Equal(t, a, b)
}

func TestApplyFilters(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()

	appts := []Appointment{
		{
			ID: uuid.New(), DoctorID: doctorID, PatientID: &patientID,
			AppointmentDate: NewDate(2026, time.March, 2), StartTime: 540, EndTime: 570,
			Type: AppointmentTypeFollowUp, Department: "Cardiology",
			Status: AppointmentStatusScheduled, PatientFirstName: "Maria", PatientLastName: "Gonzalez",
		},
		{
			ID: uuid.New(), DoctorID: uuid.New(),
			AppointmentDate: NewDate(2026, time.March, 10), StartTime: 600, EndTime: 630,
			Type: AppointmentTypeConsultation, Department: "Neurology",
			Status: AppointmentStatusCancelled, PatientFirstName: "John", PatientLastName: "Marsh",
		},
	}

	out, total := FilterQuery{Search: "maria"}.Apply(appts)
	require.Equal(t, 1, total)
	assert.Equal(t, "Maria", out[0].PatientFirstName)

	// Search also hits last names, case-insensitively.
	_, total = FilterQuery{Search: "MARSH"}.Apply(appts)
	assert.Equal(t, 1, total)

	// Legacy hyphenated type spelling matches the canonical one.
	_, total = FilterQuery{Type: "follow-up"}.Apply(appts)
	assert.Equal(t, 1, total)

	_, total = FilterQuery{Department: "cardiology"}.Apply(appts)
	assert.Equal(t, 1, total)

	_, total = FilterQuery{Status: []string{"cancelled", "no_show"}}.Apply(appts)
	assert.Equal(t, 1, total)

	// Date range is inclusive on both ends.
	_, total = FilterQuery{
		StartDate: NewDate(2026, time.March, 2),
		EndDate:   NewDate(2026, time.March, 10),
	}.Apply(appts)
	assert.Equal(t, 2, total)

	_, total = FilterQuery{EndDate: NewDate(2026, time.March, 9)}.Apply(appts)
	assert.Equal(t, 1, total)

	_, total = FilterQuery{PatientID: patientID.String()}.Apply(appts)
	assert.Equal(t, 1, total)

	_, total = FilterQuery{DoctorID: doctorID.String()}.Apply(appts)
	assert.Equal(t, 1, total)

	out, total = FilterQuery{Search: "nobody"}.Apply(appts)
	assert.Equal(t, 0, total)
	assert.NotNil(t, out)
}

func TestApplySortDirections(t *testing.T) {
	appts := makeAppointments(t, 5)

	q := FilterQuery{SortBy: SortByFirstName, SortOrder: SortOrderAsc, PageSize: MaxPageSize}
	asc, _ := q.Apply(appts)
	q.SortOrder = SortOrderDesc
	desc, _ := q.Apply(appts)

	require.Len(t, asc, 5)
	for i := range asc {
		assert.Equal(t, asc[i].ID, desc[len(desc)-1-i].ID)
	}
}
