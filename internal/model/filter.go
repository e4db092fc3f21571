package model

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/healthbook/scheduling-api/pkg/errors"
)

const (
	SortByAppointmentDate = "appointmentDate"
	SortByCreatedAt       = "createdAt"
	SortByFirstName       = "firstName"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// FilterQuery is the query contract shared by every appointment list
// view. It is value-typed and never mutated by Apply; each caller owns
// its own instance.
type FilterQuery struct {
	Search     string   `json:"search,omitempty"`
	Type       string   `json:"type,omitempty"`
	Department string   `json:"department,omitempty"`
	Status     []string `json:"status,omitempty"`
	StartDate  Date     `json:"startDate,omitempty"`
	EndDate    Date     `json:"endDate,omitempty"`
	PatientID  string   `json:"patientId,omitempty"`
	DoctorID   string   `json:"doctorId,omitempty"`
	SortBy     string   `json:"sortBy,omitempty"`
	SortOrder  string   `json:"sortOrder,omitempty"`
	Page       int      `json:"page,omitempty"`
	PageSize   int      `json:"pageSize,omitempty"`
}

// DecodeFilterQuery parses the flat query-string representation.
// Absent keys leave fields unset, so decode(encode(q)) == q.
func DecodeFilterQuery(values url.Values) (FilterQuery, error) {
	var q FilterQuery

	q.Search = values.Get("search")
	q.Type = values.Get("type")
	q.Department = values.Get("department")
	q.PatientID = values.Get("patientId")
	q.DoctorID = values.Get("doctorId")

	if s := values.Get("status"); s != "" {
		q.Status = strings.Split(s, ",")
	}

	if s := values.Get("startDate"); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			return q, errors.NewBadRequest("invalid startDate", err)
		}
		q.StartDate = d
	}
	if s := values.Get("endDate"); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			return q, errors.NewBadRequest("invalid endDate", err)
		}
		q.EndDate = d
	}

	switch sortBy := values.Get("sortBy"); sortBy {
	case "", SortByAppointmentDate, SortByCreatedAt, SortByFirstName:
		q.SortBy = sortBy
	default:
		return q, errors.NewBadRequest("invalid sortBy: "+sortBy, nil)
	}

	switch order := values.Get("sortOrder"); order {
	case "", SortOrderAsc, SortOrderDesc:
		q.SortOrder = order
	default:
		return q, errors.NewBadRequest("invalid sortOrder: "+order, nil)
	}

	if s := values.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil {
			return q, errors.NewBadRequest("invalid page", err)
		}
		q.Page = page
	}
	if s := values.Get("pageSize"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil {
			return q, errors.NewBadRequest("invalid pageSize", err)
		}
		q.PageSize = size
	}

	return q, nil
}

// Encode produces the flat query-string representation. Unset fields
// are omitted so the encoding round-trips.
func (q FilterQuery) Encode() url.Values {
	values := url.Values{}

	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Type != "" {
		values.Set("type", q.Type)
	}
	if q.Department != "" {
		values.Set("department", q.Department)
	}
	if len(q.Status) > 0 {
		values.Set("status", strings.Join(q.Status, ","))
	}
	if !q.StartDate.IsZero() {
		values.Set("startDate", q.StartDate.String())
	}
	if !q.EndDate.IsZero() {
		values.Set("endDate", q.EndDate.String())
	}
	if q.PatientID != "" {
		values.Set("patientId", q.PatientID)
	}
	if q.DoctorID != "" {
		values.Set("doctorId", q.DoctorID)
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		values.Set("sortOrder", q.SortOrder)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	return values
}

// EffectivePageSize normalizes the page size into [1, MaxPageSize].
func (q FilterQuery) EffectivePageSize() int {
	switch {
	case q.PageSize <= 0:
		return DefaultPageSize
	case q.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return q.PageSize
	}
}

// PageMeta computes the pagination metadata for a filtered total,
// clamping the requested page into the valid range.
func (q FilterQuery) PageMeta(totalCount int) Pagination {
	pageSize := q.EffectivePageSize()
	totalPages := (totalCount + pageSize - 1) / pageSize

	page := q.Page
	switch {
	case totalPages == 0:
		// An empty result set still reports a real page.
		page = 1
	case page < 1:
		page = 1
	case page > totalPages:
		page = totalPages
	}

	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
	}
}

// Apply filters, sorts, and slices the given snapshot. The sort is
// stable with ties broken by id ascending, so repeated calls paginate
// identically and concatenating all pages reproduces the filtered set.
func (q FilterQuery) Apply(appointments []Appointment) ([]Appointment, int) {
	filtered := make([]Appointment, 0, len(appointments))
	for i := range appointments {
		if q.matches(&appointments[i]) {
			filtered = append(filtered, appointments[i])
		}
	}

	q.sortAppointments(filtered)

	total := len(filtered)
	meta := q.PageMeta(total)
	pageSize := q.EffectivePageSize()

	start := (meta.CurrentPage - 1) * pageSize
	if start >= total {
		return []Appointment{}, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return filtered[start:end], total
}

func (q FilterQuery) matches(a *Appointment) bool {
	if q.Search != "" && !matchesSearch(a, q.Search) {
		return false
	}
	if q.Type != "" && a.Type != NormalizeAppointmentType(q.Type) {
		return false
	}
	if q.Department != "" && !strings.EqualFold(a.Department, q.Department) {
		return false
	}
	if len(q.Status) > 0 {
		found := false
		for _, s := range q.Status {
			if a.Status == AppointmentStatus(s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !q.StartDate.IsZero() && a.AppointmentDate.Before(q.StartDate.Time) {
		return false
	}
	if !q.EndDate.IsZero() && a.AppointmentDate.After(q.EndDate.Time) {
		return false
	}
	if q.PatientID != "" {
		if a.PatientID == nil || a.PatientID.String() != q.PatientID {
			return false
		}
	}
	if q.DoctorID != "" && a.DoctorID.String() != q.DoctorID {
		return false
	}
	return true
}

func matchesSearch(a *Appointment, search string) bool {
	needle := strings.ToLower(search)
	for _, hay := range []string{
		a.PatientFirstName,
		a.PatientLastName,
		a.Reason,
		a.Department,
	} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func (q FilterQuery) sortAppointments(appointments []Appointment) {
	desc := q.SortOrder == SortOrderDesc

	sort.SliceStable(appointments, func(i, j int) bool {
		cmp := q.compareKey(&appointments[i], &appointments[j])
		if cmp == 0 {
			// Id tie-break stays ascending regardless of direction so
			// pagination is deterministic.
			return appointments[i].ID.String() < appointments[j].ID.String()
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func (q FilterQuery) compareKey(a, b *Appointment) int {
	switch q.SortBy {
	case SortByCreatedAt:
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return 1
		}
		return 0
	case SortByFirstName:
		return strings.Compare(
			strings.ToLower(a.PatientFirstName),
			strings.ToLower(b.PatientFirstName),
		)
	default: // appointmentDate
		if a.AppointmentDate.Before(b.AppointmentDate.Time) {
			return -1
		}
		if a.AppointmentDate.After(b.AppointmentDate.Time) {
			return 1
		}
		return 0
	}
}
