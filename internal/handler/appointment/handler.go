package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbook/scheduling-api/internal/handler"
	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/internal/service/appointment"
	apperrors "github.com/healthbook/scheduling-api/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.GET("/:id/transitions", h.GetLegalTransitions)
		appointments.PUT("/:id/reschedule", h.RescheduleAppointment)
		appointments.PUT("/:id/status", h.UpdateAppointmentStatus)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var patientID *uuid.UUID
	if req.PatientID != "" {
		id, err := uuid.Parse(req.PatientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
			return
		}
		patientID = &id
	}

	date, err := model.ParseDate(req.AppointmentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	timeRange, err := model.ParseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if req.Duration != timeRange.Duration() {
		handler.RespondError(c, apperrors.NewBadRequest("duration does not match start and end times", nil))
		return
	}

	appt, err := h.service.Book(c.Request.Context(), appointment.BookParams{
		DoctorID:   doctorID,
		PatientID:  patientID,
		Date:       date,
		Range:      timeRange,
		Type:       model.NormalizeAppointmentType(req.Type),
		Reason:     req.Reason,
		Notes:      req.Notes,
		Department: req.Department,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// ListAppointments serves every appointment list view through the
// shared FilterQuery contract.
func (h *Handler) ListAppointments(c *gin.Context) {
	query, err := model.DecodeFilterQuery(c.Request.URL.Query())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	appointments, total, err := h.service.ListAppointments(c.Request.Context(), query)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if appointments == nil {
		appointments = []model.Appointment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       appointments,
		"pagination": query.PageMeta(total),
	})
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	date, err := model.ParseDate(req.NewAppointmentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	timeRange, err := model.ParseTimeRange(req.NewStartTime, req.NewEndTime)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	appt, err := h.service.Reschedule(c.Request.Context(), id, date, timeRange)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// UpdateAppointmentStatus is also the cancellation path; there is no
// DELETE for appointments.
func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	requested := model.AppointmentStatus(req.Status)

	var appt *model.Appointment
	if requested == model.AppointmentStatusCancelled {
		appt, err = h.service.Cancel(c.Request.Context(), id, req.Reason)
	} else {
		appt, err = h.service.UpdateStatus(c.Request.Context(), id, requested)
	}
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

func (h *Handler) GetLegalTransitions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	transitions, err := h.service.LegalTransitions(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if transitions == nil {
		transitions = []model.AppointmentStatus{}
	}

	c.JSON(http.StatusOK, gin.H{"transitions": transitions})
}
