package availability

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbook/scheduling-api/internal/handler"
	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/internal/service/availability"
)

const defaultSlotDuration = 30

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("/:doctorId/availability", h.GetAvailability)
		doctors.GET("/:doctorId/schedule", h.GetSchedule)
		doctors.PUT("/:doctorId/schedule", h.SetSchedule)
	}
}

// GetAvailability returns bookable slots for one date, or for every
// date up to endDate when given.
func (h *Handler) GetAvailability(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	duration := defaultSlotDuration
	if s := c.Query("duration"); s != "" {
		duration, err = strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid duration"))
			return
		}
	}

	if endStr := c.Query("endDate"); endStr != "" {
		endDate, err := model.ParseDate(endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}

		days, err := h.service.GetAvailableSlotsRange(c.Request.Context(), doctorID, date, endDate, duration)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"days": days})
		return
	}

	slots, err := h.service.GetAvailableSlots(c.Request.Context(), doctorID, date, duration)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) GetSchedule(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	weekly, err := h.service.GetWeeklySchedule(c.Request.Context(), doctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, weekly)
}

func (h *Handler) SetSchedule(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	var req model.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	weekly, err := h.service.SetWeeklySchedule(c.Request.Context(), doctorID, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, weekly)
}
