package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/middleware"
	"github.com/noah-isme/unisupport-api/internal/models"
	"github.com/noah-isme/unisupport-api/internal/service"
	appErrors "github.com/noah-isme/unisupport-api/pkg/errors"
	"github.com/noah-isme/unisupport-api/pkg/response"
)

type wellbeingService interface {
	LogMood(ctx context.Context, actor dto.Actor, req dto.LogMoodRequest) (*models.MoodEntry, error)
	MoodHistory(ctx context.Context, actor dto.Actor) ([]models.MoodEntry, error)
	BookAppointment(ctx context.Context, actor dto.Actor, req dto.BookAppointmentRequest) (*models.Appointment, error)
	Appointments(ctx context.Context, actor dto.Actor) ([]models.Appointment, error)
	Dashboard(ctx context.Context, actor dto.Actor) (*dto.DashboardResponse, error)
}

type exportService interface {
	MoodCSV(ctx context.Context, actor dto.Actor) (*service.ExportFile, error)
	AppointmentsPDF(ctx context.Context, actor dto.Actor) (*service.ExportFile, error)
}

// WellbeingHandler serves the student's own mood and appointment ledger.
type WellbeingHandler struct {
	service wellbeingService
	exports exportService
}

// NewWellbeingHandler constructs the handler.
func NewWellbeingHandler(svc wellbeingService, exports exportService) *WellbeingHandler {
	return &WellbeingHandler{service: svc, exports: exports}
}

// Dashboard godoc
// @Summary Student dashboard
// @Description Latest mood, averages and upcoming appointments for the caller
// @Tags Wellbeing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *WellbeingHandler) Dashboard(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	data, err := h.service.Dashboard(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, middleware.ExtractMeta(c))
}

// LogMood godoc
// @Summary Log a mood score
// @Tags Wellbeing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.LogMoodRequest true "Mood score between 1 and 5"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mood [post]
func (h *WellbeingHandler) LogMood(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.LogMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mood payload"))
		return
	}
	entry, err := h.service.LogMood(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// MoodHistory godoc
// @Summary List mood history
// @Tags Wellbeing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mood [get]
func (h *WellbeingHandler) MoodHistory(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	entries, err := h.service.MoodHistory(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(entries))
	response.JSON(c, http.StatusOK, entries, middleware.ExtractMeta(c))
}

// ExportMood godoc
// @Summary Download mood history as CSV
// @Tags Wellbeing
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /mood/export [get]
func (h *WellbeingHandler) ExportMood(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.exports.MoodCSV(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// BookAppointment godoc
// @Summary Book an appointment
// @Description Books a weekday slot between 09:00 and 17:00 with a support service
// @Tags Wellbeing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BookAppointmentRequest true "Service type and date (YYYY-MM-DD HH:MM)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments [post]
func (h *WellbeingHandler) BookAppointment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appointment payload"))
		return
	}
	appointment, err := h.service.BookAppointment(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appointment)
}

// Appointments godoc
// @Summary List booked appointments
// @Tags Wellbeing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *WellbeingHandler) Appointments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	appointments, err := h.service.Appointments(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(appointments))
	response.JSON(c, http.StatusOK, appointments, middleware.ExtractMeta(c))
}

// ExportAppointments godoc
// @Summary Download appointments as PDF
// @Tags Wellbeing
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} file
// @Router /appointments/export [get]
func (h *WellbeingHandler) ExportAppointments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.exports.AppointmentsPDF(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
