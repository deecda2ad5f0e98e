package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/middleware"
	"github.com/noah-isme/unisupport-api/internal/models"
	appErrors "github.com/noah-isme/unisupport-api/pkg/errors"
	"github.com/noah-isme/unisupport-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context) ([]models.SupportService, error)
	Get(ctx context.Context, id string) (*models.SupportService, error)
	Create(ctx context.Context, req dto.CreateSupportServiceRequest) (*models.SupportService, error)
	AvailableSlots(ctx context.Context, serviceID string) ([]models.AppointmentSlot, error)
	Replenish(ctx context.Context, serviceID string) (*dto.ReplenishResult, error)
}

// CatalogHandler exposes support services and their open slots.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary List support services
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /services [get]
func (h *CatalogHandler) List(c *gin.Context) {
	services, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(services))
	response.JSON(c, http.StatusOK, services, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get support service
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /services/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	svc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc)
}

// Create godoc
// @Summary Create support service
// @Description Registers a service and generates its first two weeks of slots
// @Tags Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateSupportServiceRequest true "Service payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /services [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.CreateSupportServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid service payload"))
		return
	}
	svc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.ResourceIDKey, svc.ID)
	response.Created(c, svc)
}

// Slots godoc
// @Summary List available slots
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /services/{id}/slots [get]
func (h *CatalogHandler) Slots(c *gin.Context) {
	slots, err := h.service.AvailableSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(slots))
	response.JSON(c, http.StatusOK, slots, middleware.ExtractMeta(c))
}

// Replenish godoc
// @Summary Top up a service's slots
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /services/{id}/replenish [post]
func (h *CatalogHandler) Replenish(c *gin.Context) {
	result, err := h.service.Replenish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
