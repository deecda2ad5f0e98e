package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/ledger"
	"github.com/noah-isme/unisupport-api/internal/models"
	"github.com/noah-isme/unisupport-api/internal/scheduling"
	appErrors "github.com/noah-isme/unisupport-api/pkg/errors"
)

type supportServiceRepository interface {
	List(ctx context.Context) ([]models.SupportService, error)
	FindByID(ctx context.Context, id string) (*models.SupportService, error)
	FindByType(ctx context.Context, serviceType string) (*models.SupportService, error)
	Create(ctx context.Context, service *models.SupportService, slots []models.AppointmentSlot) error
	InsertSlots(ctx context.Context, slots []models.AppointmentSlot) (int, error)
	AvailableSlots(ctx context.Context, serviceID string, after time.Time) ([]models.AppointmentSlot, error)
	MarkUnavailable(ctx context.Context, serviceType string, at time.Time) error
}

// CatalogConfig tunes slot generation and caching.
type CatalogConfig struct {
	Location *time.Location
	SlotsTTL time.Duration
	Clock    ledger.Clock
}

// CatalogService manages support services and their appointment slots.
type CatalogService struct {
	repo      supportServiceRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CatalogConfig
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo supportServiceRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CatalogConfig) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = ledger.SystemClock{}
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

func (s *CatalogService) now() time.Time {
	return s.cfg.Clock.Now().In(s.cfg.Location)
}

// List returns every support service.
func (s *CatalogService) List(ctx context.Context) ([]models.SupportService, error) {
	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list support services")
	}
	if services == nil {
		services = []models.SupportService{}
	}
	return services, nil
}

// Get returns a support service by ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.SupportService, error) {
	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "support service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support service")
	}
	return service, nil
}

// ServiceByType returns the support service for a category tag.
func (s *CatalogService) ServiceByType(ctx context.Context, serviceType string) (*models.SupportService, error) {
	service, err := s.repo.FindByType(ctx, normaliseServiceType(serviceType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "support service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support service")
	}
	return service, nil
}

// Create registers a support service and generates its slots for the booking horizon.
func (s *CatalogService) Create(ctx context.Context, req dto.CreateSupportServiceRequest) (*models.SupportService, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ServiceType = normaliseServiceType(req.ServiceType)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid support service payload")
	}

	if _, err := s.repo.FindByType(ctx, req.ServiceType); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "service type already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check service type")
	}

	service := &models.SupportService{Name: req.Name, ServiceType: req.ServiceType, Active: true}
	slots := scheduling.Collect(scheduling.GenerateSlots(*service, s.now()))
	if err := s.repo.Create(ctx, service, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create support service")
	}

	s.logger.Info("support service created",
		zap.String("service_id", service.ID),
		zap.String("service_type", service.ServiceType),
		zap.Int("slots", len(slots)))
	return service, nil
}

// AvailableSlots lists open slots of a service that start after now.
func (s *CatalogService) AvailableSlots(ctx context.Context, serviceID string) ([]models.AppointmentSlot, error) {
	if _, err := s.Get(ctx, serviceID); err != nil {
		return nil, err
	}

	key := SlotsCacheKey(serviceID)
	var cached []models.AppointmentSlot
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return dropStarted(cached, s.now()), nil
	}

	slots, err := s.repo.AvailableSlots(ctx, serviceID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available slots")
	}
	if slots == nil {
		slots = []models.AppointmentSlot{}
	}
	_ = s.cache.Set(ctx, key, slots, s.cfg.SlotsTTL)
	return slots, nil
}

// MarkUnavailable flags a booked slot and drops the cached listing of its
// service. Unknown service types are ignored.
func (s *CatalogService) MarkUnavailable(ctx context.Context, serviceType string, at time.Time) error {
	service, err := s.repo.FindByType(ctx, normaliseServiceType(serviceType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if err := s.repo.MarkUnavailable(ctx, service.ServiceType, at); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, SlotsCacheKey(service.ID))
	return nil
}

// Replenish tops up a service's slots so the full horizon from now is covered.
func (s *CatalogService) Replenish(ctx context.Context, serviceID string) (*dto.ReplenishResult, error) {
	service, err := s.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	result := &dto.ReplenishResult{ServiceID: service.ID}
	if !service.Active {
		return result, nil
	}

	slots := scheduling.Collect(scheduling.GenerateSlots(*service, s.now()))
	inserted, err := s.repo.InsertSlots(ctx, slots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replenish slots")
	}
	result.Inserted = inserted
	if inserted > 0 {
		_ = s.cache.Invalidate(ctx, SlotsCacheKey(service.ID))
		s.metrics.RecordReplenished(service.ServiceType, inserted)
		s.logger.Info("slots replenished", zap.String("service_id", service.ID), zap.Int("inserted", inserted))
	}
	return result, nil
}

func dropStarted(slots []models.AppointmentSlot, now time.Time) []models.AppointmentSlot {
	out := make([]models.AppointmentSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.StartsAt.After(now) {
			out = append(out, slot)
		}
	}
	return out
}

func normaliseServiceType(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
