package service

import (
	"context"
	"database/sql"
	"encoding/json"
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

// Accepted layouts for appointment dates, tried in order.
var appointmentDateLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", time.RFC3339}

type auditLogRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type serviceCatalog interface {
	ServiceByType(ctx context.Context, serviceType string) (*models.SupportService, error)
	MarkUnavailable(ctx context.Context, serviceType string, at time.Time) error
}

// WellbeingConfig configures time handling for the wellbeing flows.
type WellbeingConfig struct {
	Location *time.Location
	Clock    ledger.Clock
}

// WellbeingService runs ledger operations on behalf of authenticated users.
type WellbeingService struct {
	students  studentProfileRepository
	store     ledger.Store
	catalog   serviceCatalog
	audit     auditLogRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       WellbeingConfig
}

// NewWellbeingService constructs a WellbeingService.
func NewWellbeingService(students studentProfileRepository, store ledger.Store, catalog serviceCatalog, audit auditLogRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg WellbeingConfig) *WellbeingService {
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
	return &WellbeingService{
		students:  students,
		store:     store,
		catalog:   catalog,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// LogMood records a mood score for the actor.
func (s *WellbeingService) LogMood(ctx context.Context, actor dto.Actor, req dto.LogMoodRequest) (*models.MoodEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "score is required")
	}
	l, err := s.ledgerFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	entry, err := l.LogMood(ctx, *req.Score)
	if err != nil {
		return nil, s.ledgerError(err, "log_mood", "failed to log mood")
	}
	s.metrics.RecordMood(entry.Score)
	return entry, nil
}

// MoodHistory returns the actor's mood entries in logging order.
func (s *WellbeingService) MoodHistory(ctx context.Context, actor dto.Actor) ([]models.MoodEntry, error) {
	l, err := s.ledgerFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	entries, err := l.MoodHistory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood history")
	}
	if entries == nil {
		entries = []models.MoodEntry{}
	}
	return entries, nil
}

// BookAppointment validates the request against the catalog and operating
// hours, then books it on the actor's ledger.
func (s *WellbeingService) BookAppointment(ctx context.Context, actor dto.Actor, req dto.BookAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "service_type and date are required")
	}

	service, err := s.catalog.ServiceByType(ctx, req.ServiceType)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown service type")
		}
		return nil, err
	}
	if !service.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "service is not accepting appointments")
	}

	when, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := scheduling.CheckOperatingHours(when); err != nil {
		s.metrics.RecordValidationFailure("book_appointment")
		return nil, appErrors.Validation(err)
	}

	l, err := s.ledgerFor(ctx, actor, ledger.WithSlotTracker(s.catalog))
	if err != nil {
		return nil, err
	}
	appointment, err := l.BookAppointment(ctx, service.ServiceType, when)
	if err != nil {
		return nil, s.ledgerError(err, "book_appointment", "failed to book appointment")
	}

	s.metrics.RecordBooking(appointment.ServiceType)
	s.recordBookingAudit(ctx, actor, appointment)
	s.logger.Info("appointment booked",
		zap.String("student_id", appointment.StudentID),
		zap.String("service_type", appointment.ServiceType),
		zap.Time("scheduled_at", appointment.ScheduledAt),
		zap.Int("sequence", appointment.Sequence))
	return appointment, nil
}

// Appointments returns the actor's appointments in booking order.
func (s *WellbeingService) Appointments(ctx context.Context, actor dto.Actor) ([]models.Appointment, error) {
	l, err := s.ledgerFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	appointments, err := l.Appointments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}
	return appointments, nil
}

// Dashboard summarises the actor's mood log and upcoming appointments.
func (s *WellbeingService) Dashboard(ctx context.Context, actor dto.Actor) (*dto.DashboardResponse, error) {
	l, err := s.ledgerFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	moods, err := l.MoodHistory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood history")
	}
	appointments, err := l.Appointments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}

	resp := &dto.DashboardResponse{
		Student:              l.Student(),
		MoodCount:            len(moods),
		AppointmentCount:     len(appointments),
		UpcomingAppointments: []models.Appointment{},
	}
	if len(moods) > 0 {
		latest := moods[len(moods)-1]
		resp.LatestMood = &latest
		resp.LatestMoodLabel = models.MoodLabel(latest.Score)
		total := 0
		for _, m := range moods {
			total += m.Score
		}
		resp.AverageMood = float64(total) / float64(len(moods))
	}
	now := s.cfg.Clock.Now()
	for _, a := range appointments {
		if a.Status == models.AppointmentStatusScheduled && !a.ScheduledAt.Before(now) {
			resp.UpcomingAppointments = append(resp.UpcomingAppointments, a)
		}
	}
	return resp, nil
}

func (s *WellbeingService) ledgerFor(ctx context.Context, actor dto.Actor, opts ...ledger.Option) (*ledger.Ledger, error) {
	student, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		student = &models.Student{UserID: actor.UserID, Name: actor.Username}
		if err := s.students.Create(ctx, student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
		}
	}
	opts = append([]ledger.Option{ledger.WithClock(s.cfg.Clock), ledger.WithLogger(s.logger)}, opts...)
	return ledger.New(*student, s.store, opts...), nil
}

func (s *WellbeingService) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range appointmentDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.cfg.Location); err == nil {
			return t.In(s.cfg.Location), nil
		}
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD HH:MM")
}

func (s *WellbeingService) ledgerError(err error, operation, message string) error {
	if errors.Is(err, ledger.ErrValidation) {
		s.metrics.RecordValidationFailure(operation)
		return appErrors.Validation(err)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *WellbeingService) recordBookingAudit(ctx context.Context, actor dto.Actor, appointment *models.Appointment) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"service_type": appointment.ServiceType,
		"scheduled_at": appointment.ScheduledAt,
		"sequence":     appointment.Sequence,
	})
	if err != nil {
		s.logger.Warn("failed to encode booking audit payload", zap.Error(err))
		return
	}
	userID := actor.UserID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionAppointmentBook,
		Resource:   "appointment",
		ResourceID: &appointment.ID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record booking audit log", zap.Error(err))
	}
}
