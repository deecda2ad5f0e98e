// Package ledger records a student's mood entries and appointments.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/models"
)

// Store persists ledger records. AppendAppointment assigns the appointment ID
// and its per-student sequence number.
type Store interface {
	AppendMood(ctx context.Context, entry *models.MoodEntry) error
	MoodHistory(ctx context.Context, studentID string) ([]models.MoodEntry, error)
	AppendAppointment(ctx context.Context, appointment *models.Appointment) error
	Appointments(ctx context.Context, studentID string) ([]models.Appointment, error)
}

// SlotTracker flags booked slots. MarkUnavailable is a no-op when the slot is
// missing or already unavailable.
type SlotTracker interface {
	MarkUnavailable(ctx context.Context, serviceType string, at time.Time) error
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithSlotTracker enables slot availability tracking on booking.
func WithSlotTracker(tracker SlotTracker) Option {
	return func(l *Ledger) {
		l.slots = tracker
	}
}

// WithLogger sets the logger used for non-fatal booking failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Ledger is the booking ledger of a single student.
type Ledger struct {
	student models.Student
	store   Store
	slots   SlotTracker
	clock   Clock
	logger  *zap.Logger
}

// New builds a ledger for student backed by store.
func New(student models.Student, store Store, opts ...Option) *Ledger {
	l := &Ledger{student: student, store: store, clock: SystemClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Student returns the ledger owner.
func (l *Ledger) Student() models.Student {
	return l.student
}

// LogMood appends a mood entry stamped with the current time.
func (l *Ledger) LogMood(ctx context.Context, score int) (*models.MoodEntry, error) {
	if score < models.MinMoodScore || score > models.MaxMoodScore {
		return nil, &RangeError{Field: "score", Value: score, Min: models.MinMoodScore, Max: models.MaxMoodScore}
	}

	entry := &models.MoodEntry{
		StudentID: l.student.ID,
		Score:     score,
		LoggedAt:  l.clock.Now(),
	}
	if err := l.store.AppendMood(ctx, entry); err != nil {
		return nil, fmt.Errorf("append mood: %w", err)
	}
	return entry, nil
}

// BookAppointment schedules an appointment with serviceType at when. Once the
// appointment is stored the matching slot, if tracked, is marked unavailable;
// a failure to mark it is logged and does not undo the booking. Booking the
// same slot twice leaves it unavailable and records both appointments.
func (l *Ledger) BookAppointment(ctx context.Context, serviceType string, when time.Time) (*models.Appointment, error) {
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" {
		return nil, fmt.Errorf("%w: service type is required", ErrValidation)
	}

	now := l.clock.Now()
	if when.Before(now) {
		return nil, &TemporalError{At: when, Reason: "appointment time cannot be in the past"}
	}

	appointment := &models.Appointment{
		StudentID:   l.student.ID,
		ServiceType: serviceType,
		ScheduledAt: when,
		Status:      models.AppointmentStatusScheduled,
		CreatedAt:   now,
	}
	if err := l.store.AppendAppointment(ctx, appointment); err != nil {
		return nil, fmt.Errorf("append appointment: %w", err)
	}

	if l.slots != nil {
		if err := l.slots.MarkUnavailable(ctx, serviceType, when); err != nil {
			l.logger.Warn("failed to mark slot unavailable",
				zap.String("student_id", l.student.ID),
				zap.String("service_type", serviceType),
				zap.Time("scheduled_at", when),
				zap.Error(err))
		}
	}
	return appointment, nil
}

// MoodHistory returns every mood entry in the order it was logged.
func (l *Ledger) MoodHistory(ctx context.Context) ([]models.MoodEntry, error) {
	entries, err := l.store.MoodHistory(ctx, l.student.ID)
	if err != nil {
		return nil, fmt.Errorf("load mood history: %w", err)
	}
	return entries, nil
}

// Appointments returns every appointment in booking order.
func (l *Ledger) Appointments(ctx context.Context) ([]models.Appointment, error) {
	appointments, err := l.store.Appointments(ctx, l.student.ID)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	return appointments, nil
}
