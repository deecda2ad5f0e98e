package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unisupport-api/internal/models"
)

// LedgerRepository stores mood entries and appointments.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs a LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// AppendMood inserts a mood entry.
func (r *LedgerRepository) AppendMood(ctx context.Context, entry *models.MoodEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `INSERT INTO mood_entries (id, student_id, score, logged_at) VALUES (:id, :student_id, :score, :logged_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}
	return nil
}

// MoodHistory lists a student's mood entries in insertion order.
func (r *LedgerRepository) MoodHistory(ctx context.Context, studentID string) ([]models.MoodEntry, error) {
	const query = `SELECT id, student_id, score, logged_at FROM mood_entries WHERE student_id = $1 ORDER BY seq ASC`
	var entries []models.MoodEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	return entries, nil
}

// AppendAppointment inserts an appointment with the next per-student sequence.
func (r *LedgerRepository) AppendAppointment(ctx context.Context, appointment *models.Appointment) (err error) {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appointment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const nextSeq = `SELECT COALESCE(MAX(sequence), 0) + 1 FROM appointments WHERE student_id = $1`
	if err = tx.GetContext(ctx, &appointment.Sequence, nextSeq, appointment.StudentID); err != nil {
		return fmt.Errorf("next appointment sequence: %w", err)
	}

	const insert = `INSERT INTO appointments (id, student_id, sequence, service_type, scheduled_at, status, created_at) VALUES (:id, :student_id, :sequence, :service_type, :scheduled_at, :status, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, appointment); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment tx: %w", err)
	}
	return nil
}

// Appointments lists a student's appointments by sequence.
func (r *LedgerRepository) Appointments(ctx context.Context, studentID string) ([]models.Appointment, error) {
	const query = `SELECT id, student_id, sequence, service_type, scheduled_at, status, created_at FROM appointments WHERE student_id = $1 ORDER BY sequence ASC`
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, studentID); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}
