package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unisupport-api/internal/models"
)

// SupportServiceRepository persists support services and their appointment slots.
type SupportServiceRepository struct {
	db *sqlx.DB
}

// NewSupportServiceRepository constructs a SupportServiceRepository.
func NewSupportServiceRepository(db *sqlx.DB) *SupportServiceRepository {
	return &SupportServiceRepository{db: db}
}

// List returns every support service ordered by name.
func (r *SupportServiceRepository) List(ctx context.Context) ([]models.SupportService, error) {
	const query = `SELECT id, name, service_type, active, created_at FROM support_services ORDER BY name ASC`
	var services []models.SupportService
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("list support services: %w", err)
	}
	return services, nil
}

// FindByID returns a support service by identifier.
func (r *SupportServiceRepository) FindByID(ctx context.Context, id string) (*models.SupportService, error) {
	const query = `SELECT id, name, service_type, active, created_at FROM support_services WHERE id = $1 LIMIT 1`
	var service models.SupportService
	if err := r.db.GetContext(ctx, &service, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find support service: %w", err)
	}
	return &service, nil
}

// FindByType returns a support service by its category tag.
func (r *SupportServiceRepository) FindByType(ctx context.Context, serviceType string) (*models.SupportService, error) {
	const query = `SELECT id, name, service_type, active, created_at FROM support_services WHERE service_type = $1 LIMIT 1`
	var service models.SupportService
	if err := r.db.GetContext(ctx, &service, query, serviceType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find support service by type: %w", err)
	}
	return &service, nil
}

// Create inserts a support service together with its initial slots.
func (r *SupportServiceRepository) Create(ctx context.Context, service *models.SupportService, slots []models.AppointmentSlot) (err error) {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin support service tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO support_services (id, name, service_type, active, created_at) VALUES (:id, :name, :service_type, :active, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, service); err != nil {
		return fmt.Errorf("insert support service: %w", err)
	}

	for i := range slots {
		slots[i].ServiceID = service.ID
	}
	if _, err = insertSlots(ctx, tx, slots); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit support service tx: %w", err)
	}
	return nil
}

// InsertSlots stores slots that do not exist yet and returns how many were added.
func (r *SupportServiceRepository) InsertSlots(ctx context.Context, slots []models.AppointmentSlot) (int, error) {
	return insertSlots(ctx, r.db, slots)
}

func insertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.AppointmentSlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
	}
	const query = `INSERT INTO appointment_slots (id, service_id, starts_at, available) VALUES (:id, :service_id, :starts_at, :available) ON CONFLICT (service_id, starts_at) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, exec, query, slots)
	if err != nil {
		return 0, fmt.Errorf("insert appointment slots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert appointment slots: %w", err)
	}
	return int(affected), nil
}

// AvailableSlots lists a service's open slots starting after the given time.
func (r *SupportServiceRepository) AvailableSlots(ctx context.Context, serviceID string, after time.Time) ([]models.AppointmentSlot, error) {
	const query = `SELECT id, service_id, starts_at, available FROM appointment_slots WHERE service_id = $1 AND available = TRUE AND starts_at > $2 ORDER BY starts_at ASC`
	var slots []models.AppointmentSlot
	if err := r.db.SelectContext(ctx, &slots, query, serviceID, after); err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slots, nil
}

// MarkUnavailable flags the slot of serviceType starting at the given time as
// booked. Missing or already booked slots are left untouched.
func (r *SupportServiceRepository) MarkUnavailable(ctx context.Context, serviceType string, at time.Time) error {
	const query = `UPDATE appointment_slots SET available = FALSE
        WHERE service_id = (SELECT id FROM support_services WHERE service_type = $1)
        AND starts_at = $2 AND available = TRUE`
	if _, err := r.db.ExecContext(ctx, query, serviceType, at); err != nil {
		return fmt.Errorf("mark slot unavailable: %w", err)
	}
	return nil
}
