package models

import "time"

// SupportService is a bookable university support offering such as
// counselling or academic support. ServiceType is its unique category tag.
type SupportService struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ServiceType string    `db:"service_type" json:"service_type"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AppointmentSlot is a one-hour bookable unit owned by a support service.
type AppointmentSlot struct {
	ID        string    `db:"id" json:"id"`
	ServiceID string    `db:"service_id" json:"service_id"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	Available bool      `db:"available" json:"available"`
}
