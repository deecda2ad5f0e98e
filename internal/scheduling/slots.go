// Package scheduling generates candidate appointment slots for support services.
package scheduling

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/noah-isme/unisupport-api/internal/ledger"
	"github.com/noah-isme/unisupport-api/internal/models"
)

const (
	// OpeningHour is the first hour a slot may start.
	OpeningHour = 9
	// ClosingHour is the exclusive upper bound for slot start hours.
	ClosingHour = 17
	// HorizonDays is the number of calendar days after the reference day covered by generation.
	HorizonDays = 14
	// Horizon is the generation window as a duration.
	Horizon = HorizonDays * 24 * time.Hour
)

// GenerateSlots lazily yields the one-hour slots for service over the HorizonDays
// calendar days following now. Only Monday to Friday between OpeningHour and
// ClosingHour are produced, in now's location, with minutes and seconds zeroed.
func GenerateSlots(service models.SupportService, now time.Time) iter.Seq[models.AppointmentSlot] {
	loc := now.Location()
	y, m, d := now.Date()
	return func(yield func(models.AppointmentSlot) bool) {
		for offset := 1; offset <= HorizonDays; offset++ {
			day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
			if !IsWeekday(day) {
				continue
			}
			for hour := OpeningHour; hour < ClosingHour; hour++ {
				slot := models.AppointmentSlot{
					ServiceID: service.ID,
					StartsAt:  time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc),
					Available: true,
				}
				if !yield(slot) {
					return
				}
			}
		}
	}
}

// Collect materialises a slot sequence.
func Collect(seq iter.Seq[models.AppointmentSlot]) []models.AppointmentSlot {
	return slices.Collect(seq)
}

// IsWeekday reports whether t falls Monday to Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WithinOperatingHours reports whether t is a weekday with hour in [09, 17).
func WithinOperatingHours(t time.Time) bool {
	if !IsWeekday(t) {
		return false
	}
	return t.Hour() >= OpeningHour && t.Hour() < ClosingHour
}

// CheckOperatingHours returns a *ledger.TemporalError when t is outside operating hours.
func CheckOperatingHours(t time.Time) error {
	if WithinOperatingHours(t) {
		return nil
	}
	return &ledger.TemporalError{
		At:     t,
		Reason: fmt.Sprintf("appointments are only available Monday-Friday %02d:00-%02d:00", OpeningHour, ClosingHour),
	}
}
