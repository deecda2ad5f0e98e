package dto

import "github.com/noah-isme/unisupport-api/internal/models"

// DashboardResponse summarises a student's wellbeing activity.
type DashboardResponse struct {
	Student              models.Student       `json:"student"`
	LatestMood           *models.MoodEntry    `json:"latestMood,omitempty"`
	LatestMoodLabel      string               `json:"latestMoodLabel,omitempty"`
	MoodCount            int                  `json:"moodCount"`
	AverageMood          float64              `json:"averageMood"`
	AppointmentCount     int                  `json:"appointmentCount"`
	UpcomingAppointments []models.Appointment `json:"upcomingAppointments"`
}
