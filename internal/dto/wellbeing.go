package dto

// Actor identifies the authenticated caller of a wellbeing operation.
type Actor struct {
	UserID    string
	Username  string
	IP        string
	UserAgent string
}

// LogMoodRequest records a mood score between 1 and 5.
type LogMoodRequest struct {
	Score *int `json:"score" validate:"required"`
}

// BookAppointmentRequest books a support service at a date such as
// "2024-01-02 09:00" or an RFC3339 timestamp.
type BookAppointmentRequest struct {
	ServiceType string `json:"service_type" validate:"required,max=64"`
	Date        string `json:"date" validate:"required"`
}

// CreateSupportServiceRequest registers a new support service.
type CreateSupportServiceRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	ServiceType string `json:"service_type" validate:"required,max=64"`
}

// ReplenishResult reports how many slots were added for a service.
type ReplenishResult struct {
	ServiceID string `json:"serviceId"`
	Inserted  int    `json:"inserted"`
}
