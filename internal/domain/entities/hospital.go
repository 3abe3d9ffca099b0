package entities

import (
	"time"
)

// HospitalStatus is a coarse load indicator derived from the baseline wait
type HospitalStatus string

const (
	HospitalStatusLow      HospitalStatus = "low"
	HospitalStatusModerate HospitalStatus = "moderate"
	HospitalStatusHigh     HospitalStatus = "high"
)

// Hospital represents a hospital in the system
type Hospital struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Address         string    `json:"address" db:"address"`
	Location        Location  `json:"location" db:"-"`
	PhoneNumber     string    `json:"phone_number" db:"phone_number"`
	Specialties     []string  `json:"specialties" db:"-"`
	BaselineWaitMin int       `json:"baseline_wait_minutes" db:"baseline_wait_min"`
	CurrentQueue    int       `json:"current_queue" db:"current_queue"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Status buckets the baseline wait into a load indicator for display.
func (h *Hospital) Status() HospitalStatus {
	switch {
	case h.BaselineWaitMin < 30:
		return HospitalStatusLow
	case h.BaselineWaitMin < 60:
		return HospitalStatusModerate
	default:
		return HospitalStatusHigh
	}
}
