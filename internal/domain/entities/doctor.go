package entities

import (
	"time"
)

// DoctorProfile represents a clinician whose practice gets quiz landing pages.
// Profiles are managed elsewhere; this service only reads them.
type DoctorProfile struct {
	ID           string             `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Credentials  string             `json:"credentials" db:"credentials"`
	Locations    []PracticeLocation `json:"locations" db:"-"`
	Testimonials []Testimonial      `json:"testimonials" db:"-"`
	Website      string             `json:"website" db:"website"`
	AvatarURL    *string            `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
}

// PracticeLocation is one office of a practice.
type PracticeLocation struct {
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Testimonial is a patient quote shown on a landing page.
type Testimonial struct {
	Text     string `json:"text"`
	Author   string `json:"author"`
	Location string `json:"location"`
}
