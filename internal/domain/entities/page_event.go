package entities

import (
	"time"

	"github.com/google/uuid"
)

// PageEventType represents what happened to a landing page
type PageEventType string

const (
	PageEventGenerationResolved PageEventType = "generation_resolved"
	PageEventContentSaved       PageEventType = "content_saved"
	PageEventContentDeleted     PageEventType = "content_deleted"
)

// PageEvent announces a change to one (doctor, quiz type) landing page.
type PageEvent struct {
	ID        string        `json:"id"`
	DoctorID  string        `json:"doctor_id"`
	QuizType  string        `json:"quiz_type"`
	EventType PageEventType `json:"event_type"`
	Attempt   int           `json:"attempt,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewPageEvent creates a new page event
func NewPageEvent(doctorID, quizType string, eventType PageEventType, attempt int) *PageEvent {
	return &PageEvent{
		ID:        uuid.NewString(),
		DoctorID:  doctorID,
		QuizType:  quizType,
		EventType: eventType,
		Attempt:   attempt,
		Timestamp: time.Now(),
	}
}
