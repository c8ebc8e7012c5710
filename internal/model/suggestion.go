package model

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionRequest is the payload for asking the AI collaborator for questions.
type SuggestionRequest struct {
	Type  string `json:"type" binding:"required,question_type"`
	Count int    `json:"count" binding:"omitempty,min=1,max=10"`
}

// SuggestionJob is queued for the suggestion worker.
type SuggestionJob struct {
	PaperID   uuid.UUID    `json:"paper_id"`
	SectionID string       `json:"section_id"`
	Type      QuestionType `json:"type"`
	Count     int          `json:"count"`
	Subject   string       `json:"subject"`
	ClassName string       `json:"class_name"`
	QueuedAt  time.Time    `json:"queued_at"`
}

// SuggestionStatus reports the AI state of one section.
type SuggestionStatus struct {
	Generating  bool       `json:"generating"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
}

// EventType names a paper change notification.
type EventType string

const (
	EventPaperUpdated        EventType = "paper_updated"
	EventPaperDeleted        EventType = "paper_deleted"
	EventSuggestionCompleted EventType = "suggestion_completed"
	EventSuggestionFailed    EventType = "suggestion_failed"
	EventSuggestionDiscarded EventType = "suggestion_discarded"
)

// PaperEvent is published on the paper's Redis channel after every change.
type PaperEvent struct {
	Type       EventType `json:"type"`
	PaperID    uuid.UUID `json:"paper_id"`
	Version    int       `json:"version,omitempty"`
	TotalMarks int       `json:"total_marks,omitempty"`
	SectionID  string    `json:"section_id,omitempty"`
	Added      int       `json:"added,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}
