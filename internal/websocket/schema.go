package websocket

import (
	"time"

	"github.com/stemsi/papercraft/internal/render"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is the only client message shape; previews carry no payload.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot            Event = "snapshot"
	EventPaperDeleted        Event = "paper_deleted"
	EventSuggestionCompleted Event = "suggestion_completed"
	EventSuggestionFailed    Event = "suggestion_failed"
	EventSuggestionDiscarded Event = "suggestion_discarded"
	EventError               Event = "error"
	EventPong                Event = "pong"
)

// SnapshotResponse carries the print layout of the paper as stored at Version.
type SnapshotResponse struct {
	Event      Event           `json:"event"`
	Version    int             `json:"version"`
	TotalMarks int             `json:"total_marks"`
	Preview    render.Document `json:"preview"`
}

// SuggestionResponse reports the outcome of an AI suggestion for a section.
type SuggestionResponse struct {
	Event     Event     `json:"event"`
	SectionID string    `json:"section_id"`
	Added     int       `json:"added,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

type PaperDeletedResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
