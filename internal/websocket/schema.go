package websocket

import "github.com/ieltsprep/ielts-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request is every client message. Autosave uses QID and Answer; the other
// actions carry no payload.
type Request struct {
	Action Action `json:"action"`
	QID    string `json:"q_id,omitempty"`
	Answer string `json:"ans"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
)

// SavedResponse acknowledges an autosave with the new progress.
type SavedResponse struct {
	Event    Event  `json:"event"`
	QID      string `json:"q_id"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
}

// SubmittedResponse carries the receipt; the server closes the stream after it.
type SubmittedResponse struct {
	Event   Event                   `json:"event"`
	Receipt model.SubmissionReceipt `json:"receipt"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
