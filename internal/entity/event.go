package entity

import "github.com/google/uuid"

type EventType string

const (
	EventConnected  EventType = "connected"
	EventStarted    EventType = "analysis_started"
	EventProcessing EventType = "analysis_processing"
	EventCompleted  EventType = "analysis_completed"
	EventFailed     EventType = "analysis_failed"
)

// Event is a live-channel message. Only the fields relevant to Type are set.
type Event struct {
	Type       EventType   `json:"type"`
	Message    string      `json:"message,omitempty"`
	Analysis   *Submission `json:"analysis,omitempty"`
	AnalysisID *uuid.UUID  `json:"analysisId,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func ConnectedEvent() Event {
	return Event{Type: EventConnected, Message: "WebSocket connected successfully"}
}

func StartedEvent(s Submission) Event {
	return Event{Type: EventStarted, Analysis: &s}
}

func ProcessingEvent(id uuid.UUID) Event {
	return Event{Type: EventProcessing, AnalysisID: &id}
}

func CompletedEvent(s Submission) Event {
	return Event{Type: EventCompleted, Analysis: &s}
}

func FailedEvent(id uuid.UUID) Event {
	return Event{Type: EventFailed, AnalysisID: &id, Error: "Processing failed"}
}
