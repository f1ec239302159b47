// Package sse implements Server-Sent Events for pushing reading-session
// changes (applied selections, index rebuilds, job switches) to
// connected reader clients.
package sse

import (
	"time"

	"github.com/readalongapp/readalong-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSelectionApplied reports a resolved selection the client
	// should render: scroll the text, switch the audio, seek.
	EventSelectionApplied EventType = "selection.applied"
	// EventIndexRebuilt reports that the sentence index was recomputed
	// after chunks or metadata changed.
	EventIndexRebuilt EventType = "index.rebuilt"
	// EventJobChanged reports that the active job switched and all
	// client-side session state should reset.
	EventJobChanged EventType = "job.changed"
	// EventSettingsUpdated reports a reader settings change from
	// another device of the same user.
	EventSettingsUpdated EventType = "settings.updated"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients. The Data field
// contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	// JobID scopes the event; empty means relevant to all clients.
	JobID string `json:"job_id,omitempty"`
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now()}
}

// SelectionAppliedData is the payload of EventSelectionApplied.
type SelectionAppliedData struct {
	Selection   domain.Selection `json:"selection"`
	ScrollRatio *float64         `json:"scroll_ratio,omitempty"`
}

// NewSelectionAppliedEvent creates a selection event.
func NewSelectionAppliedEvent(jobID string, sel domain.Selection, scrollRatio *float64) Event {
	return Event{
		Type:      EventSelectionApplied,
		Timestamp: time.Now(),
		JobID:     jobID,
		Data:      SelectionAppliedData{Selection: sel, ScrollRatio: scrollRatio},
	}
}

// IndexRebuiltData is the payload of EventIndexRebuilt.
type IndexRebuiltData struct {
	ChunkCount  int   `json:"chunk_count"`
	Suggestions []int `json:"suggestions,omitempty"`
}

// NewIndexRebuiltEvent creates an index rebuild event.
func NewIndexRebuiltEvent(jobID string, chunkCount int, suggestions []int) Event {
	return Event{
		Type:      EventIndexRebuilt,
		Timestamp: time.Now(),
		JobID:     jobID,
		Data:      IndexRebuiltData{ChunkCount: chunkCount, Suggestions: suggestions},
	}
}

// NewJobChangedEvent creates a job switch event.
func NewJobChangedEvent(jobID string) Event {
	return Event{
		Type:      EventJobChanged,
		Timestamp: time.Now(),
		JobID:     jobID,
		Data:      map[string]string{"job_id": jobID},
	}
}

// NewSettingsUpdatedEvent creates a settings change event.
func NewSettingsUpdatedEvent(settings *domain.ReaderSettings) Event {
	return Event{
		Type:      EventSettingsUpdated,
		Timestamp: time.Now(),
		Data:      settings,
	}
}
