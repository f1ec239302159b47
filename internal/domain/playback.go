package domain

import "time"

// PlaybackPosition is the last known offset for one media item:
// seconds for audio/video, scroll pixels or ratio for text.
//
// Lifecycle: created on the first progress report for an item, updated
// on every subsequent tick, never deleted. Entries become unreachable
// once the job session ends (the memory is job-scoped).
type PlaybackPosition struct {
	MediaID   string        `json:"media_id"`
	MediaType MediaCategory `json:"media_type"`
	BaseID    string        `json:"base_id,omitempty"`
	Position  float64       `json:"position"`
	UpdatedAt time.Time     `json:"updated_at"`
}
