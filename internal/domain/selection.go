package domain

// SelectionRequest is a cross-category "jump to this content"
// instruction, originating from search, bookmarks, sentence-number
// entry, or cross-job links.
//
// Token is a logical clock value (monotonic, typically a unix
// millisecond timestamp). A resolution is discarded if a newer request
// arrives before it completes.
type SelectionRequest struct {
	// BaseID is the canonical target identity. Empty means "no explicit
	// target": combined with PreferredType it reads as "jump to the
	// first available item of this category".
	BaseID string `json:"base_id,omitempty"`
	// PreferredType is checked first in the category cascade.
	PreferredType MediaCategory `json:"preferred_type,omitempty"`
	// OffsetRatio positions the text scroll within the selected item,
	// clamped to [0,1] on application.
	OffsetRatio *float64 `json:"offset_ratio,omitempty"`
	// ApproximateTime seeds audio/video playback position, in seconds.
	ApproximateTime *float64 `json:"approximate_time,omitempty"`
	Token           int64    `json:"token"`
}

// Selection is a concrete applied match for one category.
type Selection struct {
	Category MediaCategory `json:"category"`
	// MediaID is the matched item's URL. Empty for chunk-granularity
	// text selections.
	MediaID string `json:"media_id,omitempty"`
	BaseID  string `json:"base_id,omitempty"`
	// ChunkIndex is set (>= 0) for chunk-granularity selections, -1
	// otherwise.
	ChunkIndex int `json:"chunk_index"`
}

// PositionUpdate instructs the playback position memory to remember a
// position for an item, typically seeded from a selection request's
// approximate time.
type PositionUpdate struct {
	MediaID   string        `json:"media_id"`
	MediaType MediaCategory `json:"media_type"`
	BaseID    string        `json:"base_id,omitempty"`
	Position  float64       `json:"position"`
}
