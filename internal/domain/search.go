package domain

// SearchResult is one hit from the external search service, already
// normalized from its wire shape. Any of the identity fields may be
// absent; identity derivation walks them in priority order.
type SearchResult struct {
	BaseID          string                        `json:"base_id,omitempty"`
	RangeFragment   string                        `json:"range_fragment,omitempty"`
	ChunkID         string                        `json:"chunk_id,omitempty"`
	OffsetRatio     *float64                      `json:"offset_ratio,omitempty"`
	ApproximateTime *float64                      `json:"approximate_time_seconds,omitempty"`
	OccurrenceCount int                           `json:"occurrence_count"`
	Media           map[MediaCategory][]MediaItem `json:"media,omitempty"`
}
