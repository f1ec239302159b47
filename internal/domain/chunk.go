package domain

// SentenceTimeline holds the playback window of one sentence within its
// chunk's audio, in seconds from chunk start.
type SentenceTimeline struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SentenceMetadata is one sentence's multi-language text plus timing and
// highlight data. SentenceNumber is the global (book-wide) ordinal;
// absence means the sentence cannot be exactly indexed and resolution
// falls back to range interpolation over the chunk boundary.
type SentenceMetadata struct {
	SentenceNumber  *int             `json:"sentence_number,omitempty"`
	Original        string           `json:"original"`
	Translation     string           `json:"translation,omitempty"`
	Transliteration string           `json:"transliteration,omitempty"`
	Timeline        SentenceTimeline `json:"timeline"`
	// Gates are highlight boundaries within the sentence's playback
	// window, in seconds. Consumed from the pipeline, never computed here.
	Gates []float64 `json:"gates,omitempty"`
}

// AudioTrackRef is one entry of a chunk's declared audioTracks mapping.
type AudioTrackRef struct {
	Path     string  `json:"path,omitempty"`
	URL      string  `json:"url,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Chunk is an ordered unit covering a contiguous sentence range.
// Both boundaries are optional - a chunk may be a single untyped
// sentence. Chunks are owned by the media-loading layer and treated as
// read-only by the navigation core.
type Chunk struct {
	ChunkID       string                   `json:"chunk_id,omitempty"`
	RangeFragment string                   `json:"range_fragment,omitempty"`
	StartSentence *int                     `json:"start_sentence,omitempty"`
	EndSentence   *int                     `json:"end_sentence,omitempty"`
	SentenceCount *int                     `json:"sentence_count,omitempty"`
	Files         []MediaItem              `json:"files,omitempty"`
	Sentences     []SentenceMetadata       `json:"sentences,omitempty"`
	AudioTracks   map[string]AudioTrackRef `json:"audio_tracks,omitempty"`
	MetadataPath  string                   `json:"metadata_path,omitempty"`
	MetadataURL   string                   `json:"metadata_url,omitempty"`
}

// Boundary returns the declared [start, end] sentence range. ok is false
// unless both boundaries are present.
func (c *Chunk) Boundary() (start, end int, ok bool) {
	if c.StartSentence == nil || c.EndSentence == nil {
		return 0, 0, false
	}
	return *c.StartSentence, *c.EndSentence, true
}

// TextFile returns the chunk's first text-typed file, or nil.
func (c *Chunk) TextFile() *MediaItem {
	for i := range c.Files {
		if c.Files[i].Type == "text" {
			return &c.Files[i]
		}
	}
	return nil
}
