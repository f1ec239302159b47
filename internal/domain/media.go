// Package domain defines the core types of the ReadAlong reading session:
// chunks, media items, selection requests, and playback positions.
package domain

import "strings"

// MediaCategory identifies which of the three synchronized surfaces an
// asset belongs to.
type MediaCategory string

const (
	// MediaText is the readable text surface.
	MediaText MediaCategory = "text"
	// MediaAudio is the audio playback surface.
	MediaAudio MediaCategory = "audio"
	// MediaVideo is the video playback surface.
	MediaVideo MediaCategory = "video"
)

// Categories returns all media categories in fixed precedence order.
// Selection resolution walks this order when no preferred category is given.
func Categories() []MediaCategory {
	return []MediaCategory{MediaText, MediaAudio, MediaVideo}
}

// Valid reports whether c is one of the three known categories.
func (c MediaCategory) Valid() bool {
	switch c {
	case MediaText, MediaAudio, MediaVideo:
		return true
	}
	return false
}

// MediaItem is one playable/readable asset (text excerpt, audio file,
// video file) received from the media-loading layer. Immutable once
// received.
type MediaItem struct {
	URL           string `json:"url"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type"`
	RelativePath  string `json:"relative_path,omitempty"`
	Path          string `json:"path,omitempty"`
	ChunkID       string `json:"chunk_id,omitempty"`
	RangeFragment string `json:"range_fragment,omitempty"`
}

// IsAudio reports whether the item's type signature marks it as an audio
// asset. Matches "audio" exactly or any "audio_*" subtype.
func (m MediaItem) IsAudio() bool {
	return m.Type == "audio" || strings.HasPrefix(m.Type, "audio_")
}

// Category maps the item's raw type signature to its media category.
// Returns "" for unrecognized signatures.
func (m MediaItem) Category() MediaCategory {
	switch {
	case m.Type == "text" || strings.HasPrefix(m.Type, "text_"):
		return MediaText
	case m.IsAudio():
		return MediaAudio
	case m.Type == "video" || strings.HasPrefix(m.Type, "video_"):
		return MediaVideo
	}
	return ""
}
