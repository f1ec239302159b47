package domain

import "time"

// ReaderSettings are client-side user toggles persisted in the local
// key/value store. Configuration, not part of the navigation core's
// correctness surface.
type ReaderSettings struct {
	SubtitlesVisible        bool      `json:"subtitles_visible"`
	OriginalAudioEnabled    bool      `json:"original_audio_enabled"`
	TranslationAudioEnabled bool      `json:"translation_audio_enabled"`
	BackgroundTrack         string    `json:"background_track,omitempty"`
	FontScale               float64   `json:"font_scale"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// NewReaderSettings returns settings with defaults: subtitles on,
// translation audio on, normal font scale.
func NewReaderSettings() *ReaderSettings {
	return &ReaderSettings{
		SubtitlesVisible:        true,
		TranslationAudioEnabled: true,
		FontScale:               1.0,
		UpdatedAt:               time.Now(),
	}
}
