package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readalongapp/readalong-server/internal/domain"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get reader settings",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/settings",
		Summary:     "Update reader settings",
		Description: "Persists the changed fields and pushes the new settings to connected devices",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)
}

// SettingsInput identifies the settings owner.
type SettingsInput struct {
	DeviceKey string `header:"X-Device-Key" doc:"Per-device settings key; defaults to a shared profile"`
}

// SettingsOutput wraps reader settings.
type SettingsOutput struct {
	Body domain.ReaderSettings
}

// UpdateSettingsInput carries a partial settings update. Pointer fields
// distinguish "leave unchanged" from an explicit value.
type UpdateSettingsInput struct {
	DeviceKey string `header:"X-Device-Key" doc:"Per-device settings key; defaults to a shared profile"`
	Body      struct {
		SubtitlesVisible        *bool    `json:"subtitles_visible,omitempty"`
		OriginalAudioEnabled    *bool    `json:"original_audio_enabled,omitempty"`
		TranslationAudioEnabled *bool    `json:"translation_audio_enabled,omitempty"`
		BackgroundTrack         *string  `json:"background_track,omitempty" validate:"omitempty,max=512"`
		FontScale               *float64 `json:"font_scale,omitempty" validate:"omitempty,gte=0.5,lte=3"`
	}
}

func settingsKey(deviceKey string) string {
	if deviceKey == "" {
		return "default"
	}
	return deviceKey
}

func (s *Server) handleGetSettings(_ context.Context, input *SettingsInput) (*SettingsOutput, error) {
	settings, err := s.reader.Settings(settingsKey(input.DeviceKey))
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: *settings}, nil
}

func (s *Server) handleUpdateSettings(_ context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	key := settingsKey(input.DeviceKey)
	settings, err := s.reader.Settings(key)
	if err != nil {
		return nil, err
	}

	if input.Body.SubtitlesVisible != nil {
		settings.SubtitlesVisible = *input.Body.SubtitlesVisible
	}
	if input.Body.OriginalAudioEnabled != nil {
		settings.OriginalAudioEnabled = *input.Body.OriginalAudioEnabled
	}
	if input.Body.TranslationAudioEnabled != nil {
		settings.TranslationAudioEnabled = *input.Body.TranslationAudioEnabled
	}
	if input.Body.BackgroundTrack != nil {
		settings.BackgroundTrack = *input.Body.BackgroundTrack
	}
	if input.Body.FontScale != nil {
		settings.FontScale = *input.Body.FontScale
	}

	if err := s.reader.UpdateSettings(key, settings); err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: *settings}, nil
}
