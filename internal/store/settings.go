package store

import (
	"time"

	"github.com/readalongapp/readalong-server/internal/domain"
	apperrors "github.com/readalongapp/readalong-server/internal/errors"
)

// GetSettings loads a user's reader settings, falling back to defaults
// when none have been saved yet.
func (s *Store) GetSettings(userKey string) (*domain.ReaderSettings, error) {
	var settings domain.ReaderSettings
	err := s.getJSON(settingsKey(userKey), &settings)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return domain.NewReaderSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings persists a user's reader settings.
func (s *Store) SaveSettings(userKey string, settings *domain.ReaderSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return s.setJSON(settingsKey(userKey), settings)
}
