// Package playback remembers per-media playback positions so switching
// between a chunk's media resumes where each one left off.
package playback

import (
	"sync"
	"time"

	"github.com/readalongapp/readalong-server/internal/domain"
	"github.com/readalongapp/readalong-server/internal/identity"
)

// Memory holds positions for the lifetime of one job. Keyed twice: by
// concrete media id for exact resume, and by base identity so a
// position observed on one medium can seed its siblings.
//
// Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	byMedia map[string]domain.PlaybackPosition
	byBase  map[string]domain.PlaybackPosition
}

// NewMemory returns an empty position memory.
func NewMemory() *Memory {
	return &Memory{
		byMedia: make(map[string]domain.PlaybackPosition),
		byBase:  make(map[string]domain.PlaybackPosition),
	}
}

// Remember records a position. Later writes for the same media id
// replace earlier ones; the base-identity entry tracks the most recent
// write across all media sharing the base.
func (m *Memory) Remember(mediaID string, mediaType domain.MediaCategory, baseID string, position float64) {
	if mediaID == "" {
		return
	}
	if position < 0 {
		position = 0
	}

	pos := domain.PlaybackPosition{
		MediaID:   mediaID,
		MediaType: mediaType,
		BaseID:    baseID,
		Position:  position,
		UpdatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byMedia[mediaID] = pos
	if baseID != "" {
		m.byBase[baseID] = pos
	}
}

// Position returns the remembered position for a media id, or 0 when
// none was recorded. Unknown media is a normal start-from-zero case.
func (m *Memory) Position(mediaID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.byMedia[mediaID]; ok {
		return pos.Position
	}
	return 0
}

// PositionForItem resolves the best resume position for a media item:
// an exact media-id match first, then a sibling position recorded under
// the item's base identity. Sibling carry-over only applies across
// media of the same type so a text scroll never seeds an audio seek.
func (m *Memory) PositionForItem(item *domain.MediaItem) float64 {
	if item == nil {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if item.URL != "" {
		if pos, ok := m.byMedia[item.URL]; ok {
			return pos.Position
		}
	}

	baseID := identity.FromItem(item)
	if baseID == "" {
		return 0
	}
	pos, ok := m.byBase[baseID]
	if !ok || pos.MediaType != item.Category() {
		return 0
	}
	return pos.Position
}

// Snapshot returns a copy of all per-media positions, most useful for
// persistence and debugging surfaces.
func (m *Memory) Snapshot() []domain.PlaybackPosition {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.PlaybackPosition, 0, len(m.byMedia))
	for _, pos := range m.byMedia {
		out = append(out, pos)
	}
	return out
}

// Restore seeds the memory from persisted positions without touching
// entries already recorded in this session.
func (m *Memory) Restore(positions []domain.PlaybackPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pos := range positions {
		if pos.MediaID == "" {
			continue
		}
		if _, exists := m.byMedia[pos.MediaID]; exists {
			continue
		}
		m.byMedia[pos.MediaID] = pos
		if pos.BaseID != "" {
			if cur, exists := m.byBase[pos.BaseID]; !exists || pos.UpdatedAt.After(cur.UpdatedAt) {
				m.byBase[pos.BaseID] = pos
			}
		}
	}
}

// Reset drops every remembered position. Called when the active job
// changes; positions never leak across jobs.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.byMedia)
	clear(m.byBase)
}
