// Package selection resolves cross-category jump requests against the
// currently loaded chunks and media.
//
// Resolution is a pure function of the request and a state snapshot:
// token bookkeeping, consume-once semantics, and retries on media
// arrival belong to the session layer that owns the pending request.
package selection

import (
	"math"

	"github.com/readalongapp/readalong-server/internal/domain"
	"github.com/readalongapp/readalong-server/internal/identity"
	"github.com/readalongapp/readalong-server/internal/tracks"
)

// Snapshot is the loaded state a request resolves against. The engine
// only reads it.
type Snapshot struct {
	Chunks []domain.Chunk
	Media  map[domain.MediaCategory][]domain.MediaItem
	// VisibleAudioOptions are the inline audio options currently shown,
	// already filtered by toggle state.
	VisibleAudioOptions []tracks.Option
}

// Outcome is everything a resolved request instructs downstream to do.
type Outcome struct {
	// Deferred means no media has loaded for any category yet; the
	// request stays pending and is retried when media state changes.
	Deferred bool

	// Applied is the winning selection, nil when nothing matched.
	Applied *domain.Selection
	// PerCategory holds the direct item match per category, including
	// categories the walk never applied, for cross-category linking.
	PerCategory map[domain.MediaCategory]*domain.MediaItem
	// ChunkIndex is the chunk-level identity match, -1 when none.
	ChunkIndex int

	// ScrollRatio is the clamped text scroll instruction. ClearScroll
	// is set whenever no ratio applies so a stale instruction never
	// lingers into a selection that does not need one.
	ScrollRatio *float64
	ClearScroll bool

	PositionUpdates []domain.PositionUpdate

	// ActiveAudioOption is set when the resolved audio item is among
	// the visible inline options.
	ActiveAudioOption *tracks.Option
}

// Resolve runs the matching cascade. Matching is best-effort: an
// unmatchable target yields an empty outcome, never an error.
func Resolve(req domain.SelectionRequest, snap Snapshot) Outcome {
	if !hasAnyMedia(snap.Media) {
		return Outcome{Deferred: true, ChunkIndex: -1}
	}

	out := Outcome{
		PerCategory: make(map[domain.MediaCategory]*domain.MediaItem, 3),
		ChunkIndex:  -1,
		ClearScroll: true,
	}

	targetID := identity.Resolve(req.BaseID)

	// Direct per-category matches. Every category is checked, not just
	// the preferred one, so a jump into audio can still move the text
	// selection.
	if targetID != "" {
		for _, cat := range domain.Categories() {
			items := snap.Media[cat]
			for i := range items {
				if identity.FromItem(&items[i]) == targetID {
					out.PerCategory[cat] = &items[i]
					break
				}
			}
		}
		out.ChunkIndex = matchChunk(snap.Chunks, targetID)
	}

	// Precedence walk: preferred category first, then the fixed order.
	for _, cat := range categoryOrder(req.PreferredType) {
		if item := out.PerCategory[cat]; item != nil {
			out.Applied = applied(cat, item, out.ChunkIndex)
			break
		}
		// Chunk-granularity fallback: chunk detail may not yet be
		// loaded as discrete text items.
		if cat == domain.MediaText && out.ChunkIndex >= 0 {
			out.Applied = appliedChunk(&snap.Chunks[out.ChunkIndex], out.ChunkIndex)
			break
		}
	}

	// Permissive fallbacks when nothing matched but the caller named a
	// category: first available item, then first chunk.
	if out.Applied == nil && req.PreferredType.Valid() {
		if items := snap.Media[req.PreferredType]; len(items) > 0 {
			out.Applied = applied(req.PreferredType, &items[0], out.ChunkIndex)
		} else if out.ChunkIndex >= 0 &&
			(req.PreferredType == domain.MediaText || req.PreferredType == domain.MediaAudio) {
			out.Applied = appliedChunk(&snap.Chunks[out.ChunkIndex], out.ChunkIndex)
		}
	}

	if t := req.ApproximateTime; t != nil && isFinite(*t) {
		for _, cat := range []domain.MediaCategory{domain.MediaAudio, domain.MediaVideo} {
			item := out.PerCategory[cat]
			if item == nil {
				continue
			}
			out.PositionUpdates = append(out.PositionUpdates, domain.PositionUpdate{
				MediaID:   item.URL,
				MediaType: cat,
				BaseID:    identity.FromItem(item),
				Position:  math.Max(*t, 0),
			})
		}
	}

	hasTextTarget := out.PerCategory[domain.MediaText] != nil || out.ChunkIndex >= 0
	if r := req.OffsetRatio; r != nil && isFinite(*r) && hasTextTarget {
		ratio := math.Min(math.Max(*r, 0), 1)
		out.ScrollRatio = &ratio
		out.ClearScroll = false
	}

	if audio := out.PerCategory[domain.MediaAudio]; audio != nil {
		for i := range snap.VisibleAudioOptions {
			if snap.VisibleAudioOptions[i].URL == audio.URL {
				out.ActiveAudioOption = &snap.VisibleAudioOptions[i]
				break
			}
		}
	}

	return out
}

func hasAnyMedia(media map[domain.MediaCategory][]domain.MediaItem) bool {
	for _, items := range media {
		if len(items) > 0 {
			return true
		}
	}
	return false
}

func matchChunk(chunks []domain.Chunk, targetID string) int {
	for i := range chunks {
		if identity.FromChunk(&chunks[i]) == targetID {
			return i
		}
	}
	return -1
}

func applied(cat domain.MediaCategory, item *domain.MediaItem, chunkIndex int) *domain.Selection {
	return &domain.Selection{
		Category:   cat,
		MediaID:    item.URL,
		BaseID:     identity.FromItem(item),
		ChunkIndex: chunkIndex,
	}
}

func appliedChunk(chunk *domain.Chunk, index int) *domain.Selection {
	return &domain.Selection{
		Category:   domain.MediaText,
		BaseID:     identity.FromChunk(chunk),
		ChunkIndex: index,
	}
}

func categoryOrder(preferred domain.MediaCategory) []domain.MediaCategory {
	order := make([]domain.MediaCategory, 0, 3)
	if preferred.Valid() {
		order = append(order, preferred)
	}
	for _, cat := range domain.Categories() {
		if cat != preferred {
			order = append(order, cat)
		}
	}
	return order
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
