// Package session owns the live reading-session state: loaded chunks
// and media, the derived sentence index and track classification, the
// pending selection request, and per-media playback positions.
//
// All derived structures are job-scoped and single-writer. Mutations
// are applied synchronously under one lock and downstream recomputation
// (index rebuild, classification, pending-request retry) runs in the
// same critical section, so readers always observe a consistent pair of
// inputs and derivations.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/readalongapp/readalong-server/internal/domain"
	apperrors "github.com/readalongapp/readalong-server/internal/errors"
	"github.com/readalongapp/readalong-server/internal/identity"
	"github.com/readalongapp/readalong-server/internal/nav"
	"github.com/readalongapp/readalong-server/internal/playback"
	"github.com/readalongapp/readalong-server/internal/selection"
	"github.com/readalongapp/readalong-server/internal/sentence"
	"github.com/readalongapp/readalong-server/internal/tracks"
)

// Emitter receives session lifecycle notifications. The SSE manager
// implements it; tests use a recording fake.
type Emitter interface {
	JobChanged(jobID string)
	IndexRebuilt(jobID string, chunkCount int, suggestions []int)
	SelectionApplied(jobID string, applied domain.Selection, scrollRatio *float64)
}

// NopEmitter discards all notifications.
type NopEmitter struct{}

func (NopEmitter) JobChanged(string)                                   {}
func (NopEmitter) IndexRebuilt(string, int, []int)                     {}
func (NopEmitter) SelectionApplied(string, domain.Selection, *float64) {}

// State is a read-only snapshot of the session for API consumers.
type State struct {
	JobID         string                                    `json:"job_id,omitempty"`
	ChunkCount    int                                       `json:"chunk_count"`
	CurrentChunk  int                                       `json:"current_chunk"`
	AtStart       bool                                      `json:"at_start"`
	AtEnd         bool                                      `json:"at_end"`
	SentenceMin   int                                       `json:"sentence_min,omitempty"`
	SentenceMax   int                                       `json:"sentence_max,omitempty"`
	Suggestions   []int                                     `json:"suggestions,omitempty"`
	Selections    map[domain.MediaCategory]domain.Selection `json:"selections,omitempty"`
	Toggles       tracks.Toggles                            `json:"toggles"`
	AudioOptions  []tracks.Option                           `json:"audio_options,omitempty"`
	ScrollRatio   *float64                                  `json:"scroll_ratio,omitempty"`
	PendingTarget string                                    `json:"pending_target,omitempty"`
}

// Session is the single writer of all job-scoped navigation state.
type Session struct {
	mu  sync.Mutex
	log *slog.Logger

	emitter  Emitter
	resolver tracks.Resolver

	jobID  string
	chunks []domain.Chunk
	media  map[domain.MediaCategory][]domain.MediaItem

	lookup     *sentence.Lookup
	classified map[int]map[string]tracks.Track
	positions  *playback.Memory
	settings   domain.ReaderSettings

	currentChunk int
	selections   map[domain.MediaCategory]domain.Selection
	scrollRatio  *float64

	pending   *domain.SelectionRequest
	lastToken int64
}

// New creates an empty session. resolver normalizes track URLs for the
// playback context; nil falls back to passthrough.
func New(resolver tracks.Resolver, emitter Emitter, log *slog.Logger) *Session {
	if resolver == nil {
		resolver = tracks.PassthroughResolver{}
	}
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Session{
		log:        log,
		emitter:    emitter,
		resolver:   resolver,
		media:      make(map[domain.MediaCategory][]domain.MediaItem),
		lookup:     sentence.Build(nil),
		classified: make(map[int]map[string]tracks.Track),
		positions:  playback.NewMemory(),
		settings:   *domain.NewReaderSettings(),
		selections: make(map[domain.MediaCategory]domain.Selection),
	}
}

// NextToken returns a monotonic logical-clock value for tagging
// selection requests. Strictly increasing even within one millisecond.
func (s *Session) NextToken() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := time.Now().UnixMilli()
	if token <= s.lastToken {
		token = s.lastToken + 1
	}
	s.lastToken = token
	return token
}

// SetJob switches the active job. All job-scoped state (chunks, media,
// index, classification cache, positions, pending request) is reset;
// nothing leaks across jobs. Switching to the already-active job is a
// no-op.
func (s *Session) SetJob(jobID string) {
	s.mu.Lock()
	if s.jobID == jobID {
		s.mu.Unlock()
		return
	}

	s.jobID = jobID
	s.chunks = nil
	s.media = make(map[domain.MediaCategory][]domain.MediaItem)
	s.lookup = sentence.Build(nil)
	s.classified = make(map[int]map[string]tracks.Track)
	s.positions.Reset()
	s.currentChunk = 0
	s.selections = make(map[domain.MediaCategory]domain.Selection)
	s.scrollRatio = nil
	s.pending = nil
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("session job changed", "job_id", jobID)
	}
	s.emitter.JobChanged(jobID)
}

// JobID returns the active job id.
func (s *Session) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// SetResolver swaps the track URL resolver, typically when the playback
// context changes with the job. Cached classifications are invalidated
// since their URLs were resolved by the old context.
func (s *Session) SetResolver(resolver tracks.Resolver) {
	if resolver == nil {
		resolver = tracks.PassthroughResolver{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver = resolver
	s.classified = make(map[int]map[string]tracks.Track)
}

// Chunk returns a copy of the chunk at index.
func (s *Session) Chunk(index int) (domain.Chunk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.chunks) {
		return domain.Chunk{}, false
	}
	return s.chunks[index], true
}

// ChunkCount returns the number of loaded chunks.
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// SetChunks replaces the chunk list and rebuilds every derivation. The
// jobID guard drops updates from a job that is no longer active; stale
// completions are silently ignored, not errors.
func (s *Session) SetChunks(jobID string, chunks []domain.Chunk) {
	s.mu.Lock()
	if jobID != s.jobID {
		s.mu.Unlock()
		return
	}
	s.chunks = chunks
	s.rebuildLocked()
	retried := s.retryPendingLocked()
	suggestions := s.lookup.Suggestions
	s.mu.Unlock()

	s.emitter.IndexRebuilt(jobID, len(chunks), suggestions)
	s.emitApplied(retried)
}

// SetMedia replaces one category's media list and retries any pending
// selection, since new media may make a deferred request resolvable.
func (s *Session) SetMedia(jobID string, category domain.MediaCategory, items []domain.MediaItem) {
	s.mu.Lock()
	if jobID != s.jobID || !category.Valid() {
		s.mu.Unlock()
		return
	}
	s.media[category] = items
	retried := s.retryPendingLocked()
	s.mu.Unlock()

	s.emitApplied(retried)
}

// ApplyChunkMetadata merges fetched sentence-level metadata into one
// chunk and rebuilds the index. Returns a stale-request error when the
// job changed while the fetch was in flight; callers drop it silently.
func (s *Session) ApplyChunkMetadata(jobID string, chunkIndex int, sentences []domain.SentenceMetadata) error {
	s.mu.Lock()
	if jobID != s.jobID {
		s.mu.Unlock()
		return apperrors.StaleRequest("metadata fetched for a superseded job")
	}
	if chunkIndex < 0 || chunkIndex >= len(s.chunks) {
		s.mu.Unlock()
		return apperrors.NotFoundf("chunk index %d out of range", chunkIndex)
	}
	s.chunks[chunkIndex].Sentences = sentences
	s.rebuildLocked()
	retried := s.retryPendingLocked()
	suggestions := s.lookup.Suggestions
	count := len(s.chunks)
	s.mu.Unlock()

	s.emitter.IndexRebuilt(jobID, count, suggestions)
	s.emitApplied(retried)
	return nil
}

// RequestSelection registers a jump request and resolves it against
// current state. Older tokens than the newest seen are rejected as
// stale; the newest request always wins regardless of arrival order.
func (s *Session) RequestSelection(req domain.SelectionRequest) (selection.Outcome, error) {
	s.mu.Lock()
	if req.Token < s.lastToken {
		s.mu.Unlock()
		return selection.Outcome{}, apperrors.StaleRequest("superseded by a newer selection request")
	}
	s.lastToken = req.Token
	s.pending = &req
	out := s.resolvePendingLocked()
	s.mu.Unlock()

	s.emitApplied(out)
	if out != nil {
		return *out, nil
	}
	return selection.Outcome{Deferred: true, ChunkIndex: -1}, nil
}

// JumpToSentence resolves a global sentence number through the index
// and turns it into a selection request. An out-of-range sentence is a
// plain not-found, never fatal.
func (s *Session) JumpToSentence(number int, preferred domain.MediaCategory, token int64) (selection.Outcome, error) {
	s.mu.Lock()
	match, ok := s.lookup.Resolve(number)
	s.mu.Unlock()
	if !ok {
		return selection.Outcome{}, apperrors.NotFoundf("sentence %d not found in loaded chunks", number)
	}

	ratio := match.Ratio
	return s.RequestSelection(domain.SelectionRequest{
		BaseID:        match.BaseID,
		PreferredType: preferred,
		OffsetRatio:   &ratio,
		Token:         token,
	})
}

// Navigate moves the current chunk pointer. A boundary move returns the
// unchanged index with moved=false so callers skip side effects.
func (s *Session) Navigate(dir nav.Direction) (index int, moved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := nav.Navigate(dir, s.currentChunk, len(s.chunks))
	if next == s.currentChunk {
		return next, false
	}
	s.currentChunk = next
	return next, true
}

// ReportProgress records a playback position. Updates are last-write-
// wins per media id; callers rate-limit, the session does not coalesce.
func (s *Session) ReportProgress(mediaID string, mediaType domain.MediaCategory, baseID string, position float64) {
	s.positions.Remember(mediaID, mediaType, baseID, position)
}

// ResumePosition returns the best resume position for an item.
func (s *Session) ResumePosition(item *domain.MediaItem) float64 {
	return s.positions.PositionForItem(item)
}

// Positions exposes the job-scoped position memory for persistence.
func (s *Session) Positions() *playback.Memory {
	return s.positions
}

// Settings returns the current reader settings.
func (s *Session) Settings() domain.ReaderSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the reader settings. Toggle changes alter
// which inline audio options are visible on the next State call.
func (s *Session) UpdateSettings(settings domain.ReaderSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.UpdatedAt = time.Now().UTC()
	s.settings = settings
}

// State assembles the read-only snapshot the API serves.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		JobID:        s.jobID,
		ChunkCount:   len(s.chunks),
		CurrentChunk: s.currentChunk,
		AtStart:      len(s.chunks) == 0 || nav.AtStart(s.currentChunk),
		AtEnd:        len(s.chunks) == 0 || nav.AtEnd(s.currentChunk, len(s.chunks)),
		Suggestions:  s.lookup.Suggestions,
		ScrollRatio:  s.scrollRatio,
	}
	if minSeen, maxSeen, ok := s.lookup.Bounds(); ok {
		st.SentenceMin = minSeen
		st.SentenceMax = maxSeen
	}
	if len(s.selections) > 0 {
		st.Selections = make(map[domain.MediaCategory]domain.Selection, len(s.selections))
		for cat, sel := range s.selections {
			st.Selections[cat] = sel
		}
	}
	if s.pending != nil {
		st.PendingTarget = s.pending.BaseID
	}

	classified := s.classifyLocked(s.currentChunk)
	st.Toggles = tracks.DeriveToggles(classified)
	st.AudioOptions = s.visibleOptionsLocked(classified)
	return st
}

// rebuildLocked recomputes every chunk-derived structure. Full rebuild
// rather than patching: chunk counts are small and determinism matters
// more than the CPU.
func (s *Session) rebuildLocked() {
	s.lookup = sentence.Build(s.chunks)
	s.classified = make(map[int]map[string]tracks.Track)
	if s.currentChunk >= len(s.chunks) && len(s.chunks) > 0 {
		s.currentChunk = len(s.chunks) - 1
	}
}

// classifyLocked returns the cached classification for a chunk,
// computing it on first use. The cache is invalidated on every rebuild.
func (s *Session) classifyLocked(index int) map[string]tracks.Track {
	if index < 0 || index >= len(s.chunks) {
		return nil
	}
	if cached, ok := s.classified[index]; ok {
		return cached
	}
	classified := tracks.Classify(&s.chunks[index], s.resolver)
	s.classified[index] = classified
	return classified
}

func (s *Session) visibleOptionsLocked(classified map[string]tracks.Track) []tracks.Option {
	return tracks.BuildOptions(classified, nil,
		s.settings.OriginalAudioEnabled, s.settings.TranslationAudioEnabled)
}

// resolvePendingLocked runs the engine against current state. A
// deferred outcome keeps the request pending for retry on the next
// state change; anything else consumes it, so re-running resolution
// for an already-applied request is impossible by construction.
func (s *Session) resolvePendingLocked() *selection.Outcome {
	if s.pending == nil {
		return nil
	}

	req := *s.pending
	out := selection.Resolve(req, selection.Snapshot{
		Chunks:              s.chunks,
		Media:               s.media,
		VisibleAudioOptions: s.visibleOptionsLocked(s.classifyLocked(s.currentChunk)),
	})
	if out.Deferred {
		return nil
	}

	s.pending = nil
	s.applyOutcomeLocked(&out)
	return &out
}

// retryPendingLocked re-resolves after chunks or media changed.
func (s *Session) retryPendingLocked() *selection.Outcome {
	return s.resolvePendingLocked()
}

func (s *Session) applyOutcomeLocked(out *selection.Outcome) {
	if out.Applied != nil {
		s.selections[out.Applied.Category] = *out.Applied
		if out.ChunkIndex >= 0 {
			s.currentChunk = out.ChunkIndex
		}
	}
	for cat, item := range out.PerCategory {
		if item == nil || (out.Applied != nil && cat == out.Applied.Category) {
			continue
		}
		s.selections[cat] = domain.Selection{
			Category:   cat,
			MediaID:    item.URL,
			BaseID:     identity.FromItem(item),
			ChunkIndex: out.ChunkIndex,
		}
	}
	for _, upd := range out.PositionUpdates {
		s.positions.Remember(upd.MediaID, upd.MediaType, upd.BaseID, upd.Position)
	}
	if out.ClearScroll {
		s.scrollRatio = nil
	} else {
		s.scrollRatio = out.ScrollRatio
	}
}

// emitApplied publishes an applied selection outside the lock.
func (s *Session) emitApplied(out *selection.Outcome) {
	if out == nil || out.Applied == nil {
		return
	}
	s.emitter.SelectionApplied(s.JobID(), *out.Applied, out.ScrollRatio)
}
