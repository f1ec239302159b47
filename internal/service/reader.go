// Package service orchestrates the reading session against the
// pipeline upstream, the local store, and the SSE stream.
package service

import (
	"context"
	"log/slog"

	"github.com/readalongapp/readalong-server/internal/config"
	"github.com/readalongapp/readalong-server/internal/domain"
	apperrors "github.com/readalongapp/readalong-server/internal/errors"
	"github.com/readalongapp/readalong-server/internal/identity"
	"github.com/readalongapp/readalong-server/internal/nav"
	"github.com/readalongapp/readalong-server/internal/ratelimit"
	"github.com/readalongapp/readalong-server/internal/selection"
	"github.com/readalongapp/readalong-server/internal/session"
	"github.com/readalongapp/readalong-server/internal/sse"
	"github.com/readalongapp/readalong-server/internal/store"
	"github.com/readalongapp/readalong-server/internal/upstream"
)

// Emitter publishes SSE events. The SSE manager implements it.
type Emitter interface {
	Emit(event sse.Event)
}

// ReaderService coordinates job loading, selection requests, progress
// reporting, and settings for the reading session.
type ReaderService struct {
	session         *session.Session
	store           *store.Store
	pipeline        *upstream.Client
	progressLimiter *ratelimit.KeyedRateLimiter
	emitter         Emitter
	upstreamBase    string
	logger          *slog.Logger
}

// NewReaderService creates the reader service.
func NewReaderService(
	sess *session.Session,
	st *store.Store,
	pipeline *upstream.Client,
	cfg *config.Config,
	emitter Emitter,
	logger *slog.Logger,
) *ReaderService {
	return &ReaderService{
		session:  sess,
		store:    st,
		pipeline: pipeline,
		progressLimiter: ratelimit.New(
			cfg.Session.ProgressReportsPerSecond,
			cfg.Session.ProgressBurst,
		),
		emitter:      emitter,
		upstreamBase: cfg.Upstream.BaseURL,
		logger:       logger,
	}
}

// OpenJob switches the session to a job: fetches its status and chunk
// manifest, loads media listings, and restores persisted positions.
// Media-listing failures degrade to an empty session rather than
// failing the open; chunks may still stream in later.
func (s *ReaderService) OpenJob(ctx context.Context, jobID string) (*domain.Job, error) {
	job, chunks, err := s.pipeline.JobStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.session.SetJob(jobID)
	s.session.SetResolver(upstream.NewURLResolver(s.upstreamBase, jobID, s.logger))
	s.session.SetChunks(jobID, chunks)
	s.progressLimiter.Reset()

	media, err := s.pipeline.MediaLists(ctx, jobID)
	if err != nil {
		s.logger.Warn("media listings unavailable, session starts empty",
			"job_id", jobID,
			"error", err,
		)
	} else {
		for _, cat := range domain.Categories() {
			s.session.SetMedia(jobID, cat, media[cat])
		}
	}

	if positions, err := s.store.ListPositions(jobID); err != nil {
		s.logger.Warn("failed to restore persisted positions", "job_id", jobID, "error", err)
	} else {
		s.session.Positions().Restore(positions)
	}

	s.logger.Info("job opened",
		"job_id", jobID,
		"status", job.Status,
		"chunks", len(chunks),
	)
	return &job, nil
}

// RefreshChunks re-fetches the chunk manifest, used while a processing
// job streams new chunks in.
func (s *ReaderService) RefreshChunks(ctx context.Context) (*domain.Job, error) {
	jobID := s.session.JobID()
	if jobID == "" {
		return nil, apperrors.Conflict("no active job")
	}

	job, chunks, err := s.pipeline.JobStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.session.SetChunks(jobID, chunks)
	return &job, nil
}

// LoadChunkMetadata fetches sentence-level metadata for one chunk and
// merges it into the session. Malformed payloads degrade to the
// chunk's boundary data; a job switch mid-fetch is silently dropped.
func (s *ReaderService) LoadChunkMetadata(ctx context.Context, chunkIndex int) error {
	jobID := s.session.JobID()
	chunk, ok := s.session.Chunk(chunkIndex)
	if !ok {
		return apperrors.NotFoundf("chunk index %d out of range", chunkIndex)
	}

	chunkID := chunk.ChunkID
	if chunkID == "" {
		chunkID = chunk.RangeFragment
	}
	if chunkID == "" {
		return apperrors.NotFoundf("chunk %d has no fetchable id", chunkIndex)
	}

	sentences, err := s.pipeline.ChunkMetadata(ctx, jobID, chunkID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrMalformedMetadata) {
			s.logger.Warn("chunk metadata malformed, keeping boundary data",
				"job_id", jobID,
				"chunk_id", chunkID,
				"error", err,
			)
			return nil
		}
		return err
	}

	err = s.session.ApplyChunkMetadata(jobID, chunkIndex, sentences)
	if apperrors.Is(err, apperrors.ErrStaleRequest) {
		// Job changed while the fetch was in flight.
		return nil
	}
	return err
}

// Jump resolves a selection request. The token must come from
// Session.NextToken or the client's logical clock.
func (s *ReaderService) Jump(req domain.SelectionRequest) (selection.Outcome, error) {
	if req.Token == 0 {
		req.Token = s.session.NextToken()
	}
	return s.session.RequestSelection(req)
}

// JumpToSentence navigates to a global sentence number.
func (s *ReaderService) JumpToSentence(number int, preferred domain.MediaCategory) (selection.Outcome, error) {
	return s.session.JumpToSentence(number, preferred, s.session.NextToken())
}

// Navigate moves sequentially through chunks.
func (s *ReaderService) Navigate(dir nav.Direction) (index int, moved bool, err error) {
	if !dir.Valid() {
		return 0, false, apperrors.Validationf("unknown navigation direction %q", dir)
	}
	index, moved = s.session.Navigate(dir)
	return index, moved, nil
}

// Search queries the search service and, when a hit is found, turns
// the first result into a selection request. The result list is
// returned either way so the client can render alternatives.
func (s *ReaderService) Search(ctx context.Context, query string, preferred domain.MediaCategory) ([]domain.SearchResult, *selection.Outcome, error) {
	results, err := s.pipeline.Search(ctx, s.session.JobID(), query)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return results, nil, nil
	}

	first := &results[0]
	req := domain.SelectionRequest{
		BaseID:          identity.FromSearchResult(first, preferred),
		PreferredType:   preferred,
		OffsetRatio:     first.OffsetRatio,
		ApproximateTime: first.ApproximateTime,
		Token:           s.session.NextToken(),
	}
	out, err := s.session.RequestSelection(req)
	if err != nil {
		return results, nil, err
	}
	return results, &out, nil
}

// ReportProgress records a playback position, throttled per device.
// Over-limit reports are dropped and reported as not accepted; the
// client keeps its own state and retries on the next tick.
func (s *ReaderService) ReportProgress(deviceKey string, upd domain.PositionUpdate) (accepted bool) {
	if !s.progressLimiter.Allow(deviceKey) {
		return false
	}

	s.session.ReportProgress(upd.MediaID, upd.MediaType, upd.BaseID, upd.Position)

	// Write-behind persistence; a store failure never blocks playback.
	jobID := s.session.JobID()
	if jobID != "" {
		pos := domain.PlaybackPosition{
			MediaID:   upd.MediaID,
			MediaType: upd.MediaType,
			BaseID:    upd.BaseID,
			Position:  upd.Position,
		}
		if err := s.store.SavePosition(jobID, pos); err != nil {
			s.logger.Warn("failed to persist position", "media_id", upd.MediaID, "error", err)
		}
	}
	return true
}

// ResumePosition returns the best resume position for a media item.
func (s *ReaderService) ResumePosition(item *domain.MediaItem) float64 {
	return s.session.ResumePosition(item)
}

// State returns the session snapshot for the API.
func (s *ReaderService) State() session.State {
	return s.session.State()
}

// Settings loads reader settings for a user key.
func (s *ReaderService) Settings(userKey string) (*domain.ReaderSettings, error) {
	return s.store.GetSettings(userKey)
}

// UpdateSettings persists reader settings and applies them to the live
// session, then notifies other connected devices.
func (s *ReaderService) UpdateSettings(userKey string, settings *domain.ReaderSettings) error {
	if err := s.store.SaveSettings(userKey, settings); err != nil {
		return err
	}
	s.session.UpdateSettings(*settings)
	if s.emitter != nil {
		s.emitter.Emit(sse.NewSettingsUpdatedEvent(settings))
	}
	return nil
}
