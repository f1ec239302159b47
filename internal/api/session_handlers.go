package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readalongapp/readalong-server/internal/domain"
	"github.com/readalongapp/readalong-server/internal/nav"
	"github.com/readalongapp/readalong-server/internal/selection"
	"github.com/readalongapp/readalong-server/internal/session"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "open-job",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/job",
		Summary:     "Open a job",
		Description: "Switches the session to a pipeline job and loads its chunks and media",
		Tags:        []string{"Session"},
	}, s.handleOpenJob)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh-chunks",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/job/refresh",
		Summary:     "Refresh chunk manifest",
		Description: "Re-fetches the chunk manifest while a processing job streams chunks in",
		Tags:        []string{"Session"},
	}, s.handleRefreshChunks)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-session-state",
		Method:      http.MethodGet,
		Path:        "/api/v1/session/state",
		Summary:     "Get session state",
		Tags:        []string{"Session"},
	}, s.handleSessionState)

	huma.Register(s.api, huma.Operation{
		OperationID: "load-chunk-metadata",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/chunks/{index}/metadata",
		Summary:     "Load chunk metadata",
		Description: "Fetches sentence-level metadata for one chunk and rebuilds the index",
		Tags:        []string{"Session"},
	}, s.handleLoadChunkMetadata)

	huma.Register(s.api, huma.Operation{
		OperationID: "jump",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/jump",
		Summary:     "Jump to content",
		Description: "Resolves a cross-category selection request against loaded media",
		Tags:        []string{"Navigation"},
	}, s.handleJump)

	huma.Register(s.api, huma.Operation{
		OperationID: "jump-to-sentence",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/sentence/{number}",
		Summary:     "Jump to sentence",
		Tags:        []string{"Navigation"},
	}, s.handleJumpToSentence)

	huma.Register(s.api, huma.Operation{
		OperationID: "navigate",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/navigate",
		Summary:     "Navigate chunks",
		Description: "Moves first/previous/next/last through the chunk list with boundary clamping",
		Tags:        []string{"Navigation"},
	}, s.handleNavigate)

	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/session/search",
		Summary:     "Search content",
		Description: "Queries the search service and jumps to the first hit",
		Tags:        []string{"Navigation"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "report-progress",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/progress",
		Summary:     "Report playback progress",
		Tags:        []string{"Playback"},
	}, s.handleReportProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "resume-position",
		Method:      http.MethodGet,
		Path:        "/api/v1/session/position",
		Summary:     "Get resume position",
		Description: "Returns the best resume position for a media item, with base-identity carry-over",
		Tags:        []string{"Playback"},
	}, s.handleResumePosition)
}

// === DTOs ===

// OpenJobInput selects the job to open.
type OpenJobInput struct {
	Body struct {
		JobID string `json:"job_id" validate:"required,min=1,max=128" doc:"Pipeline job id"`
	}
}

// JobOutput wraps a job description.
type JobOutput struct {
	Body domain.Job
}

// SessionStateOutput wraps the session snapshot.
type SessionStateOutput struct {
	Body session.State
}

// ChunkMetadataInput names the chunk to load metadata for.
type ChunkMetadataInput struct {
	Index int `path:"index" minimum:"0" doc:"Chunk index"`
}

// JumpInput is a selection request.
type JumpInput struct {
	Body struct {
		BaseID          string   `json:"base_id,omitempty" validate:"omitempty,max=512" doc:"Target base identity (name, path, or URL)"`
		PreferredType   string   `json:"preferred_type,omitempty" validate:"omitempty,oneof=text audio video" doc:"Category checked first"`
		OffsetRatio     *float64 `json:"offset_ratio,omitempty" validate:"omitempty,gte=0,lte=1" doc:"Scroll offset within the target"`
		ApproximateTime *float64 `json:"approximate_time,omitempty" validate:"omitempty,gte=0" doc:"Playback seed time in seconds"`
		Token           int64    `json:"token,omitempty" doc:"Logical clock value; omit to let the server assign one"`
	}
}

// SelectionOutcomeBody is the wire form of a resolution outcome.
type SelectionOutcomeBody struct {
	Deferred        bool                    `json:"deferred" doc:"True when no media has loaded yet and the request stays pending"`
	Applied         *domain.Selection       `json:"applied,omitempty" doc:"The winning selection"`
	ChunkIndex      int                     `json:"chunk_index" doc:"Chunk-level match, -1 when none"`
	ScrollRatio     *float64                `json:"scroll_ratio,omitempty" doc:"Clamped text scroll instruction"`
	PositionUpdates []domain.PositionUpdate `json:"position_updates,omitempty"`
}

// SelectionOutput wraps a resolution outcome.
type SelectionOutput struct {
	Body SelectionOutcomeBody
}

// SentenceJumpInput names the sentence to jump to.
type SentenceJumpInput struct {
	Number    int    `path:"number" doc:"Global sentence number"`
	Preferred string `query:"preferred" validate:"omitempty,oneof=text audio video" doc:"Preferred category"`
}

// NavigateInput selects the direction to move.
type NavigateInput struct {
	Body struct {
		Direction string `json:"direction" validate:"required,oneof=first previous next last" doc:"Navigation intent"`
	}
}

// NavigateOutput reports the move result.
type NavigateOutput struct {
	Body struct {
		Index int  `json:"index" doc:"Current chunk index after the move"`
		Moved bool `json:"moved" doc:"False when the move was a boundary no-op"`
	}
}

// SearchInput carries the search query.
type SearchInput struct {
	Query     string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Preferred string `query:"preferred" validate:"omitempty,oneof=text audio video" doc:"Preferred category for the jump"`
}

// SearchOutput carries results plus the applied jump, if any.
type SearchOutput struct {
	Body struct {
		Results []domain.SearchResult `json:"results"`
		Applied *SelectionOutcomeBody `json:"applied,omitempty" doc:"Resolution of the first hit"`
	}
}

// ProgressInput is one playback progress report.
type ProgressInput struct {
	DeviceKey string `header:"X-Device-Key" doc:"Per-device throttle key; defaults to the client address"`
	Body      struct {
		MediaID   string  `json:"media_id" validate:"required,max=1024" doc:"Media URL or id"`
		MediaType string  `json:"media_type" validate:"required,oneof=text audio video" doc:"Media category"`
		BaseID    string  `json:"base_id,omitempty" validate:"omitempty,max=512" doc:"Base identity for sibling carry-over"`
		Position  float64 `json:"position" validate:"gte=0" doc:"Seconds for audio/video, ratio for text"`
	}
}

// ProgressOutput reports whether the tick was admitted.
type ProgressOutput struct {
	Body struct {
		Accepted bool `json:"accepted" doc:"False when throttled; the client retries on the next tick"`
	}
}

// ResumePositionInput identifies the media item to resume.
type ResumePositionInput struct {
	MediaID      string `query:"media_id" validate:"required,max=1024"`
	MediaType    string `query:"media_type" validate:"required,oneof=text audio video"`
	RelativePath string `query:"relative_path" validate:"omitempty,max=1024"`
	Name         string `query:"name" validate:"omitempty,max=512"`
}

// ResumePositionOutput carries the resume position.
type ResumePositionOutput struct {
	Body struct {
		Position float64 `json:"position"`
	}
}

// === Handlers ===

func outcomeBody(out selection.Outcome) SelectionOutcomeBody {
	return SelectionOutcomeBody{
		Deferred:        out.Deferred,
		Applied:         out.Applied,
		ChunkIndex:      out.ChunkIndex,
		ScrollRatio:     out.ScrollRatio,
		PositionUpdates: out.PositionUpdates,
	}
}

func (s *Server) handleOpenJob(ctx context.Context, input *OpenJobInput) (*JobOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	job, err := s.reader.OpenJob(ctx, input.Body.JobID)
	if err != nil {
		return nil, err
	}
	return &JobOutput{Body: *job}, nil
}

func (s *Server) handleRefreshChunks(ctx context.Context, _ *struct{}) (*JobOutput, error) {
	job, err := s.reader.RefreshChunks(ctx)
	if err != nil {
		return nil, err
	}
	return &JobOutput{Body: *job}, nil
}

func (s *Server) handleSessionState(_ context.Context, _ *struct{}) (*SessionStateOutput, error) {
	return &SessionStateOutput{Body: s.reader.State()}, nil
}

func (s *Server) handleLoadChunkMetadata(ctx context.Context, input *ChunkMetadataInput) (*SessionStateOutput, error) {
	if err := s.reader.LoadChunkMetadata(ctx, input.Index); err != nil {
		return nil, err
	}
	return &SessionStateOutput{Body: s.reader.State()}, nil
}

func (s *Server) handleJump(_ context.Context, input *JumpInput) (*SelectionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	out, err := s.reader.Jump(domain.SelectionRequest{
		BaseID:          input.Body.BaseID,
		PreferredType:   domain.MediaCategory(input.Body.PreferredType),
		OffsetRatio:     input.Body.OffsetRatio,
		ApproximateTime: input.Body.ApproximateTime,
		Token:           input.Body.Token,
	})
	if err != nil {
		return nil, err
	}
	return &SelectionOutput{Body: outcomeBody(out)}, nil
}

func (s *Server) handleJumpToSentence(_ context.Context, input *SentenceJumpInput) (*SelectionOutput, error) {
	out, err := s.reader.JumpToSentence(input.Number, domain.MediaCategory(input.Preferred))
	if err != nil {
		return nil, err
	}
	return &SelectionOutput{Body: outcomeBody(out)}, nil
}

func (s *Server) handleNavigate(_ context.Context, input *NavigateInput) (*NavigateOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	index, moved, err := s.reader.Navigate(nav.Direction(input.Body.Direction))
	if err != nil {
		return nil, err
	}

	out := &NavigateOutput{}
	out.Body.Index = index
	out.Body.Moved = moved
	return out, nil
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	results, applied, err := s.reader.Search(ctx, input.Query, domain.MediaCategory(input.Preferred))
	if err != nil {
		return nil, err
	}

	out := &SearchOutput{}
	out.Body.Results = results
	if applied != nil {
		body := outcomeBody(*applied)
		out.Body.Applied = &body
	}
	return out, nil
}

func (s *Server) handleReportProgress(_ context.Context, input *ProgressInput) (*ProgressOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	deviceKey := input.DeviceKey
	if deviceKey == "" {
		deviceKey = "anonymous"
	}

	accepted := s.reader.ReportProgress(deviceKey, domain.PositionUpdate{
		MediaID:   input.Body.MediaID,
		MediaType: domain.MediaCategory(input.Body.MediaType),
		BaseID:    input.Body.BaseID,
		Position:  input.Body.Position,
	})

	out := &ProgressOutput{}
	out.Body.Accepted = accepted
	return out, nil
}

func (s *Server) handleResumePosition(_ context.Context, input *ResumePositionInput) (*ResumePositionOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	out := &ResumePositionOutput{}
	out.Body.Position = s.reader.ResumePosition(&domain.MediaItem{
		URL:          input.MediaID,
		Type:         input.MediaType,
		RelativePath: input.RelativePath,
		Name:         input.Name,
	})
	return out, nil
}
