package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-server/internal/config"
	"github.com/readalongapp/readalong-server/internal/domain"
	apperrors "github.com/readalongapp/readalong-server/internal/errors"
	"github.com/readalongapp/readalong-server/internal/nav"
	"github.com/readalongapp/readalong-server/internal/session"
	"github.com/readalongapp/readalong-server/internal/store"
	"github.com/readalongapp/readalong-server/internal/upstream"
)

func testReader(t *testing.T, handler http.HandlerFunc) *ReaderService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:           srv.URL,
			RequestsPerSecond: 1000,
			Burst:             100,
		},
		Session: config.SessionConfig{
			ProgressReportsPerSecond: 1,
			ProgressBurst:            2,
		},
	}

	sess := session.New(nil, nil, logger)
	pipeline := upstream.NewClient(cfg.Upstream, logger)
	return NewReaderService(sess, st, pipeline, cfg, nil, logger)
}

func pipelineHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jobs/j1":
			w.Write([]byte(`{"id":"j1","title":"A Book","status":"processing","chunks":[
				{"chunk_id":"chunk-1","start_sentence":1,"end_sentence":5,
				 "files":[{"url":"u/t1","type":"text","relative_path":"text/ch_001.txt"}]},
				{"chunk_id":"chunk-2","start_sentence":6,"end_sentence":10,
				 "files":[{"url":"u/t2","type":"text","relative_path":"text/ch_002.txt"}]}
			]}`))
		case "/jobs/j1/media":
			w.Write([]byte(`{
				"text":[{"url":"u/t1","type":"text","relative_path":"text/ch_001.txt"},
				        {"url":"u/t2","type":"text","relative_path":"text/ch_002.txt"}],
				"audio":[{"url":"u/a1","type":"audio","relative_path":"audio/ch_001.mp3"}]
			}`))
		case "/jobs/j1/chunks/chunk-2/metadata":
			w.Write([]byte(`{"sentences":[
				{"sentence_number":6,"original":"six"},
				{"sentence_number":7,"original":"seven"}
			]}`))
		case "/jobs/j1/chunks/chunk-1/metadata":
			w.Write([]byte(`not json at all`))
		case "/search":
			w.Write([]byte(`{"results":[{"base_id":"ch_002","offset_ratio":0.5}]}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func TestOpenJob(t *testing.T) {
	s := testReader(t, pipelineHandler(t))

	job, err := s.OpenJob(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, domain.JobProcessing, job.Status)

	st := s.State()
	assert.Equal(t, "j1", st.JobID)
	assert.Equal(t, 2, st.ChunkCount)
	assert.Equal(t, 1, st.SentenceMin)
	assert.Equal(t, 10, st.SentenceMax)

	_, err = s.OpenJob(context.Background(), "gone")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestLoadChunkMetadata(t *testing.T) {
	s := testReader(t, pipelineHandler(t))
	_, err := s.OpenJob(context.Background(), "j1")
	require.NoError(t, err)

	require.NoError(t, s.LoadChunkMetadata(context.Background(), 1))

	// Sentence 6 now resolves exactly into chunk 1.
	out, err := s.JumpToSentence(6, domain.MediaText)
	require.NoError(t, err)
	require.NotNil(t, out.Applied)
	assert.Equal(t, 1, out.Applied.ChunkIndex)

	// Malformed metadata degrades to boundary data without error.
	require.NoError(t, s.LoadChunkMetadata(context.Background(), 0))
	out, err = s.JumpToSentence(3, domain.MediaText)
	require.NoError(t, err)
	require.NotNil(t, out.Applied)
	assert.Equal(t, 0, out.Applied.ChunkIndex)

	err = s.LoadChunkMetadata(context.Background(), 99)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSearchDrivesSelection(t *testing.T) {
	s := testReader(t, pipelineHandler(t))
	_, err := s.OpenJob(context.Background(), "j1")
	require.NoError(t, err)

	results, out, err := s.Search(context.Background(), "needle", domain.MediaText)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, out)
	require.NotNil(t, out.Applied)
	assert.Equal(t, "u/t2", out.Applied.MediaID)
	require.NotNil(t, out.ScrollRatio)
	assert.Equal(t, 0.5, *out.ScrollRatio)
}

func TestReportProgress_ThrottlesPerDevice(t *testing.T) {
	s := testReader(t, pipelineHandler(t))
	_, err := s.OpenJob(context.Background(), "j1")
	require.NoError(t, err)

	upd := domain.PositionUpdate{
		MediaID: "u/a1", MediaType: domain.MediaAudio, BaseID: "ch_001", Position: 30,
	}

	// Burst of 2 per device.
	assert.True(t, s.ReportProgress("device-1", upd))
	upd.Position = 31
	assert.True(t, s.ReportProgress("device-1", upd))
	upd.Position = 32
	assert.False(t, s.ReportProgress("device-1", upd))

	// Other devices are unaffected.
	upd.Position = 40
	assert.True(t, s.ReportProgress("device-2", upd))

	// Accepted reports are remembered; the throttled one never landed.
	assert.Equal(t, 40.0, s.ResumePosition(&domain.MediaItem{URL: "u/a1", Type: "audio"}))
}

func TestNavigate(t *testing.T) {
	s := testReader(t, pipelineHandler(t))
	_, err := s.OpenJob(context.Background(), "j1")
	require.NoError(t, err)

	idx, moved, err := s.Navigate(nav.Next)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, idx)

	_, _, err = s.Navigate(nav.Direction("sideways"))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestSettingsRoundTrip(t *testing.T) {
	s := testReader(t, pipelineHandler(t))

	settings, err := s.Settings("device-1")
	require.NoError(t, err)
	assert.True(t, settings.TranslationAudioEnabled)

	settings.FontScale = 1.3
	require.NoError(t, s.UpdateSettings("device-1", settings))

	loaded, err := s.Settings("device-1")
	require.NoError(t, err)
	assert.Equal(t, 1.3, loaded.FontScale)
}
