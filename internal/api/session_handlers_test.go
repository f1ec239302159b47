package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-server/internal/config"
	"github.com/readalongapp/readalong-server/internal/service"
	"github.com/readalongapp/readalong-server/internal/session"
	"github.com/readalongapp/readalong-server/internal/sse"
	"github.com/readalongapp/readalong-server/internal/store"
	"github.com/readalongapp/readalong-server/internal/upstream"
)

type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pipeline := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
		case "/search":
			w.Write([]byte(`{"results":[{"base_id":"ch_002","offset_ratio":0.5}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(pipeline.Close)

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:           pipeline.URL,
			RequestsPerSecond: 1000,
			Burst:             100,
		},
		Session: config.SessionConfig{
			ProgressReportsPerSecond: 1,
			ProgressBurst:            2,
		},
	}

	sess := session.New(nil, nil, logger)
	client := upstream.NewClient(cfg.Upstream, logger)
	reader := service.NewReaderService(sess, st, client, cfg, nil, logger)

	manager := sse.NewManager(logger)
	srv := NewServer(reader, sse.NewHandler(manager, logger), logger)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
	}
}

func (ts *testServer) openJob(t *testing.T) {
	t.Helper()
	resp := ts.api.Post("/api/v1/session/job", map[string]any{"job_id": "j1"})
	require.Equal(t, http.StatusOK, resp.Code, "open job failed: %s", resp.Body.String())
}

func TestOpenJobEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.openJob(t)

	resp := ts.api.Get("/api/v1/session/state")
	require.Equal(t, http.StatusOK, resp.Code)

	var state struct {
		JobID      string `json:"job_id"`
		ChunkCount int    `json:"chunk_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	assert.Equal(t, "j1", state.JobID)
	assert.Equal(t, 2, state.ChunkCount)
}

func TestOpenJobEndpoint_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/session/job", map[string]any{"job_id": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Post("/api/v1/session/job", map[string]any{"job_id": "gone"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestJumpEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.openJob(t)

	resp := ts.api.Post("/api/v1/session/jump", map[string]any{
		"base_id":        "ch_002",
		"preferred_type": "text",
		"offset_ratio":   0.25,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Applied *struct {
			MediaID string `json:"media_id"`
		} `json:"applied"`
		ScrollRatio *float64 `json:"scroll_ratio"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotNil(t, out.Applied)
	assert.Equal(t, "u/t2", out.Applied.MediaID)
	require.NotNil(t, out.ScrollRatio)
	assert.Equal(t, 0.25, *out.ScrollRatio)
}

func TestJumpToSentenceEndpoint_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	ts.openJob(t)

	resp := ts.api.Post("/api/v1/session/sentence/999")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestNavigateEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.openJob(t)

	resp := ts.api.Post("/api/v1/session/navigate", map[string]any{"direction": "next"})
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Index int  `json:"index"`
		Moved bool `json:"moved"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Index)
	assert.True(t, out.Moved)

	resp = ts.api.Post("/api/v1/session/navigate", map[string]any{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSearchEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.openJob(t)

	resp := ts.api.Get("/api/v1/session/search?q=needle&preferred=text")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Results []struct {
			BaseID string `json:"base_id"`
		} `json:"results"`
		Applied *struct {
			Applied *struct {
				MediaID string `json:"media_id"`
			} `json:"applied"`
		} `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Results, 1)
	require.NotNil(t, out.Applied)
	require.NotNil(t, out.Applied.Applied)
	assert.Equal(t, "u/t2", out.Applied.Applied.MediaID)
}

func TestProgressEndpoint_Throttles(t *testing.T) {
	ts := setupTestServer(t)
	ts.openJob(t)

	report := map[string]any{
		"media_id":   "u/a1",
		"media_type": "audio",
		"base_id":    "ch_001",
		"position":   30.0,
	}

	accepted := func(resp *httptest.ResponseRecorder) bool {
		t.Helper()
		require.Equal(t, http.StatusOK, resp.Code)
		var out struct {
			Accepted bool `json:"accepted"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		return out.Accepted
	}

	assert.True(t, accepted(ts.api.Post("/api/v1/session/progress", "X-Device-Key: phone", report)))
	assert.True(t, accepted(ts.api.Post("/api/v1/session/progress", "X-Device-Key: phone", report)))
	assert.False(t, accepted(ts.api.Post("/api/v1/session/progress", "X-Device-Key: phone", report)))

	// A different device has its own bucket.
	assert.True(t, accepted(ts.api.Post("/api/v1/session/progress", "X-Device-Key: tablet", report)))
}

func TestResumePositionEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.openJob(t)

	resp := ts.api.Post("/api/v1/session/progress", "X-Device-Key: phone", map[string]any{
		"media_id":   "u/a1",
		"media_type": "audio",
		"base_id":    "ch_001",
		"position":   42.0,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/session/position?media_id=u/a1&media_type=audio")
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Position float64 `json:"position"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, 42.0, out.Position)
}

func TestSettingsEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/settings", "X-Device-Key: phone")
	require.Equal(t, http.StatusOK, resp.Code)

	var settings struct {
		TranslationAudioEnabled bool    `json:"translation_audio_enabled"`
		FontScale               float64 `json:"font_scale"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.True(t, settings.TranslationAudioEnabled)
	assert.Equal(t, 1.0, settings.FontScale)

	resp = ts.api.Patch("/api/v1/settings", "X-Device-Key: phone", map[string]any{
		"font_scale": 1.5,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/settings", "X-Device-Key: phone")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.Equal(t, 1.5, settings.FontScale)

	// Another device keeps its own profile.
	resp = ts.api.Get("/api/v1/settings", "X-Device-Key: tablet")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.Equal(t, 1.0, settings.FontScale)
}
