package upstream

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
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.UpstreamConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
		Burst:             100,
	}, slog.New(slog.DiscardHandler))
}

func TestChunkMetadata(t *testing.T) {
	t.Run("decodes aliases and defaults", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/jobs/j1/chunks/c1/metadata", r.URL.Path)
			w.Write([]byte(`{"sentences":[
				{"sentence_number":5,"original":"hello","timeline":{"start":1.5,"end":3.0}},
				{"number":6,"text":"aliased","timeline":{"start_time":3.0,"end_time":4.5}},
				{"original":"numberless"}
			]}`))
		})

		sentences, err := c.ChunkMetadata(context.Background(), "j1", "c1")
		require.NoError(t, err)
		require.Len(t, sentences, 3)

		require.NotNil(t, sentences[0].SentenceNumber)
		assert.Equal(t, 5, *sentences[0].SentenceNumber)
		assert.Equal(t, 1.5, sentences[0].Timeline.Start)

		// Aliased field names normalize to the same record shape.
		require.NotNil(t, sentences[1].SentenceNumber)
		assert.Equal(t, 6, *sentences[1].SentenceNumber)
		assert.Equal(t, "aliased", sentences[1].Original)
		assert.Equal(t, 4.5, sentences[1].Timeline.End)

		assert.Nil(t, sentences[2].SentenceNumber)
	})

	t.Run("missing sentences field is empty not error", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		sentences, err := c.ChunkMetadata(context.Background(), "j1", "c1")
		require.NoError(t, err)
		assert.Empty(t, sentences)
	})

	t.Run("unparsable payload is malformed metadata", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"sentences": "not-a-list"`))
		})

		_, err := c.ChunkMetadata(context.Background(), "j1", "c1")
		assert.True(t, apperrors.Is(err, apperrors.ErrMalformedMetadata))
	})

	t.Run("404 is not found", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := c.ChunkMetadata(context.Background(), "j1", "gone")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestMediaLists(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/j1/media", r.URL.Path)
		w.Write([]byte(`{
			"text":[{"url":"u/t1","type":"text","rel_path":"text/ch_001.txt"}],
			"audio":[{"href":"u/a1","media_type":"audio","relative_path":"audio/ch_001.mp3"}]
		}`))
	})

	lists, err := c.MediaLists(context.Background(), "j1")
	require.NoError(t, err)

	require.Len(t, lists[domain.MediaText], 1)
	assert.Equal(t, "text/ch_001.txt", lists[domain.MediaText][0].RelativePath)

	require.Len(t, lists[domain.MediaAudio], 1)
	assert.Equal(t, "u/a1", lists[domain.MediaAudio][0].URL)
	assert.Equal(t, "audio", lists[domain.MediaAudio][0].Type)

	assert.Empty(t, lists[domain.MediaVideo])
}

func TestJobStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"job_id":"j1","title":"A Book","state":"completed",
			"chunks":[
				{"id":"chunk-1","start_sentence":1,"end_sentence":5,
				 "audio_tracks":{"trans":{"href":"u/a1","duration":30}}},
				{"chunk_id":"chunk-2","start_sentence":6,"end_sentence":10}
			]
		}`))
	})

	job, chunks, err := c.JobStatus(context.Background(), "j1")
	require.NoError(t, err)

	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, domain.JobComplete, job.Status)
	assert.Equal(t, 2, job.ChunkCount)

	require.Len(t, chunks, 2)
	assert.Equal(t, "chunk-1", chunks[0].ChunkID)
	assert.Equal(t, "u/a1", chunks[0].AudioTracks["trans"].URL)
	start, end, ok := chunks[1].Boundary()
	require.True(t, ok)
	assert.Equal(t, 6, start)
	assert.Equal(t, 10, end)
}

func TestSearch(t *testing.T) {
	t.Run("normalizes results", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "needle", r.URL.Query().Get("q"))
			assert.Equal(t, "j1", r.URL.Query().Get("job_id"))
			w.Write([]byte(`{"results":[
				{"base_id":"ch_003","offset_ratio":0.25,"occurrence_count":4,
				 "media":{"AUDIO":[{"url":"u/a3","type":"audio"}],"bogus":[{"url":"x"}]}},
				{"range_fragment":"s10-s20"}
			]}`))
		})

		results, err := c.Search(context.Background(), "j1", "needle")
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, 4, results[0].OccurrenceCount)
		require.Len(t, results[0].Media[domain.MediaAudio], 1)
		assert.NotContains(t, results[0].Media, domain.MediaCategory("bogus"))

		// Omitted count defaults to one occurrence.
		assert.Equal(t, 1, results[1].OccurrenceCount)
	})

	t.Run("degrades to empty on bad payload", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway error</html>`))
		})

		results, err := c.Search(context.Background(), "j1", "needle")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("degrades to empty on server error", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		results, err := c.Search(context.Background(), "j1", "needle")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestURLResolver(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	t.Run("absolute passes through and is idempotent", func(t *testing.T) {
		r := NewURLResolver("https://cdn.example.com", "j1", log)
		abs := "https://other.example.com/file.mp3"
		assert.Equal(t, abs, r.ResolveURL(abs))
		assert.Equal(t, r.ResolveURL(abs), r.ResolveURL(r.ResolveURL(abs)))
	})

	t.Run("relative gets job-scoped path", func(t *testing.T) {
		r := NewURLResolver("https://cdn.example.com/", "j1", log)
		assert.Equal(t,
			"https://cdn.example.com/jobs/j1/files/audio/ch_001.mp3",
			r.ResolveURL("audio/ch_001.mp3"))
	})

	t.Run("missing base yields best guess with error", func(t *testing.T) {
		r := NewURLResolver("", "j1", log)
		resolved, err := r.Resolve("audio/ch_001.mp3")
		assert.True(t, apperrors.Is(err, apperrors.ErrUnresolvablePath))
		assert.Equal(t, "/jobs/j1/files/audio/ch_001.mp3", resolved)

		// The Resolver interface still hands back the best guess.
		assert.Equal(t, "/jobs/j1/files/audio/ch_001.mp3", r.ResolveURL("audio/ch_001.mp3"))
	})

	t.Run("empty reference", func(t *testing.T) {
		r := NewURLResolver("https://cdn.example.com", "j1", log)
		resolved, err := r.Resolve("")
		assert.Error(t, err)
		assert.Empty(t, resolved)
	})
}
