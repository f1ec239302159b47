package tracks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-server/internal/domain"
)

type prefixResolver struct{ prefix string }

func (r prefixResolver) ResolveURL(ref string) string {
	if strings.HasPrefix(ref, r.prefix) {
		return ref
	}
	return r.prefix + ref
}

func TestClassify_DeclaredTrackKeys(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantKey string
	}{
		{"orig_trans is combined", "orig_trans", "combined"},
		{"origtrans is combined", "origtrans", "combined"},
		{"orig is original", "orig", "original"},
		{"original is original", "original", "original"},
		{"trans is translation", "trans", "translation"},
		{"translation is translation", "translation", "translation"},
		{"unknown key kept lowercased", "Narration", "narration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := &domain.Chunk{
				AudioTracks: map[string]domain.AudioTrackRef{
					tt.key: {URL: "https://cdn.example.com/a.mp3"},
				},
			}
			classified := Classify(chunk, nil)
			require.Len(t, classified, 1)
			track, ok := classified[tt.wantKey]
			require.True(t, ok, "expected key %q, got %v", tt.wantKey, classified)
			assert.Equal(t, kindForKey(tt.wantKey), track.Kind)
		})
	}
}

func TestClassify_FileSignatures(t *testing.T) {
	chunk := &domain.Chunk{
		Files: []domain.MediaItem{
			{Type: "audio", RelativePath: "audio/ch01_orig_trans.mp3", URL: "u/combined"},
			{Type: "audio", RelativePath: "audio/ch01_orig.mp3", URL: "u/orig"},
			{Type: "audio", RelativePath: "audio/ch01_es.mp3", URL: "u/trans1"},
			{Type: "audio", RelativePath: "audio/ch01_es_alt.mp3", URL: "u/trans2"},
			{Type: "text", RelativePath: "text/ch01.txt", URL: "u/text"},
		},
	}

	classified := Classify(chunk, nil)
	require.Len(t, classified, 3)
	assert.Equal(t, "u/combined", classified["combined"].URL)
	assert.Equal(t, "u/orig", classified["original"].URL)
	// First translation-like file wins; the alternate is ignored.
	assert.Equal(t, "u/trans1", classified["translation"].URL)
}

func TestClassify_DeclaredBeatsFileSignal(t *testing.T) {
	chunk := &domain.Chunk{
		AudioTracks: map[string]domain.AudioTrackRef{
			"orig": {URL: "u/declared-orig", Duration: 120.5},
		},
		Files: []domain.MediaItem{
			{Type: "audio", RelativePath: "audio/ch01_orig.mp3", URL: "u/file-orig"},
		},
	}

	classified := Classify(chunk, nil)
	track := classified["original"]
	assert.Equal(t, "u/declared-orig", track.URL)
	assert.Equal(t, 120.5, track.Duration)
}

func TestClassify_URLDedupeAfterResolution(t *testing.T) {
	// The declared track and the file entry reference the same asset,
	// one bare and one already prefixed. Resolution makes them equal so
	// the second registration is dropped.
	resolver := prefixResolver{prefix: "https://cdn.example.com/"}
	chunk := &domain.Chunk{
		AudioTracks: map[string]domain.AudioTrackRef{
			"trans": {Path: "jobs/j1/ch01_es.mp3"},
		},
		Files: []domain.MediaItem{
			{Type: "audio", RelativePath: "ch01_es.mp3", URL: "https://cdn.example.com/jobs/j1/ch01_es.mp3"},
		},
	}

	classified := Classify(chunk, resolver)
	require.Len(t, classified, 1)
	assert.Equal(t, "https://cdn.example.com/jobs/j1/ch01_es.mp3", classified["translation"].URL)
}

func TestClassify_AudioSubtypes(t *testing.T) {
	chunk := &domain.Chunk{
		Files: []domain.MediaItem{
			{Type: "audio_original", RelativePath: "a/ch01_orig.mp3", URL: "u/orig"},
			{Type: "video", RelativePath: "v/ch01.mp4", URL: "u/video"},
		},
	}

	classified := Classify(chunk, nil)
	require.Len(t, classified, 1)
	assert.Equal(t, "u/orig", classified["original"].URL)
}

func TestClassify_EmptyChunk(t *testing.T) {
	assert.Empty(t, Classify(&domain.Chunk{}, nil))
}

func TestDeriveToggles(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want Toggles
	}{
		{"combined fills missing original", []string{"orig_trans", "translation"},
			Toggles{HasTranslation: true, HasCombined: true}},
		{"combined fills missing translation", []string{"orig_trans", "original"},
			Toggles{HasOriginal: true, HasCombined: true}},
		{"combined redundant with both layers", []string{"combined", "original", "translation"},
			Toggles{HasOriginal: true, HasTranslation: true}},
		{"combined alone", []string{"combined"},
			Toggles{HasCombined: true}},
		{"nothing", nil, Toggles{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify(&domain.Chunk{
				AudioTracks: func() map[string]domain.AudioTrackRef {
					refs := make(map[string]domain.AudioTrackRef, len(tt.keys))
					for _, k := range tt.keys {
						refs[k] = domain.AudioTrackRef{URL: "u/" + k}
					}
					return refs
				}(),
			}, nil)
			assert.Equal(t, tt.want, DeriveToggles(classified))
		})
	}
}

func TestBuildOptions(t *testing.T) {
	chunk := &domain.Chunk{
		AudioTracks: map[string]domain.AudioTrackRef{
			"orig_trans":  {URL: "u/a"},
			"translation": {URL: "u/b"},
		},
	}
	classified := Classify(chunk, nil)

	t.Run("combined and translation both offered", func(t *testing.T) {
		opts := BuildOptions(classified, nil, true, true)
		require.Len(t, opts, 2)
		assert.Equal(t, KindTranslation, opts[0].Kind)
		assert.Equal(t, "u/b", opts[0].URL)
		assert.Equal(t, KindCombined, opts[1].Kind)
		assert.Equal(t, "u/a", opts[1].URL)
	})

	t.Run("both toggles off hides everything", func(t *testing.T) {
		assert.Nil(t, BuildOptions(classified, nil, false, false))
	})

	t.Run("translation off keeps combined", func(t *testing.T) {
		opts := BuildOptions(classified, nil, true, false)
		require.Len(t, opts, 1)
		assert.Equal(t, KindCombined, opts[0].Kind)
	})

	t.Run("custom labels", func(t *testing.T) {
		opts := BuildOptions(classified, map[string]string{"translation": "Spanish"}, true, true)
		assert.Equal(t, "Spanish", opts[0].Label)
		assert.Equal(t, "Original + Translation", opts[1].Label)
	})
}
