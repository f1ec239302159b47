package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readalongapp/readalong-server/internal/domain"
)

func intp(n int) *int { return &n }

func boundedChunk(id string, start, end int) domain.Chunk {
	return domain.Chunk{
		ChunkID:       id,
		StartSentence: intp(start),
		EndSentence:   intp(end),
	}
}

func chunkWithSentences(id string, start, end int, numbers ...int) domain.Chunk {
	c := boundedChunk(id, start, end)
	for _, n := range numbers {
		c.Sentences = append(c.Sentences, domain.SentenceMetadata{
			SentenceNumber: intp(n),
			Original:       "sentence",
		})
	}
	return c
}

func TestBuild_Bounds(t *testing.T) {
	l := Build([]domain.Chunk{
		boundedChunk("c1", 5, 10),
		boundedChunk("c2", 11, 30),
	})

	minSeen, maxSeen, ok := l.Bounds()
	require.True(t, ok)
	assert.Equal(t, 5, minSeen)
	assert.Equal(t, 30, maxSeen)
	assert.Len(t, l.Ranges, 2)
}

func TestBuild_EmptyChunks(t *testing.T) {
	l := Build(nil)
	_, _, ok := l.Bounds()
	assert.False(t, ok)
	assert.Empty(t, l.Suggestions)

	_, found := l.Resolve(1)
	assert.False(t, found)
}

func TestResolve_RangeInterpolation(t *testing.T) {
	l := Build([]domain.Chunk{
		boundedChunk("c1", 1, 5),
		boundedChunk("c2", 6, 10),
	})

	m, ok := l.Resolve(8)
	require.True(t, ok)
	assert.Equal(t, 1, m.ChunkIndex)
	assert.Equal(t, "c2", m.BaseID)
	assert.InDelta(t, 0.5, m.Ratio, 1e-9) // (8-6)/(10-6)
}

func TestResolve_GaplessRangesCoverEverySentence(t *testing.T) {
	l := Build([]domain.Chunk{
		boundedChunk("c1", 1, 5),
		boundedChunk("c2", 6, 10),
		boundedChunk("c3", 11, 20),
	})

	for s := 1; s <= 20; s++ {
		_, ok := l.Resolve(s)
		assert.True(t, ok, "sentence %d should resolve", s)
	}

	_, ok := l.Resolve(0)
	assert.False(t, ok)
	_, ok = l.Resolve(21)
	assert.False(t, ok)
}

func TestResolve_ExactBeatsRange(t *testing.T) {
	// Sentence 42 has explicit metadata in the first chunk while the
	// second chunk's declared boundary also covers it.
	chunks := []domain.Chunk{
		chunkWithSentences("exact-chunk", 40, 44, 40, 41, 42, 43, 44),
		boundedChunk("range-chunk", 30, 50),
	}
	l := Build(chunks)

	m, ok := l.Resolve(42)
	require.True(t, ok)
	assert.Equal(t, 0, m.ChunkIndex)
	assert.Equal(t, "exact-chunk", m.BaseID)
	assert.InDelta(t, 0.5, m.Ratio, 1e-9) // local index 2 of 5: 2/4
}

func TestResolve_ExactRatioSingleSentence(t *testing.T) {
	l := Build([]domain.Chunk{chunkWithSentences("c1", 7, 7, 7)})

	m, ok := l.Resolve(7)
	require.True(t, ok)
	assert.Zero(t, m.Ratio)
}

func TestResolve_DegenerateRange(t *testing.T) {
	l := Build([]domain.Chunk{boundedChunk("c1", 9, 9)})

	m, ok := l.Resolve(9)
	require.True(t, ok)
	assert.Zero(t, m.Ratio)
}

func TestSuggestions_DenseSpan(t *testing.T) {
	// Span of exactly 200 produces all 201 integers.
	l := Build([]domain.Chunk{boundedChunk("c1", 100, 300)})

	require.Len(t, l.Suggestions, 201)
	assert.Equal(t, 100, l.Suggestions[0])
	assert.Equal(t, 300, l.Suggestions[200])
}

func TestSuggestions_SparseSpan(t *testing.T) {
	l := Build([]domain.Chunk{boundedChunk("c1", 1, 10001)})

	require.NotEmpty(t, l.Suggestions)
	assert.LessOrEqual(t, len(l.Suggestions), 400)
	assert.Equal(t, 1, l.Suggestions[0])
	assert.Equal(t, 10001, l.Suggestions[len(l.Suggestions)-1])

	// Sorted ascending.
	for i := 1; i < len(l.Suggestions); i++ {
		assert.Greater(t, l.Suggestions[i], l.Suggestions[i-1])
	}
}

func TestBuild_DuplicateSentenceNumberFirstWins(t *testing.T) {
	chunks := []domain.Chunk{
		chunkWithSentences("first", 1, 3, 1, 2, 3),
		chunkWithSentences("second", 3, 5, 3, 4, 5),
	}
	l := Build(chunks)

	m, ok := l.Resolve(3)
	require.True(t, ok)
	assert.Equal(t, "first", m.BaseID)
}

func TestBuild_SentencesWithoutNumbersIgnored(t *testing.T) {
	chunk := domain.Chunk{
		ChunkID: "untyped",
		Sentences: []domain.SentenceMetadata{
			{Original: "no number"},
			{Original: "still none"},
		},
	}
	l := Build([]domain.Chunk{chunk})

	_, _, ok := l.Bounds()
	assert.False(t, ok)
	assert.Empty(t, l.Exact)
}

func TestBuild_Deterministic(t *testing.T) {
	chunks := []domain.Chunk{
		chunkWithSentences("c1", 1, 5, 1, 2, 3, 4, 5),
		boundedChunk("c2", 6, 400),
	}

	a := Build(chunks)
	b := Build(chunks)

	assert.Equal(t, a.Exact, b.Exact)
	assert.Equal(t, a.Ranges, b.Ranges)
	assert.Equal(t, a.Suggestions, b.Suggestions)
}
