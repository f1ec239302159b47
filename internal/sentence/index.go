// Package sentence builds a queryable index over chunked content so any
// global sentence number can be resolved to a chunk and an intra-chunk
// offset.
//
// Two precision tiers feed the index: sentence-level metadata (exact)
// and chunk boundary ranges (interpolated). Exact entries always win -
// sentence-level data is more precise than chunk boundaries.
package sentence

import (
	"math"
	"slices"

	"github.com/readalongapp/readalong-server/internal/domain"
	"github.com/readalongapp/readalong-server/internal/identity"
)

const (
	// denseSpanLimit is the largest sentence span that gets a full
	// integer enumeration as jump suggestions.
	denseSpanLimit = 200
	// maxSuggestions bounds the suggestion list for UI affordances.
	maxSuggestions = 400
	// strideDivisor sets the sampling stride for sparse suggestion sets.
	strideDivisor = 25
)

// Entry locates one exactly-indexed sentence.
type Entry struct {
	ChunkIndex int
	LocalIndex int
	// Total is the sentence count of the owning chunk, used to compute
	// the intra-chunk ratio.
	Total  int
	BaseID string
}

// Range is one chunk's declared [Start, End] sentence boundary.
type Range struct {
	Start      int
	End        int
	ChunkIndex int
	BaseID     string
}

// Match is a resolved sentence target: the owning chunk and the
// position within it as a ratio in [0, 1].
type Match struct {
	ChunkIndex int
	BaseID     string
	Ratio      float64
}

// Lookup is the derived sentence index. Rebuilt in full whenever the
// chunk list changes; never patched incrementally.
type Lookup struct {
	Min         int
	Max         int
	Exact       map[int]Entry
	Ranges      []Range
	Suggestions []int

	seen bool
}

// Build scans the chunk list and produces a fresh lookup. The result is
// deterministic for a given chunk slice: chunks are visited in order and
// first registration wins on duplicate sentence numbers.
func Build(chunks []domain.Chunk) *Lookup {
	l := &Lookup{Exact: make(map[int]Entry)}

	for ci := range chunks {
		chunk := &chunks[ci]
		baseID := identity.FromChunk(chunk)

		if start, end, ok := chunk.Boundary(); ok {
			l.Ranges = append(l.Ranges, Range{
				Start:      start,
				End:        end,
				ChunkIndex: ci,
				BaseID:     baseID,
			})
			l.observe(start)
			l.observe(end)
		}

		for li := range chunk.Sentences {
			num := chunk.Sentences[li].SentenceNumber
			if num == nil {
				continue
			}
			if _, exists := l.Exact[*num]; !exists {
				l.Exact[*num] = Entry{
					ChunkIndex: ci,
					LocalIndex: li,
					Total:      len(chunk.Sentences),
					BaseID:     baseID,
				}
			}
			l.observe(*num)
		}
	}

	l.Suggestions = l.buildSuggestions()
	return l
}

// Bounds returns the smallest and largest sentence number seen. ok is
// false when no chunk carried any sentence information.
func (l *Lookup) Bounds() (minSeen, maxSeen int, ok bool) {
	return l.Min, l.Max, l.seen
}

// Resolve maps a global sentence number to a chunk match. Exact lookup
// first; otherwise the first declared range containing the target is
// interpolated. Absence of a match is a normal not-found result, never
// an error.
func (l *Lookup) Resolve(target int) (Match, bool) {
	if entry, ok := l.Exact[target]; ok {
		ratio := 0.0
		if entry.Total > 1 {
			ratio = float64(entry.LocalIndex) / float64(entry.Total-1)
		}
		return Match{ChunkIndex: entry.ChunkIndex, BaseID: entry.BaseID, Ratio: ratio}, true
	}

	for _, r := range l.Ranges {
		if target < r.Start || target > r.End {
			continue
		}
		ratio := 0.0
		if r.End > r.Start {
			ratio = float64(target-r.Start) / float64(r.End-r.Start)
		}
		return Match{ChunkIndex: r.ChunkIndex, BaseID: r.BaseID, Ratio: ratio}, true
	}

	return Match{}, false
}

// observe folds a sentence number into the running min/max.
func (l *Lookup) observe(n int) {
	if !l.seen {
		l.Min, l.Max = n, n
		l.seen = true
		return
	}
	if n < l.Min {
		l.Min = n
	}
	if n > l.Max {
		l.Max = n
	}
}

// buildSuggestions computes the bounded jump-suggestion set: dense
// enumeration for small spans, stride samples with both endpoints
// otherwise.
func (l *Lookup) buildSuggestions() []int {
	if !l.seen {
		return nil
	}

	span := l.Max - l.Min
	if span <= denseSpanLimit {
		out := make([]int, 0, span+1)
		for n := l.Min; n <= l.Max; n++ {
			out = append(out, n)
		}
		return out
	}

	step := int(math.Round(float64(span) / strideDivisor))
	if step < 1 {
		step = 1
	}

	set := map[int]struct{}{l.Min: {}, l.Max: {}}
	for n := l.Min + step; n < l.Max && len(set) < maxSuggestions; n += step {
		set[n] = struct{}{}
	}

	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
