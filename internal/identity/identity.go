// Package identity canonicalizes heterogeneous media references into a
// stable cross-media base identity.
//
// A text chunk, its audio track, and its video segment usually share a
// file stem but differ in directory, extension, query string, and case.
// Resolve strips all of that so the stem becomes the join key used to
// correlate the same logical unit across categories.
package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/readalongapp/readalong-server/internal/domain"
)

// Resolve canonicalizes any reference (file name, path, URL, chunk id,
// range fragment) into a lowercase identity string. Returns "" for
// empty or whitespace-only input.
//
// Resolution is idempotent: Resolve(Resolve(x)) == Resolve(x).
func Resolve(ref string) string {
	s := strings.TrimSpace(ref)
	if s == "" {
		return ""
	}

	// Leading separators carry no identity.
	s = strings.TrimLeft(s, "/\\")

	// Last path segment only.
	if i := strings.LastIndexAny(s, "/\\"); i >= 0 {
		s = s[i+1:]
	}

	// Query string and fragment are transport detail.
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	// Strip a single trailing extension. The dot must not be the first
	// character so dotfiles keep their name.
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		s = s[:i]
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Full Unicode case folding over a compatibility-normalized form, so
	// that visually equivalent stems from different producers collapse.
	return cases.Fold().String(norm.NFKC.String(s))
}

// FromItem derives an item's identity from its relative path, name,
// URL, or path, in that priority. Returns "" when nothing resolves.
func FromItem(item *domain.MediaItem) string {
	if item == nil {
		return ""
	}
	for _, ref := range []string{item.RelativePath, item.Name, item.URL, item.Path} {
		if id := Resolve(ref); id != "" {
			return id
		}
	}
	return ""
}

// FromChunk derives a chunk's identity: its text file first, then the
// chunk id, range fragment, and metadata path/URL fallbacks used while
// sentence-level detail has not yet been fetched.
func FromChunk(chunk *domain.Chunk) string {
	if chunk == nil {
		return ""
	}
	if tf := chunk.TextFile(); tf != nil {
		if id := FromItem(tf); id != "" {
			return id
		}
	}
	for _, ref := range []string{chunk.ChunkID, chunk.RangeFragment, chunk.MetadataPath, chunk.MetadataURL} {
		if id := Resolve(ref); id != "" {
			return id
		}
	}
	return ""
}

// FromSearchResult derives a search hit's identity: the explicit
// base-id field wins, then the range fragment, then the per-category
// media lists scanned in category-preference order.
func FromSearchResult(result *domain.SearchResult, preferred domain.MediaCategory) string {
	if result == nil {
		return ""
	}
	if id := Resolve(result.BaseID); id != "" {
		return id
	}
	if id := Resolve(result.RangeFragment); id != "" {
		return id
	}

	for _, cat := range categoryOrder(preferred) {
		items := result.Media[cat]
		if len(items) == 0 {
			continue
		}
		if id := FromItem(&items[0]); id != "" {
			return id
		}
	}
	return ""
}

// categoryOrder returns the category walk order: preferred first (if
// valid), then the fixed text/audio/video order without duplicates.
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
