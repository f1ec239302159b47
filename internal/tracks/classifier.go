// Package tracks classifies a chunk's audio assets into logical roles
// and derives the inline audio options surfaced to the reader.
//
// Classification runs on string signatures of names the pipeline never
// guaranteed to be stable; the heuristics live behind this package so
// they can be replaced by explicit server-provided track roles without
// touching callers.
package tracks

import (
	"slices"
	"strings"
	"unicode"

	"github.com/readalongapp/readalong-server/internal/domain"
)

// Kind is the logical role of an audio asset.
type Kind string

const (
	// KindOriginal is source-language narration.
	KindOriginal Kind = "original"
	// KindTranslation is target-language narration.
	KindTranslation Kind = "translation"
	// KindCombined interleaves original and translation in one file.
	KindCombined Kind = "combined"
	// KindOther is anything unrecognized.
	KindOther Kind = "other"
)

// Track is one classified audio asset.
type Track struct {
	Key      string
	Kind     Kind
	URL      string
	Duration float64
}

// Resolver normalizes a source reference into a playable URL for the
// current playback context (live job, library, export bundle). Must be
// idempotent: it is applied before URL deduplication so differently
// prefixed but equivalent references collapse to one entry.
type Resolver interface {
	ResolveURL(ref string) string
}

// PassthroughResolver returns references unchanged.
type PassthroughResolver struct{}

// ResolveURL implements Resolver.
func (PassthroughResolver) ResolveURL(ref string) string { return ref }

// signature strips everything but letters and digits and lowercases the
// rest, so "Orig_Trans-01.mp3" and "origtrans01" compare equal.
func signature(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// kindFromSignature applies the substring heuristics: combined beats
// original, which beats the translation fallback.
func kindFromSignature(sig string) Kind {
	switch {
	case strings.Contains(sig, "origtrans"):
		return KindCombined
	case strings.Contains(sig, "orig"):
		return KindOriginal
	default:
		return KindOther
	}
}

// normalizeKey maps a declared audioTracks key to its canonical logical
// key ("trans" becomes "translation", "orig_trans" becomes "combined").
// Unrecognized keys are kept, lowercased.
func normalizeKey(key string) string {
	sig := signature(key)
	switch {
	case strings.Contains(sig, "origtrans"), sig == "combined":
		return string(KindCombined)
	case strings.Contains(sig, "orig"):
		return string(KindOriginal)
	case strings.Contains(sig, "trans"):
		return string(KindTranslation)
	default:
		return strings.ToLower(strings.TrimSpace(key))
	}
}

// kindForKey maps a canonical logical key to its kind.
func kindForKey(key string) Kind {
	switch key {
	case string(KindOriginal):
		return KindOriginal
	case string(KindTranslation):
		return KindTranslation
	case string(KindCombined):
		return KindCombined
	default:
		return KindOther
	}
}

// Classify inspects a chunk's declared audioTracks mapping and its file
// list and produces the logical key to track map.
//
// Guarantees:
//   - every URL is registered at most once, under exactly one key
//   - only the first translation-like file per chunk is registered
//   - deterministic for a given chunk (declared tracks visited in
//     sorted key order, files in declared order)
func Classify(chunk *domain.Chunk, resolver Resolver) map[string]Track {
	if resolver == nil {
		resolver = PassthroughResolver{}
	}

	out := make(map[string]Track)
	seenURLs := make(map[string]struct{})

	register := func(key string, url string, duration float64) {
		if url == "" {
			return
		}
		url = resolver.ResolveURL(url)
		if url == "" {
			return
		}
		if _, dup := seenURLs[url]; dup {
			return
		}
		if _, taken := out[key]; taken {
			return
		}
		seenURLs[url] = struct{}{}
		out[key] = Track{Key: key, Kind: kindForKey(key), URL: url, Duration: duration}
	}

	// Signal 1: the chunk's explicit audioTracks mapping.
	declaredKeys := make([]string, 0, len(chunk.AudioTracks))
	for key := range chunk.AudioTracks {
		declaredKeys = append(declaredKeys, key)
	}
	slices.Sort(declaredKeys)
	for _, key := range declaredKeys {
		ref := chunk.AudioTracks[key]
		src := ref.URL
		if src == "" {
			src = ref.Path
		}
		register(normalizeKey(key), src, ref.Duration)
	}

	// Signal 2: audio-typed entries of the chunk's file list.
	for i := range chunk.Files {
		file := &chunk.Files[i]
		if !file.IsAudio() {
			continue
		}
		src := file.URL
		if src == "" {
			src = file.Path
		}
		if src == "" {
			continue
		}

		nameRef := file.RelativePath
		if nameRef == "" {
			nameRef = file.Name
		}

		switch kindFromSignature(signature(nameRef)) {
		case KindCombined:
			register(string(KindCombined), src, 0)
		case KindOriginal:
			register(string(KindOriginal), src, 0)
		default:
			// Translation fallback: first translation-like file wins,
			// later alternates (different bitrates, re-encodes) are
			// ignored rather than silently overriding the primary.
			if _, exists := out[string(KindTranslation)]; !exists {
				register(string(KindTranslation), src, 0)
			}
		}
	}

	return out
}
