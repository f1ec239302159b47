package tracks

import (
	"slices"
	"strings"
)

// Toggles describes which audio layers the reader can switch on for the
// current chunk.
type Toggles struct {
	HasOriginal    bool `json:"has_original"`
	HasTranslation bool `json:"has_translation"`
	// HasCombined is set only when the combined track fills a gap the
	// dedicated tracks leave. A chunk that already has both dedicated
	// layers keeps them authoritative.
	HasCombined bool `json:"has_combined"`
}

// DeriveToggles inspects the classified track map.
func DeriveToggles(classified map[string]Track) Toggles {
	_, hasOrig := classified[string(KindOriginal)]
	_, hasTrans := classified[string(KindTranslation)]
	_, hasCombined := classified[string(KindCombined)]

	return Toggles{
		HasOriginal:    hasOrig,
		HasTranslation: hasTrans,
		HasCombined:    hasCombined && (!hasOrig || !hasTrans),
	}
}

// Option is one selectable inline audio entry.
type Option struct {
	Key      string  `json:"key"`
	Kind     Kind    `json:"kind"`
	URL      string  `json:"url"`
	Label    string  `json:"label"`
	Duration float64 `json:"duration,omitempty"`
}

// defaultLabels maps canonical keys to display labels. Callers may
// override per key through the names argument of BuildOptions.
var defaultLabels = map[string]string{
	string(KindOriginal):    "Original",
	string(KindTranslation): "Translation",
	string(KindCombined):    "Original + Translation",
}

func labelFor(key string, names map[string]string) string {
	if name, ok := names[key]; ok && name != "" {
		return name
	}
	if name, ok := defaultLabels[key]; ok {
		return name
	}
	return key
}

// optionRank fixes display order: dedicated layers first, combined
// next, unrecognized keys last in sorted order.
func optionRank(key string) int {
	switch key {
	case string(KindOriginal):
		return 0
	case string(KindTranslation):
		return 1
	case string(KindCombined):
		return 2
	default:
		return 3
	}
}

// BuildOptions produces the inline audio options visible for the
// current toggle state. When both audio layers are disabled no option
// is shown at all; otherwise each track is included only if a toggle
// that can play it is enabled. The combined track plays either layer,
// so either toggle exposes it.
func BuildOptions(classified map[string]Track, names map[string]string, originalOn, translationOn bool) []Option {
	if !originalOn && !translationOn {
		return nil
	}

	keys := make([]string, 0, len(classified))
	for key := range classified {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ra, rb := optionRank(a), optionRank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})

	out := make([]Option, 0, len(keys))
	for _, key := range keys {
		track := classified[key]
		switch track.Kind {
		case KindOriginal:
			if !originalOn {
				continue
			}
		case KindTranslation:
			if !translationOn {
				continue
			}
		}
		out = append(out, Option{
			Key:      track.Key,
			Kind:     track.Kind,
			URL:      track.URL,
			Label:    labelFor(track.Key, names),
			Duration: track.Duration,
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
