package upstream

import (
	"strings"

	"github.com/readalongapp/readalong-server/internal/domain"
)

// Wire shapes. The pipeline emits snake_case and has grown aliases for
// several fields over time; each DTO collapses its aliases into the
// canonical domain record in toDomain and nowhere else. Absence of any
// optional field is normal and never an error.

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type mediaItemDTO struct {
	URL           string `json:"url"`
	Href          string `json:"href"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Type          string `json:"type"`
	MediaType     string `json:"media_type"`
	RelativePath  string `json:"relative_path"`
	RelPath       string `json:"rel_path"`
	Path          string `json:"path"`
	ChunkID       string `json:"chunk_id"`
	RangeFragment string `json:"range_fragment"`
}

func (d *mediaItemDTO) toDomain() domain.MediaItem {
	return domain.MediaItem{
		URL:           firstNonEmpty(d.URL, d.Href),
		Name:          firstNonEmpty(d.Name, d.DisplayName),
		Type:          firstNonEmpty(d.Type, d.MediaType),
		RelativePath:  firstNonEmpty(d.RelativePath, d.RelPath),
		Path:          d.Path,
		ChunkID:       d.ChunkID,
		RangeFragment: d.RangeFragment,
	}
}

type timelineDTO struct {
	Start     *float64 `json:"start"`
	StartTime *float64 `json:"start_time"`
	End       *float64 `json:"end"`
	EndTime   *float64 `json:"end_time"`
}

func (d *timelineDTO) toDomain() domain.SentenceTimeline {
	var tl domain.SentenceTimeline
	if d == nil {
		return tl
	}
	if v := firstFloat(d.Start, d.StartTime); v != nil {
		tl.Start = *v
	}
	if v := firstFloat(d.End, d.EndTime); v != nil {
		tl.End = *v
	}
	return tl
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

type sentenceDTO struct {
	SentenceNumber  *int         `json:"sentence_number"`
	Number          *int         `json:"number"`
	Original        string       `json:"original"`
	Text            string       `json:"text"`
	Translation     string       `json:"translation"`
	Transliteration string       `json:"transliteration"`
	Timeline        *timelineDTO `json:"timeline"`
	Gates           []float64    `json:"gates"`
}

func (d *sentenceDTO) toDomain() domain.SentenceMetadata {
	return domain.SentenceMetadata{
		SentenceNumber:  firstInt(d.SentenceNumber, d.Number),
		Original:        firstNonEmpty(d.Original, d.Text),
		Translation:     d.Translation,
		Transliteration: d.Transliteration,
		Timeline:        d.Timeline.toDomain(),
		Gates:           d.Gates,
	}
}

type chunkMetadataDTO struct {
	Sentences []sentenceDTO `json:"sentences"`
}

type audioTrackRefDTO struct {
	Path     string  `json:"path"`
	URL      string  `json:"url"`
	Href     string  `json:"href"`
	Duration float64 `json:"duration"`
}

type chunkDTO struct {
	ChunkID       string                      `json:"chunk_id"`
	ID            string                      `json:"id"`
	RangeFragment string                      `json:"range_fragment"`
	StartSentence *int                        `json:"start_sentence"`
	EndSentence   *int                        `json:"end_sentence"`
	SentenceCount *int                        `json:"sentence_count"`
	Files         []mediaItemDTO              `json:"files"`
	Sentences     []sentenceDTO               `json:"sentences"`
	AudioTracks   map[string]audioTrackRefDTO `json:"audio_tracks"`
	MetadataPath  string                      `json:"metadata_path"`
	MetadataURL   string                      `json:"metadata_url"`
}

func (d *chunkDTO) toDomain() domain.Chunk {
	chunk := domain.Chunk{
		ChunkID:       firstNonEmpty(d.ChunkID, d.ID),
		RangeFragment: d.RangeFragment,
		StartSentence: d.StartSentence,
		EndSentence:   d.EndSentence,
		SentenceCount: d.SentenceCount,
		MetadataPath:  d.MetadataPath,
		MetadataURL:   d.MetadataURL,
	}
	for i := range d.Files {
		chunk.Files = append(chunk.Files, d.Files[i].toDomain())
	}
	for i := range d.Sentences {
		chunk.Sentences = append(chunk.Sentences, d.Sentences[i].toDomain())
	}
	if len(d.AudioTracks) > 0 {
		chunk.AudioTracks = make(map[string]domain.AudioTrackRef, len(d.AudioTracks))
		for key, ref := range d.AudioTracks {
			chunk.AudioTracks[key] = domain.AudioTrackRef{
				Path:     ref.Path,
				URL:      firstNonEmpty(ref.URL, ref.Href),
				Duration: ref.Duration,
			}
		}
	}
	return chunk
}

type mediaListsDTO struct {
	Text  []mediaItemDTO `json:"text"`
	Audio []mediaItemDTO `json:"audio"`
	Video []mediaItemDTO `json:"video"`
}

func (d *mediaListsDTO) toDomain() map[domain.MediaCategory][]domain.MediaItem {
	out := make(map[domain.MediaCategory][]domain.MediaItem, 3)
	for cat, items := range map[domain.MediaCategory][]mediaItemDTO{
		domain.MediaText:  d.Text,
		domain.MediaAudio: d.Audio,
		domain.MediaVideo: d.Video,
	} {
		converted := make([]domain.MediaItem, 0, len(items))
		for i := range items {
			converted = append(converted, items[i].toDomain())
		}
		out[cat] = converted
	}
	return out
}

type jobStatusDTO struct {
	ID         string     `json:"id"`
	JobID      string     `json:"job_id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	State      string     `json:"state"`
	ChunkCount *int       `json:"chunk_count"`
	Chunks     []chunkDTO `json:"chunks"`
}

func (d *jobStatusDTO) toDomain() domain.Job {
	job := domain.Job{
		ID:     firstNonEmpty(d.ID, d.JobID),
		Title:  d.Title,
		Status: normalizeJobStatus(firstNonEmpty(d.Status, d.State)),
	}
	if d.ChunkCount != nil {
		job.ChunkCount = *d.ChunkCount
	} else {
		job.ChunkCount = len(d.Chunks)
	}
	return job
}

func normalizeJobStatus(raw string) domain.JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed", "done":
		return domain.JobComplete
	case "failed", "error":
		return domain.JobFailed
	default:
		return domain.JobProcessing
	}
}

type searchResultDTO struct {
	BaseID          string                    `json:"base_id"`
	RangeFragment   string                    `json:"range_fragment"`
	ChunkID         string                    `json:"chunk_id"`
	OffsetRatio     *float64                  `json:"offset_ratio"`
	ApproximateTime *float64                  `json:"approximate_time_seconds"`
	OccurrenceCount *int                      `json:"occurrence_count"`
	Media           map[string][]mediaItemDTO `json:"media"`
}

func (d *searchResultDTO) toDomain() domain.SearchResult {
	result := domain.SearchResult{
		BaseID:          d.BaseID,
		RangeFragment:   d.RangeFragment,
		ChunkID:         d.ChunkID,
		OffsetRatio:     d.OffsetRatio,
		ApproximateTime: d.ApproximateTime,
		// The service historically omits the count for single-hit
		// results; default to 1 rather than 0.
		OccurrenceCount: 1,
	}
	if d.OccurrenceCount != nil {
		result.OccurrenceCount = *d.OccurrenceCount
	}
	if len(d.Media) > 0 {
		result.Media = make(map[domain.MediaCategory][]domain.MediaItem, len(d.Media))
		for rawCat, items := range d.Media {
			cat := domain.MediaCategory(strings.ToLower(rawCat))
			if !cat.Valid() {
				continue
			}
			converted := make([]domain.MediaItem, 0, len(items))
			for i := range items {
				converted = append(converted, items[i].toDomain())
			}
			result.Media[cat] = converted
		}
	}
	return result
}

type searchResponseDTO struct {
	Results []searchResultDTO `json:"results"`
}
