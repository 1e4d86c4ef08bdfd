package kv

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// trackRecord is the persisted JSON shape of a track.
type trackRecord struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Src         string  `json:"src"`
	Cover       string  `json:"cover,omitempty"`
	Duration    float64 `json:"duration,omitempty"` // seconds
	Origin      string  `json:"origin,omitempty"`
	IsLocalFile bool    `json:"isLocalFile,omitempty"`
	FileName    string  `json:"fileName,omitempty"`
	FileSize    int64   `json:"fileSize,omitempty"`
	FileType    string  `json:"fileType,omitempty"`
}

func toRecord(t domain.Track) trackRecord {
	rec := trackRecord{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		Src:      t.Source.String(),
		Cover:    t.Cover.String(),
		Duration: t.Duration.Seconds(),
		Origin:   t.Origin.Kind.String(),
	}
	if t.Origin.IsLocalFile() {
		rec.IsLocalFile = true
		rec.FileName = t.Origin.FileName
		rec.FileSize = t.Origin.FileSize
		rec.FileType = t.Origin.FileType
	}
	return rec
}

func fromRecord(rec trackRecord) domain.Track {
	kind, ok := domain.ParseOriginKind(rec.Origin)
	if !ok {
		kind = domain.OriginPreset
		if rec.IsLocalFile {
			kind = domain.OriginLocalFile
		} else if domain.Locator(rec.Src).IsRemote() {
			kind = domain.OriginRemote
		}
	}

	origin := domain.Origin{Kind: kind}
	if kind == domain.OriginLocalFile {
		origin = domain.LocalFileOrigin(rec.FileName, rec.FileSize, rec.FileType)
	}

	var duration time.Duration
	if rec.Duration > 0 {
		duration = time.Duration(math.Round(rec.Duration * float64(time.Second)))
	}

	return domain.NormalizeTrack(domain.Track{
		ID:       rec.ID,
		Title:    rec.Title,
		Artist:   rec.Artist,
		Source:   domain.Locator(rec.Src),
		Cover:    domain.Locator(rec.Cover),
		Duration: duration,
		Origin:   origin,
	})
}

// EncodeTracks serializes tracks as a JSON array.
func EncodeTracks(tracks []domain.Track) (string, error) {
	records := make([]trackRecord, 0, len(tracks))
	for _, t := range tracks {
		records = append(records, toRecord(t))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode tracks: %w", err)
	}
	return string(data), nil
}

// DecodeTracks parses a JSON array of tracks. Records without a source are skipped.
func DecodeTracks(data string) ([]domain.Track, error) {
	var records []trackRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("decode tracks: %w", err)
	}

	tracks := make([]domain.Track, 0, len(records))
	for _, rec := range records {
		if rec.Src == "" {
			continue
		}
		tracks = append(tracks, fromRecord(rec))
	}
	return tracks, nil
}
