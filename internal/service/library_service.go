package service

import (
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dhowden/tag"
	"golang.org/x/sync/errgroup"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Probe defaults.
const (
	DefaultProbeConcurrency = 4
	DefaultProbeTimeout     = 5 * time.Second
)

// supportedExts are the containers the beep decoders can open.
var supportedExts = []string{".mp3", ".wav", ".flac", ".ogg", ".oga"}

// fileNameSeparators are tried in order when splitting "Artist - Title".
var fileNameSeparators = []string{" - ", "-", "_", "–", " – "}

var trackNumberPrefix = regexp.MustCompile(`^\d+\.?\s*`)

// LibraryOptions tunes local file handling.
type LibraryOptions struct {
	ProbeConcurrency int
	ProbeTimeout     time.Duration
}

// LibraryService ingests local files into the playlist and resolves missing
// durations in the background.
type LibraryService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	playlist *PlaylistService
	locators ports.LocatorRegistry
	prober   ports.DurationProber
	bus      ports.EventBus

	// Configuration
	probeLimit   int
	probeTimeout time.Duration
}

// NewLibraryService creates a new library service. prober may be nil, in which
// case durations are only learned from playback.
func NewLibraryService(
	logger *slog.Logger,
	playlist *PlaylistService,
	locators ports.LocatorRegistry,
	prober ports.DurationProber,
	bus ports.EventBus,
	opts LibraryOptions,
) *LibraryService {
	if opts.ProbeConcurrency <= 0 {
		opts.ProbeConcurrency = DefaultProbeConcurrency
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	return &LibraryService{
		logger:       logger,
		playlist:     playlist,
		locators:     locators,
		prober:       prober,
		bus:          bus,
		probeLimit:   opts.ProbeConcurrency,
		probeTimeout: opts.ProbeTimeout,
	}
}

// IsAudio reports whether a file looks playable, by MIME type or extension.
func IsAudio(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "audio/") {
		return true
	}
	return slices.Contains(supportedExts, strings.ToLower(filepath.Ext(name)))
}

// SupportedExtensions returns the file extensions that can be decoded.
func SupportedExtensions() []string {
	return slices.Clone(supportedExts)
}

// ScanFolder walks root recursively and returns the audio files found, in
// walk order. It stops early with ctx's error when ctx is cancelled.
func ScanFolder(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && IsAudio(d.Name(), "") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// ParseFileName guesses artist and title from a file name without extension.
// "Artist - Title" is the assumed order; leading track numbers are dropped.
func ParseFileName(name string) (title, artist string) {
	title = name
	artist = domain.DefaultArtist

	for _, sep := range fileNameSeparators {
		if !strings.Contains(name, sep) {
			continue
		}
		parts := strings.Split(name, sep)
		artist = strings.TrimSpace(parts[0])
		title = strings.TrimSpace(strings.Join(parts[1:], sep))
		break
	}

	title = trackNumberPrefix.ReplaceAllString(title, "")
	return title, artist
}

// readTags returns the embedded title and artist, empty when unavailable.
func readTags(path string) (title, artist string) {
	if path == "" {
		return "", ""
	}
	file, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		return "", ""
	}
	return strings.TrimSpace(metadata.Title()), strings.TrimSpace(metadata.Artist())
}

func (s *LibraryService) trackFor(h domain.FileHandle) domain.Track {
	base := strings.TrimSuffix(h.Name, filepath.Ext(h.Name))
	title, artist := ParseFileName(base)

	if tagTitle, tagArtist := readTags(h.Path); tagTitle != "" {
		title = tagTitle
		if tagArtist != "" {
			artist = tagArtist
		}
	}

	return domain.Track{
		Title:  title,
		Artist: artist,
		Source: s.locators.Register(h.Path),
		Cover:  domain.LocalFileCover,
		Origin: domain.LocalFileOrigin(h.Name, h.Size, h.Type),
	}
}

// Ingest appends the audio files among handles to the playlist. Non-audio
// files are rejected and files already listed are skipped.
func (s *LibraryService) Ingest(handles []domain.FileHandle) domain.IngestResult {
	var result domain.IngestResult
	candidates := make([]domain.Track, 0, len(handles))

	for _, h := range handles {
		if !IsAudio(h.Name, h.Type) {
			result.Rejected++
			s.logger.Debug("not an audio file", slog.String("file", h.Name), slog.String("type", h.Type))
			continue
		}
		if s.playlist.ContainsFile(h.Name, h.Size) {
			result.Duplicates++
			s.logger.Warn("file already in playlist", slog.String("file", h.Name))
			continue
		}
		candidates = append(candidates, s.trackFor(h))
	}

	added, duplicates := s.playlist.AddTracks(candidates)
	result.Added = added
	result.Duplicates += duplicates

	// Release locators issued for files that turned out to be duplicates within the batch.
	for _, c := range candidates {
		if !slices.ContainsFunc(added, func(t domain.Track) bool { return t.Source == c.Source }) {
			s.locators.Revoke(c.Source)
		}
	}

	if len(handles) > 0 {
		s.logger.Info("files ingested",
			slog.Int("added", len(result.Added)),
			slog.Int("duplicates", result.Duplicates),
			slog.Int("rejected", result.Rejected))
		s.bus.Publish(domain.NewTracksAddedEvent(result))
	}
	return result
}

// IngestPaths stats each path and ingests the regular files among them.
func (s *LibraryService) IngestPaths(paths []string) domain.IngestResult {
	handles := make([]domain.FileHandle, 0, len(paths))
	unreadable := 0

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			unreadable++
			s.logger.Warn("skipping path", slog.String("path", p), slog.Any("error", err))
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		handles = append(handles, domain.FileHandle{
			Name: info.Name(),
			Size: info.Size(),
			Type: mime.TypeByExtension(strings.ToLower(filepath.Ext(p))),
			Path: abs,
		})
	}

	result := s.Ingest(handles)
	result.Rejected += unreadable
	return result
}

// ProbeDurations resolves the duration of every track still lacking one.
// Probes run with bounded concurrency and their own timeout; a failed probe
// only affects its track. It returns once all probes have finished.
func (s *LibraryService) ProbeDurations(ctx context.Context) (domain.ProbeReport, error) {
	if s.prober == nil {
		return domain.ProbeReport{}, nil
	}

	missing := s.playlist.MissingDurations()
	if len(missing) == 0 {
		return domain.ProbeReport{}, nil
	}

	var resolved, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.probeLimit)

	for _, track := range missing {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
			defer cancel()

			d, err := s.prober.Probe(probeCtx, track.Source)
			if err != nil {
				failed.Add(1)
				s.logger.Debug("duration probe failed", slog.String("title", track.Title), slog.Any("error", err))
				return nil
			}
			s.playlist.ResolveDuration(track.ID, d)
			resolved.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := domain.ProbeReport{Resolved: int(resolved.Load()), Failed: int(failed.Load())}
	s.logger.Info("duration probing finished",
		slog.Int("resolved", report.Resolved),
		slog.Int("failed", report.Failed))
	s.bus.Publish(domain.NewProbeCompletedEvent(report))

	return report, ctx.Err()
}
