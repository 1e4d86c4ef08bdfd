package service

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// PlaylistService owns the ordered track list and the cursor.
//
// Every structural change is written through the repository and announced with
// a PlaylistChangedEvent. Events are published after the lock is released.
type PlaylistService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PlaylistRepository
	locators   ports.LocatorRegistry
	bus        ports.EventBus

	// State
	tracks  []domain.Track
	current int
	rng     *rand.Rand

	// Concurrency control
	mu sync.RWMutex
}

// NewPlaylistService creates a new playlist service.
// locators may be nil when no transient sources are used. rng may be nil.
func NewPlaylistService(
	logger *slog.Logger,
	repository ports.PlaylistRepository,
	locators ports.LocatorRegistry,
	bus ports.EventBus,
	rng *rand.Rand,
) *PlaylistService {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &PlaylistService{
		logger:     logger,
		repository: repository,
		locators:   locators,
		bus:        bus,
		rng:        rng,
	}
}

// persistLocked writes the durable snapshot. Failures are logged only.
func (s *PlaylistService) persistLocked() {
	if s.repository == nil {
		return
	}
	if err := s.repository.SavePlaylist(s.serializeLocked()); err != nil {
		s.logger.Warn("failed to persist playlist", slog.Any("error", err))
	}
}

func (s *PlaylistService) changedEventLocked() domain.Event {
	return domain.NewPlaylistChangedEvent(slices.Clone(s.tracks), s.current)
}

// commitLocked persists and returns the change notification to publish after unlocking.
func (s *PlaylistService) commitLocked() domain.Event {
	s.persistLocked()
	return s.changedEventLocked()
}

func (s *PlaylistService) publish(events ...domain.Event) {
	for _, ev := range events {
		if ev != nil {
			s.bus.Publish(ev)
		}
	}
}

func (s *PlaylistService) prepare(track domain.Track) domain.Track {
	track = domain.NormalizeTrack(track)
	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	return track
}

func (s *PlaylistService) isDuplicateLocked(track domain.Track) bool {
	if !track.Origin.IsLocalFile() {
		return false
	}
	return slices.ContainsFunc(s.tracks, track.SameFile)
}

func (s *PlaylistService) revoke(track domain.Track) {
	if s.locators != nil && track.Source.IsTransient() {
		s.locators.Revoke(track.Source)
	}
}

// Add appends a track. A local file with the same name and size as an
// existing entry is rejected with domain.ErrDuplicateTrack and changes nothing.
func (s *PlaylistService) Add(track domain.Track) (domain.Track, error) {
	track = s.prepare(track)

	s.mu.Lock()
	if s.isDuplicateLocked(track) {
		s.mu.Unlock()
		s.logger.Debug("duplicate track skipped", slog.String("file", track.Origin.FileName))
		return domain.Track{}, domain.ErrDuplicateTrack
	}
	s.tracks = append(s.tracks, track)
	ev := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("track added", slog.String("title", track.Title), slog.String("id", track.ID))
	s.publish(ev)
	return track, nil
}

// AddTracks appends a batch. Duplicates, including ones inside the batch, are
// skipped and counted. At most one persistence write and one notification happen.
func (s *PlaylistService) AddTracks(tracks []domain.Track) ([]domain.Track, int) {
	added := make([]domain.Track, 0, len(tracks))
	duplicates := 0

	s.mu.Lock()
	for _, t := range tracks {
		t = s.prepare(t)
		if s.isDuplicateLocked(t) {
			duplicates++
			continue
		}
		s.tracks = append(s.tracks, t)
		added = append(added, t)
	}
	var ev domain.Event
	if len(added) > 0 {
		ev = s.commitLocked()
	}
	s.mu.Unlock()

	if len(added) > 0 || duplicates > 0 {
		s.logger.Info("tracks added", slog.Int("added", len(added)), slog.Int("duplicates", duplicates))
	}
	s.publish(ev)
	return added, duplicates
}

// LoadPresets fills an empty playlist with presets. It reports whether anything was loaded.
func (s *PlaylistService) LoadPresets(presets []domain.Track) bool {
	s.mu.Lock()
	if len(s.tracks) > 0 || len(presets) == 0 {
		s.mu.Unlock()
		return false
	}
	for _, p := range presets {
		s.tracks = append(s.tracks, s.prepare(p))
	}
	s.current = 0
	ev := s.commitLocked()
	s.mu.Unlock()

	s.logger.Info("preset tracks loaded", slog.Int("count", len(presets)))
	s.publish(ev)
	return true
}

// Remove deletes the track at index and revokes its transient locator.
// The cursor stays on the same track, or on the following one when the
// current track itself was removed.
func (s *PlaylistService) Remove(index int) (domain.Track, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.tracks) {
		n := len(s.tracks)
		s.mu.Unlock()
		return domain.Track{}, domain.NewIndexError("remove", index, n)
	}

	removed := s.tracks[index]
	s.tracks = slices.Delete(s.tracks, index, index+1)
	switch {
	case len(s.tracks) == 0:
		s.current = 0
	case index < s.current:
		s.current--
	case s.current >= len(s.tracks):
		s.current = len(s.tracks) - 1
	}
	ev := s.commitLocked()
	s.mu.Unlock()

	s.revoke(removed)
	s.publish(ev)
	return removed, nil
}

// RemoveAll empties the playlist, revokes every transient locator and resets the cursor.
func (s *PlaylistService) RemoveAll() {
	s.mu.Lock()
	removed := s.tracks
	s.tracks = nil
	s.current = 0
	ev := s.commitLocked()
	s.mu.Unlock()

	for _, t := range removed {
		s.revoke(t)
	}
	s.logger.Info("playlist cleared", slog.Int("removed", len(removed)))
	s.publish(ev)
}

// Move relocates the track at from to position to. The cursor follows the current track.
func (s *PlaylistService) Move(from, to int) error {
	s.mu.Lock()
	n := len(s.tracks)
	if from < 0 || from >= n {
		s.mu.Unlock()
		return domain.NewIndexError("move", from, n)
	}
	if to < 0 || to >= n {
		s.mu.Unlock()
		return domain.NewIndexError("move", to, n)
	}
	if from == to {
		s.mu.Unlock()
		return nil
	}

	currentID := s.tracks[s.current].ID
	moved := s.tracks[from]
	s.tracks = slices.Delete(s.tracks, from, from+1)
	s.tracks = slices.Insert(s.tracks, to, moved)
	s.relocateLocked(currentID)
	ev := s.commitLocked()
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

// Shuffle permutes the tracks with Fisher-Yates and keeps the cursor on the
// previously current track. Lists of one track or fewer are left alone.
func (s *PlaylistService) Shuffle() {
	s.mu.Lock()
	n := len(s.tracks)
	if n <= 1 {
		s.mu.Unlock()
		return
	}

	currentID := s.tracks[s.current].ID
	for i := n - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.tracks[i], s.tracks[j] = s.tracks[j], s.tracks[i]
	}
	s.relocateLocked(currentID)
	ev := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("playlist shuffled", slog.Int("tracks", n))
	s.publish(ev)
}

func (s *PlaylistService) relocateLocked(id string) {
	if i := slices.IndexFunc(s.tracks, func(t domain.Track) bool { return t.ID == id }); i >= 0 {
		s.current = i
	}
}

// SetCurrent moves the cursor.
func (s *PlaylistService) SetCurrent(index int) error {
	ev, err := s.setCurrent(index)
	s.publish(ev)
	return err
}

// setCurrent moves the cursor and returns the notification instead of publishing it.
func (s *PlaylistService) setCurrent(index int) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.tracks) {
		return nil, domain.NewIndexError("select", index, len(s.tracks))
	}
	if index == s.current {
		return nil, nil
	}
	s.current = index
	return s.commitLocked(), nil
}

// ResolveDuration records the duration of a track once. Later calls, unknown
// IDs and non-positive durations are ignored. It reports whether anything changed.
func (s *PlaylistService) ResolveDuration(id string, d time.Duration) bool {
	ev := s.resolveDuration(id, d)
	s.publish(ev)
	return ev != nil
}

// resolveDuration is ResolveDuration without publishing. It returns nil when nothing changed.
func (s *PlaylistService) resolveDuration(id string, d time.Duration) domain.Event {
	if d <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.tracks, func(t domain.Track) bool { return t.ID == id })
	if i < 0 || s.tracks[i].HasDuration() {
		return nil
	}
	s.tracks[i].Duration = d
	return s.commitLocked()
}

// Serialize returns the durable tracks and the cursor remapped onto them.
// When the current track is transient the cursor points at the closest
// durable track before it.
func (s *PlaylistService) Serialize() domain.PlaylistSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serializeLocked()
}

func (s *PlaylistService) serializeLocked() domain.PlaylistSnapshot {
	durable := make([]domain.Track, 0, len(s.tracks))
	cursor := 0
	for i, t := range s.tracks {
		if t.Source.IsTransient() {
			continue
		}
		if i <= s.current {
			cursor = len(durable)
		}
		durable = append(durable, t)
	}
	return domain.PlaylistSnapshot{Tracks: durable, CurrentIndex: cursor}
}

// Restore replaces the playlist with a snapshot. Transient tracks are dropped,
// missing metadata gets placeholders and the cursor is clamped into range.
func (s *PlaylistService) Restore(snapshot domain.PlaylistSnapshot) {
	restored := make([]domain.Track, 0, len(snapshot.Tracks))
	seen := make(map[string]bool, len(snapshot.Tracks))
	dropped := 0
	for _, t := range snapshot.Tracks {
		if t.Source == "" || t.Source.IsTransient() {
			dropped++
			continue
		}
		if seen[t.ID] {
			t.ID = ""
		}
		t = s.prepare(t)
		seen[t.ID] = true
		restored = append(restored, t)
	}

	s.mu.Lock()
	s.tracks = restored
	s.current = clampIndex(snapshot.CurrentIndex, len(restored))
	ev := s.changedEventLocked()
	s.mu.Unlock()

	s.logger.Info("playlist restored",
		slog.Int("tracks", len(restored)),
		slog.Int("dropped_transient", dropped))
	s.publish(ev)
}

func clampIndex(index, n int) int {
	if n == 0 || index < 0 {
		return 0
	}
	return min(index, n-1)
}

// Tracks returns a copy of the playlist.
func (s *PlaylistService) Tracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// Track returns the track at index.
func (s *PlaylistService) Track(index int) (domain.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.tracks) {
		return domain.Track{}, domain.NewIndexError("get", index, len(s.tracks))
	}
	return s.tracks[index], nil
}

// Current returns the current track and its index. ok is false on an empty playlist.
func (s *PlaylistService) Current() (domain.Track, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.tracks) == 0 {
		return domain.Track{}, 0, false
	}
	return s.tracks[s.current], s.current, true
}

// CurrentIndex returns the cursor.
func (s *PlaylistService) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Len returns the number of tracks.
func (s *PlaylistService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// IndexOf returns the position of the track with id, or -1.
func (s *PlaylistService) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.IndexFunc(s.tracks, func(t domain.Track) bool { return t.ID == id })
}

// ContainsFile reports whether a local file with this name and size is already listed.
func (s *PlaylistService) ContainsFile(name string, size int64) bool {
	probe := domain.Track{Origin: domain.LocalFileOrigin(name, size, "")}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isDuplicateLocked(probe)
}

// MissingDurations returns the tracks whose duration is still unknown.
func (s *PlaylistService) MissingDurations() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []domain.Track
	for _, t := range s.tracks {
		if !t.HasDuration() && t.Source != "" {
			missing = append(missing, t)
		}
	}
	return missing
}
