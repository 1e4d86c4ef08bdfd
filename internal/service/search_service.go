package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/fuzzy"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// SearchMode selects how local matches are found.
type SearchMode int

const (
	// SearchFuzzy ranks by edit distance score.
	SearchFuzzy SearchMode = iota
	// SearchPlain keeps substring matches in playlist order.
	SearchPlain
)

// Search defaults.
const (
	DefaultSearchThreshold = 30
	DefaultRemoteLimit     = 8
	MaxSuggestions         = 8
	MaxHistory             = 10
)

// User facing search messages.
const (
	MessageNoMatches    = "No matching songs found. Try different keywords."
	MessageRemoteFailed = "Online search failed. Check your network connection or try other keywords."
)

// SearchOptions tunes the search service.
type SearchOptions struct {
	Mode        SearchMode
	// Threshold is the score a fuzzy match must exceed to be kept.
	Threshold   int
	RemoteLimit int
	// Presets are loaded when a remote search fails on an empty playlist.
	Presets []domain.Track
}

// SearchService ranks playlist tracks against a query, falling back to a remote
// catalog when nothing local matches. It also keeps the search history.
type SearchService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	playlist *PlaylistService
	playback *PlaybackService
	catalog  ports.CatalogClient
	history  ports.SearchHistoryRepository
	bus      ports.EventBus

	// Configuration
	mode        SearchMode
	threshold   int
	remoteLimit int
	presets     []domain.Track

	// State
	entries    []string
	generation uint64
	query      string
	results    []domain.SearchResult

	// Concurrency control
	mu sync.RWMutex
	// commitMu is held while a remote response is applied and while the
	// generation moves, so a newer search cannot start halfway through a commit.
	commitMu sync.Mutex
}

// NewSearchService creates a new search service and loads the saved history.
// catalog may be nil, which disables remote augmentation.
func NewSearchService(
	logger *slog.Logger,
	playlist *PlaylistService,
	playback *PlaybackService,
	catalog ports.CatalogClient,
	history ports.SearchHistoryRepository,
	bus ports.EventBus,
	opts SearchOptions,
) *SearchService {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultSearchThreshold
	}
	if opts.RemoteLimit <= 0 {
		opts.RemoteLimit = DefaultRemoteLimit
	}

	s := &SearchService{
		logger:      logger,
		playlist:    playlist,
		playback:    playback,
		catalog:     catalog,
		history:     history,
		bus:         bus,
		mode:        opts.Mode,
		threshold:   opts.Threshold,
		remoteLimit: opts.RemoteLimit,
		presets:     opts.Presets,
	}

	if history != nil {
		entries, err := history.LoadHistory()
		if err != nil {
			logger.Warn("failed to load search history", slog.Any("error", err))
		}
		s.entries = entries
	}
	return s
}

// SetMode switches between fuzzy and plain matching.
func (s *SearchService) SetMode(mode SearchMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// Rank matches query against the playlist without touching search state.
func (s *SearchService) Rank(query string) []domain.SearchResult {
	s.mu.RLock()
	mode, threshold := s.mode, s.threshold
	s.mu.RUnlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var results []domain.SearchResult
	for i, t := range s.playlist.Tracks() {
		var titleScore, artistScore int
		if mode == SearchPlain {
			if fuzzy.Contains(t.Title, query) {
				titleScore = 100
			}
			if fuzzy.Contains(t.Artist, query) {
				artistScore = 100
			}
		} else {
			titleScore = fuzzy.Score(t.Title, query)
			artistScore = fuzzy.Score(t.Artist, query)
		}

		score := max(titleScore, artistScore)
		if score == 0 || score <= threshold {
			continue
		}
		match := domain.MatchTitle
		if artistScore > titleScore {
			match = domain.MatchArtist
		}
		results = append(results, domain.SearchResult{Track: t, Index: i, Score: score, Match: match})
	}

	if mode == SearchFuzzy {
		slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
			return b.Score - a.Score
		})
	}
	return results
}

// Search runs a query. Local matches win; when there are none the remote
// catalog is queried, its tracks appended and the first one played.
// Failures are reported in the response message, never as an error.
func (s *SearchService) Search(ctx context.Context, query string) domain.SearchResponse {
	query = strings.TrimSpace(query)
	if query == "" {
		s.ClearResults()
		return domain.SearchResponse{Source: domain.SearchSourceNone}
	}

	s.recordHistory(query)
	gen := s.nextGeneration()

	if local := s.Rank(query); len(local) > 0 {
		return s.finish(gen, domain.SearchResponse{
			Query:   query,
			Results: local,
			Source:  domain.SearchSourceLocal,
		})
	}

	if s.catalog == nil {
		return s.finish(gen, domain.SearchResponse{
			Query:   query,
			Source:  domain.SearchSourceNone,
			Message: MessageNoMatches,
		})
	}

	remote, err := s.catalog.Search(ctx, query, s.remoteLimit)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if s.isStale(gen) {
		s.logger.Debug("discarding stale remote results", slog.String("query", query))
		return domain.SearchResponse{Query: query, Source: domain.SearchSourceRemote, Stale: true}
	}

	if err != nil {
		err = domain.NewRemoteSearchError(query, err)
		s.logger.Warn("remote search failed", slog.Any("error", err))
		if s.playlist.Len() == 0 {
			s.playlist.LoadPresets(s.presets)
		}
		return s.finish(gen, domain.SearchResponse{
			Query:   query,
			Source:  domain.SearchSourceRemote,
			Message: MessageRemoteFailed,
		})
	}

	if len(remote) == 0 {
		return s.finish(gen, domain.SearchResponse{
			Query:   query,
			Source:  domain.SearchSourceRemote,
			Message: MessageNoMatches,
		})
	}

	tracks := make([]domain.Track, 0, len(remote))
	for _, r := range remote {
		tracks = append(tracks, r.ToTrack())
	}
	added, _ := s.playlist.AddTracks(tracks)

	results := make([]domain.SearchResult, 0, len(added))
	for _, t := range added {
		results = append(results, domain.SearchResult{
			Track: t,
			Index: s.playlist.IndexOf(t.ID),
			Score: 100,
			Match: domain.MatchRemote,
		})
	}

	response := s.finish(gen, domain.SearchResponse{
		Query:   query,
		Results: results,
		Source:  domain.SearchSourceRemote,
	})
	if len(results) > 0 && !response.Stale {
		if err := s.playback.PlayIndex(ctx, results[0].Index); err != nil {
			s.logger.Warn("failed to play remote result", slog.Any("error", err))
		}
	}
	return response
}

func (s *SearchService) nextGeneration() uint64 {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func (s *SearchService) isStale(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen != s.generation
}

// finish stores and publishes a response unless a newer search started.
func (s *SearchService) finish(gen uint64, response domain.SearchResponse) domain.SearchResponse {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		response.Stale = true
		return response
	}
	s.query = response.Query
	s.results = response.Results
	s.mu.Unlock()

	s.logger.Debug("search finished",
		slog.String("query", response.Query),
		slog.String("source", string(response.Source)),
		slog.Int("results", len(response.Results)))
	s.bus.Publish(domain.NewSearchResultsEvent(response))
	return response
}

// Select plays the track behind a result and clears the results.
func (s *SearchService) Select(ctx context.Context, result domain.SearchResult) error {
	index := s.playlist.IndexOf(result.Track.ID)
	if index < 0 {
		return domain.NewIndexError("select", result.Index, s.playlist.Len())
	}
	if err := s.playback.PlayIndex(ctx, index); err != nil {
		return err
	}
	s.ClearResults()
	return nil
}

// ClearResults drops the current results and cancels any remote search in flight.
func (s *SearchService) ClearResults() {
	s.nextGeneration()
	s.mu.Lock()
	s.query = ""
	s.results = nil
	s.mu.Unlock()

	s.bus.Publish(domain.NewSearchResultsEvent(domain.SearchResponse{Source: domain.SearchSourceNone}))
}

// Results returns the current results and the query that produced them.
func (s *SearchService) Results() ([]domain.SearchResult, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results), s.query
}

// recordHistory adds a new query at the front. A repeated query keeps its place.
func (s *SearchService) recordHistory(query string) {
	s.mu.Lock()
	if slices.Contains(s.entries, query) {
		s.mu.Unlock()
		return
	}
	entries := slices.Insert(slices.Clone(s.entries), 0, query)
	if len(entries) > MaxHistory {
		entries = entries[:MaxHistory]
	}
	s.entries = entries
	s.mu.Unlock()

	if s.history != nil {
		if err := s.history.SaveHistory(entries); err != nil {
			s.logger.Warn("failed to persist search history", slog.Any("error", err))
		}
	}
}

// History returns recent queries, most recent first.
func (s *SearchService) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// ClearHistory forgets all recent queries.
func (s *SearchService) ClearHistory() error {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	if s.history == nil {
		return nil
	}
	return s.history.SaveHistory(nil)
}

// Suggestions lists history entries and then songs containing query, at most MaxSuggestions.
func (s *SearchService) Suggestions(query string) []domain.Suggestion {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var suggestions []domain.Suggestion
	for _, entry := range s.History() {
		if fuzzy.Contains(entry, query) {
			suggestions = append(suggestions, domain.Suggestion{Text: entry, Kind: domain.SuggestionHistory, Index: -1})
		}
	}
	for i, t := range s.playlist.Tracks() {
		if fuzzy.Contains(t.Title, query) || fuzzy.Contains(t.Artist, query) {
			suggestions = append(suggestions, domain.Suggestion{Text: t.DisplayName(), Kind: domain.SuggestionSong, Index: i})
		}
	}

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}
