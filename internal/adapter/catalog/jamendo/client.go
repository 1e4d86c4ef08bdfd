// Package jamendo queries the Jamendo v3 track search API.
package jamendo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Defaults for the public API.
const (
	DefaultBaseURL  = "https://api.jamendo.com/v3.0"
	DefaultClientID = "56d30c95"
	DefaultTimeout  = 10 * time.Second
)

// Config holds client settings.
type Config struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration
}

// Client is a ports.CatalogClient for Jamendo.
type Client struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	clientID string
}

// NewClient creates a new Jamendo client. Empty config fields take the defaults.
func NewClient(logger *slog.Logger, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		logger:   logger.With(slog.String("component", "jamendo")),
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
	}
}

type searchResponse struct {
	Headers struct {
		Status       string `json:"status"`
		Code         int    `json:"code"`
		ErrorMessage string `json:"error_message"`
	} `json:"headers"`
	Results []struct {
		Name       string `json:"name"`
		ArtistName string `json:"artist_name"`
		Audio      string `json:"audio"`
		Image      string `json:"image"`
	} `json:"results"`
}

// Search returns up to limit tracks matching query. Results without an audio URL are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.RemoteTrack, error) {
	if limit <= 0 {
		limit = 8
	}

	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("search", query)
	endpoint := c.baseURL + "/tracks/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Headers.Status == "failed" {
		return nil, fmt.Errorf("api error %d: %s", payload.Headers.Code, payload.Headers.ErrorMessage)
	}

	tracks := make([]domain.RemoteTrack, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Audio == "" {
			continue
		}
		tracks = append(tracks, domain.RemoteTrack{
			Name:       r.Name,
			ArtistName: r.ArtistName,
			AudioURL:   r.Audio,
			ImageURL:   r.Image,
		})
		if len(tracks) == limit {
			break
		}
	}

	c.logger.Debug("catalog search",
		slog.String("query", query),
		slog.Int("results", len(tracks)),
		slog.Duration("took", time.Since(start)))
	return tracks, nil
}

var _ ports.CatalogClient = (*Client)(nil)
