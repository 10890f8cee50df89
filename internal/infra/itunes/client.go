// Package itunes provides a client for the iTunes Search API.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/swipebox/internal/domain/track"
)

// DefaultResultLimit is the number of results requested per search when the
// caller does not specify one.
const DefaultResultLimit = 200

// Client is an iTunes Search API client.
type Client struct {
	baseURL    string
	country    string
	httpClient *http.Client
}

// Config represents iTunes client configuration.
type Config struct {
	BaseURL string // API base URL, defaults to the public endpoint
	Country string // Optional two-letter store country filter
	Timeout time.Duration
}

// searchResponse mirrors the API's JSON envelope.
type searchResponse struct {
	ResultCount int          `json:"resultCount"`
	Results     []songResult `json:"results"`
}

// songResult mirrors one result entry.
type songResult struct {
	ArtistID          int64  `json:"artistId"`
	CollectionID      int64  `json:"collectionId"`
	TrackID           int64  `json:"trackId"`
	ArtistName        string `json:"artistName"`
	CollectionName    string `json:"collectionName"`
	TrackName         string `json:"trackName"`
	ArtistViewURL     string `json:"artistViewUrl"`
	CollectionViewURL string `json:"collectionViewUrl"`
	TrackViewURL      string `json:"trackViewUrl"`
	PreviewURL        string `json:"previewUrl"`
	ArtworkURL60      string `json:"artworkUrl60"`
	ArtworkURL100     string `json:"artworkUrl100"`
	ReleaseDate       string `json:"releaseDate"`
	TrackTimeMillis   int64  `json:"trackTimeMillis"`
	Country           string `json:"country"`
	PrimaryGenreName  string `json:"primaryGenreName"`
}

// New creates a new iTunes Search client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://itunes.apple.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		country:    cfg.Country,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search performs a music keyword search. The term is expected to be already
// sanitized (see the query package). Transport failures and non-2xx responses
// are returned as errors; an empty result list is a normal outcome.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]track.Track, error) {
	if term == "" {
		return nil, errors.New("search term is required")
	}
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	params := url.Values{}
	params.Set("media", "music")
	params.Set("term", term)
	params.Set("limit", fmt.Sprintf("%d", limit))
	if c.country != "" {
		params.Set("country", c.country)
	}

	reqURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Newf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	tracks := make([]track.Track, 0, len(response.Results))
	for _, r := range response.Results {
		tracks = append(tracks, track.Track{
			ArtistID:          r.ArtistID,
			CollectionID:      r.CollectionID,
			TrackID:           r.TrackID,
			ArtistName:        r.ArtistName,
			CollectionName:    r.CollectionName,
			TrackName:         r.TrackName,
			ArtistViewURL:     r.ArtistViewURL,
			CollectionViewURL: r.CollectionViewURL,
			TrackViewURL:      r.TrackViewURL,
			PreviewURL:        r.PreviewURL,
			ArtworkURL60:      r.ArtworkURL60,
			ArtworkURL100:     r.ArtworkURL100,
			ReleaseDate:       r.ReleaseDate,
			TrackTimeMillis:   r.TrackTimeMillis,
			Country:           r.Country,
			PrimaryGenreName:  r.PrimaryGenreName,
		})
	}

	return tracks, nil
}
