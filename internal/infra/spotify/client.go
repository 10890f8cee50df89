// Package spotify provides a keyword search client for the Spotify API.
package spotify

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/swipebox/internal/domain/track"
)

const maxSearchLimit = 50 // Spotify API page cap

// Client is a Spotify search client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
	)

	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := auth.Client(ctx, token)

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	return &Client{
		client:     spotify.New(httpClient),
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Search searches for tracks matching the keyword term.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]track.Track, error) {
	if term == "" {
		return nil, errors.New("search term is required")
	}

	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	// The planner hands over terms with '+' for spaces; Spotify wants the
	// words themselves.
	query := strings.ReplaceAll(term, "+", " ")

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
			spotify.Limit(limit), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search %q", term)
	}

	if result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]track.Track, 0, len(result.Tracks.Tracks))
	for i := range result.Tracks.Tracks {
		tracks = append(tracks, c.convertTrack(&result.Tracks.Tracks[i], query))
	}
	return tracks, nil
}

// convertTrack maps a Spotify track onto the feed's track type. Spotify has
// no per-track genre, so the search term stands in as the style.
func (c *Client) convertTrack(t *spotify.FullTrack, genre string) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var artistURL string
	if len(t.Artists) > 0 {
		artistURL = t.Artists[0].ExternalURLs["spotify"]
	}

	var artworkLarge, artworkSmall string
	if n := len(t.Album.Images); n > 0 {
		artworkLarge = t.Album.Images[0].URL
		artworkSmall = t.Album.Images[n-1].URL
	}

	return track.Track{
		TrackID:           trackIDFrom(string(t.ID)),
		ArtistName:        strings.Join(artists, ", "),
		CollectionName:    t.Album.Name,
		TrackName:         t.Name,
		ArtistViewURL:     artistURL,
		CollectionViewURL: t.Album.ExternalURLs["spotify"],
		TrackViewURL:      t.ExternalURLs["spotify"],
		PreviewURL:        t.PreviewURL,
		ArtworkURL60:      artworkSmall,
		ArtworkURL100:     artworkLarge,
		ReleaseDate:       t.Album.ReleaseDate,
		TrackTimeMillis:   int64(t.Duration),
		Country:           c.market,
		PrimaryGenreName:  genre,
	}
}

// trackIDFrom derives a stable numeric id from a Spotify base62 id.
func trackIDFrom(id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64() &^ (1 << 63))
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}
