// Package track provides the Track domain entity.
package track

import (
	"strconv"
	"strings"
)

// Track represents one result row from the keyword search API.
// Contains only information returned by the API; never mutated after decode.
// Identity is TrackID.
type Track struct {
	ArtistID          int64  // Artist ID
	CollectionID      int64  // Album (collection) ID
	TrackID           int64  // Track ID, the external identity
	ArtistName        string // Artist display name
	CollectionName    string // Album name
	TrackName         string // Track title
	ArtistViewURL     string // Artist web page
	CollectionViewURL string // Album web page
	TrackViewURL      string // Track web page
	PreviewURL        string // Short preview audio clip
	ArtworkURL60      string // Small artwork
	ArtworkURL100     string // Large artwork
	ReleaseDate       string // ISO-ish date string, e.g. "1994-03-08T08:00:00Z"
	TrackTimeMillis   int64  // Duration in milliseconds
	Country           string // Store country code
	PrimaryGenreName  string // Primary genre / style
}

// ReleaseYear parses the year from the leading segment of ReleaseDate
// (everything before the first '-'). ok is false when the date is missing
// or does not start with a number.
func (t *Track) ReleaseYear() (int, bool) {
	head, _, _ := strings.Cut(t.ReleaseDate, "-")
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return year, true
}

// IsComplete reports whether every descriptive and URL field the feed relies
// on is present. Tracks failing this check are skipped during refill, never
// treated as errors.
func (t *Track) IsComplete() bool {
	fields := []string{
		t.ArtistName,
		t.CollectionName,
		t.TrackName,
		t.ArtistViewURL,
		t.CollectionViewURL,
		t.TrackViewURL,
		t.PreviewURL,
		t.ArtworkURL60,
		t.ArtworkURL100,
		t.ReleaseDate,
		t.Country,
		t.PrimaryGenreName,
	}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// LargeArtworkURL rewrites the 100x100 artwork URL to the 600x600 variant
// served from the same CDN path.
func (t *Track) LargeArtworkURL() string {
	return strings.Replace(t.ArtworkURL100, "100x100", "600x600", 1)
}
