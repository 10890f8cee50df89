// Package taste provides aggregate types for the user's listening history.
package taste

// BucketSize is the width of a release-year bucket. A bucket is identified
// by its upper bound: floor(year/BucketSize)*BucketSize.
const BucketSize = 5

// Dimension selects the grouping column for like aggregates.
type Dimension string

const (
	DimensionStyle  Dimension = "style"
	DimensionAuthor Dimension = "author"
)

// Valid reports whether the dimension is one of the known grouping columns.
func (d Dimension) Valid() bool {
	return d == DimensionStyle || d == DimensionAuthor
}

// YearBucket is a release-year grouping with its distinct-track like count.
type YearBucket struct {
	Bucket int // Upper bound of the bucket, e.g. 1995 covers (1990, 1995]
	Count  int // Distinct liked track IDs in the bucket
}

// BucketOf returns the bucket a release year falls into.
func BucketOf(year int) int {
	return year / BucketSize * BucketSize
}

// Stats summarizes the listening history for the dashboard surface.
type Stats struct {
	TotalListened   int    // Tracks ever surfaced to the user
	Liked           int    // Tracks currently liked
	DistinctArtists int    // Distinct artists ever surfaced
	TopArtist       string // Most-liked artist, empty when nothing is liked
}
