package store

import (
	"context"
	"fmt"

	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm/clause"

	"github.com/osa030/swipebox/internal/domain/taste"
	"github.com/osa030/swipebox/internal/domain/track"
)

// RecordListened inserts a listening record for the track if none exists.
// Style, author and year are captured at first exposure only.
func (s *Store) RecordListened(ctx context.Context, t track.Track) error {
	song := songFromTrack(t)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listening_id"}},
			DoNothing: true,
		}).
		Create(&song).Error
}

// SetLiked updates the liked flag. A missing record is a silent no-op.
func (s *Store) SetLiked(ctx context.Context, trackID int64, liked bool) error {
	return s.db.WithContext(ctx).
		Model(&Song{}).
		Where("listening_id = ?", trackID).
		Update("liked", liked).Error
}

// IsLiked reports whether the track is currently liked.
func (s *Store) IsLiked(ctx context.Context, trackID int64) bool {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Song{}).
		Where("listening_id = ? AND liked = ?", trackID, true).
		Count(&count).Error
	if err != nil {
		zlog.Error().Err(err).Int64("track_id", trackID).Msg("store: is liked query failed")
		return false
	}
	return count > 0
}

// AlreadyListened reports whether the track was ever surfaced.
func (s *Store) AlreadyListened(ctx context.Context, trackID int64) bool {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Song{}).
		Where("listening_id = ?", trackID).
		Count(&count).Error
	if err != nil {
		zlog.Error().Err(err).Int64("track_id", trackID).Msg("store: already listened query failed")
		return false
	}
	return count > 0
}

// TopValues returns the dimension values of liked records ordered by
// distinct track count descending. A limit <= 0 returns all values.
// Ties are broken by first insertion.
func (s *Store) TopValues(ctx context.Context, dim taste.Dimension, limit int) []string {
	if !dim.Valid() {
		zlog.Error().Str("dimension", string(dim)).Msg("store: unknown dimension")
		return nil
	}
	col := string(dim)

	q := s.db.WithContext(ctx).
		Model(&Song{}).
		Select(fmt.Sprintf("%s AS value, COUNT(DISTINCT listening_id) AS cnt", col)).
		Where(fmt.Sprintf("liked = ? AND %s <> ''", col), true).
		Group(col).
		Order("cnt DESC, MIN(id) ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []struct {
		Value string
		Cnt   int
	}
	if err := q.Scan(&rows).Error; err != nil {
		zlog.Error().Err(err).Str("dimension", col).Msg("store: top values query failed")
		return nil
	}

	values := make([]string, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.Value)
	}
	return values
}

// TopStyles returns the most-liked styles.
func (s *Store) TopStyles(ctx context.Context, limit int) []string {
	return s.TopValues(ctx, taste.DimensionStyle, limit)
}

// TopAuthors returns the most-liked authors.
func (s *Store) TopAuthors(ctx context.Context, limit int) []string {
	return s.TopValues(ctx, taste.DimensionAuthor, limit)
}

// TopYearBuckets groups liked records into release-year buckets and returns
// the top buckets by distinct track count. A limit <= 0 returns all buckets.
func (s *Store) TopYearBuckets(ctx context.Context, limit int) []taste.YearBucket {
	bucketExpr := fmt.Sprintf("FLOOR(release_year/%d)*%d", taste.BucketSize, taste.BucketSize)

	q := s.db.WithContext(ctx).
		Model(&Song{}).
		Select(bucketExpr+" AS bucket, COUNT(DISTINCT listening_id) AS cnt").
		Where("liked = ? AND release_year > 0", true).
		Group("bucket").
		Order("cnt DESC, bucket DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []struct {
		Bucket int
		Cnt    int
	}
	if err := q.Scan(&rows).Error; err != nil {
		zlog.Error().Err(err).Msg("store: top year buckets query failed")
		return nil
	}

	buckets := make([]taste.YearBucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, taste.YearBucket{Bucket: r.Bucket, Count: r.Cnt})
	}
	return buckets
}

// TopYearBucketChoices returns all buckets tied for the highest count, so
// the planner can pick uniformly among them. Empty when nothing is liked.
func (s *Store) TopYearBucketChoices(ctx context.Context) []int {
	buckets := s.TopYearBuckets(ctx, 0)
	if len(buckets) == 0 {
		return nil
	}

	top := buckets[0].Count
	choices := make([]int, 0, len(buckets))
	for _, b := range buckets {
		if b.Count != top {
			break
		}
		choices = append(choices, b.Bucket)
	}
	return choices
}

// LikedCount returns the number of liked tracks.
func (s *Store) LikedCount(ctx context.Context) int {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Song{}).
		Where("liked = ?", true).
		Count(&count).Error
	if err != nil {
		zlog.Error().Err(err).Msg("store: liked count query failed")
		return 0
	}
	return int(count)
}

// TotalListenedCount returns the number of tracks ever surfaced.
func (s *Store) TotalListenedCount(ctx context.Context) int {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Song{}).Count(&count).Error; err != nil {
		zlog.Error().Err(err).Msg("store: total listened query failed")
		return 0
	}
	return int(count)
}

// DistinctArtistCount returns the number of distinct artists ever surfaced.
func (s *Store) DistinctArtistCount(ctx context.Context) int {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Song{}).
		Where("author <> ''").
		Distinct("author").
		Count(&count).Error
	if err != nil {
		zlog.Error().Err(err).Msg("store: distinct artist query failed")
		return 0
	}
	return int(count)
}

// TopArtist returns the most-liked artist, empty when nothing is liked.
func (s *Store) TopArtist(ctx context.Context) string {
	authors := s.TopAuthors(ctx, 1)
	if len(authors) == 0 {
		return ""
	}
	return authors[0]
}

// Stats summarizes the listening history.
func (s *Store) Stats(ctx context.Context) taste.Stats {
	return taste.Stats{
		TotalListened:   s.TotalListenedCount(ctx),
		Liked:           s.LikedCount(ctx),
		DistinctArtists: s.DistinctArtistCount(ctx),
		TopArtist:       s.TopArtist(ctx),
	}
}
