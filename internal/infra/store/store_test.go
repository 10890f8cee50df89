package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/osa030/swipebox/internal/domain/taste"
	"github.com/osa030/swipebox/internal/domain/track"
)

// openTestStore connects to the MySQL instance named by SWIPEBOX_TEST_DSN
// and resets all tables. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("SWIPEBOX_TEST_DSN")
	if dsn == "" {
		t.Skip("SWIPEBOX_TEST_DSN not set")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Song{}, &Playlist{}, &PlaylistSong{}, &SearchQuery{}))

	for _, table := range []string{"playlist_songs", "playlists", "songs", "search_history"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	s := NewWithDB(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func storedTrack(id int64, artist, style string, year int) track.Track {
	return track.Track{
		TrackID:          id,
		TrackName:        fmt.Sprintf("track-%d", id),
		ArtistName:       artist,
		CollectionName:   "album",
		PreviewURL:       "https://example.com/p.m4a",
		ArtworkURL100:    fmt.Sprintf("https://example.com/%d.jpg", id),
		TrackViewURL:     "https://example.com/t",
		ReleaseDate:      fmt.Sprintf("%d-01-01", year),
		PrimaryGenreName: style,
	}
}

func TestStore_RecordListenedIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := storedTrack(1, "Daft Punk", "Electronic", 2001)
	require.NoError(t, s.RecordListened(ctx, first))

	// A later play with different metadata must not overwrite the record.
	changed := first
	changed.PrimaryGenreName = "House"
	require.NoError(t, s.RecordListened(ctx, changed))

	assert.Equal(t, 1, s.TotalListenedCount(ctx))
	assert.True(t, s.AlreadyListened(ctx, 1))
	assert.False(t, s.AlreadyListened(ctx, 2))
}

func TestStore_LikeToggle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordListened(ctx, storedTrack(1, "Daft Punk", "Electronic", 2001)))

	require.NoError(t, s.SetLiked(ctx, 1, true))
	require.NoError(t, s.SetLiked(ctx, 1, true))
	assert.True(t, s.IsLiked(ctx, 1))
	assert.Equal(t, 1, s.LikedCount(ctx), "double like must not duplicate the record")

	require.NoError(t, s.SetLiked(ctx, 1, false))
	assert.False(t, s.IsLiked(ctx, 1))

	// Absent record is a silent no-op.
	require.NoError(t, s.SetLiked(ctx, 99, true))
	assert.False(t, s.IsLiked(ctx, 99))
}

func TestStore_TopValues(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordListened(ctx, storedTrack(1, "A", "Rock", 1990)))
	require.NoError(t, s.RecordListened(ctx, storedTrack(2, "B", "Rock", 1991)))
	require.NoError(t, s.RecordListened(ctx, storedTrack(3, "C", "Pop", 1992)))
	require.NoError(t, s.RecordListened(ctx, storedTrack(4, "D", "Jazz", 1993)))
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.SetLiked(ctx, id, true))
	}

	values := s.TopValues(ctx, taste.DimensionStyle, 5)
	assert.Equal(t, []string{"Rock", "Pop"}, values, "unliked styles must be excluded")

	all := s.TopValues(ctx, taste.DimensionStyle, 0)
	assert.Equal(t, []string{"Rock", "Pop"}, all)

	assert.Nil(t, s.TopValues(ctx, taste.Dimension("bogus"), 5))
}

func TestStore_TopYearBuckets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	years := []int{1991, 1993, 1994, 2001}
	for i, year := range years {
		id := int64(i + 1)
		require.NoError(t, s.RecordListened(ctx, storedTrack(id, "A", "Rock", year)))
		require.NoError(t, s.SetLiked(ctx, id, true))
	}

	buckets := s.TopYearBuckets(ctx, 5)
	require.Len(t, buckets, 2)
	assert.Equal(t, taste.YearBucket{Bucket: 1990, Count: 3}, buckets[0])
	assert.Equal(t, taste.YearBucket{Bucket: 2000, Count: 1}, buckets[1])

	assert.Equal(t, []int{1990}, s.TopYearBucketChoices(ctx))
}

func TestStore_TopYearBucketChoicesTie(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, year := range []int{1991, 2002} {
		id := int64(i + 1)
		require.NoError(t, s.RecordListened(ctx, storedTrack(id, "A", "Rock", year)))
		require.NoError(t, s.SetLiked(ctx, id, true))
	}

	choices := s.TopYearBucketChoices(ctx)
	assert.ElementsMatch(t, []int{1990, 2000}, choices)
}

func TestStore_PlaylistLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePlaylist(ctx, "Favorites")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreatePlaylist(ctx, "Favorites")
	require.NoError(t, err)
	assert.False(t, created, "duplicate name must be rejected")

	trk := storedTrack(1, "Daft Punk", "Electronic", 2001)

	inserted, err := s.AddToPlaylist(ctx, trk, "Favorites")
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.True(t, s.AlreadyListened(ctx, 1), "adding must create the listening record")

	inserted, err = s.AddToPlaylist(ctx, trk, "Favorites")
	require.NoError(t, err)
	assert.False(t, inserted, "second add signals the toggle case")

	songs := s.ListSongsInPlaylist(ctx, "Favorites")
	require.Len(t, songs, 1)
	assert.Equal(t, int64(1), songs[0].TrackID)

	require.NoError(t, s.RemoveFromPlaylist(ctx, 1, "Favorites"))
	assert.Empty(t, s.ListPlaylists(ctx), "emptied playlist must be auto-deleted")

	// Removing from a gone playlist is a no-op.
	require.NoError(t, s.RemoveFromPlaylist(ctx, 1, "Favorites"))
}

func TestStore_AddCreatesPlaylist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inserted, err := s.AddToPlaylist(ctx, storedTrack(1, "A", "Rock", 1990), "Road Trip")
	require.NoError(t, err)
	assert.True(t, inserted)

	lists := s.ListPlaylists(ctx)
	require.Len(t, lists, 1)
	assert.Equal(t, "Road Trip", lists[0].Name)
	assert.Equal(t, 1, lists[0].SongCount)
	assert.Equal(t, "https://example.com/1.jpg", lists[0].CoverURL)
}

func TestStore_DeletePlaylist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AddToPlaylist(ctx, storedTrack(1, "A", "Rock", 1990), "P1")
	require.NoError(t, err)

	deleted, err := s.DeletePlaylist(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, s.ListPlaylists(ctx))

	deleted, err = s.DeletePlaylist(ctx, "P1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_Stats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordListened(ctx, storedTrack(1, "Daft Punk", "Electronic", 2001)))
	require.NoError(t, s.RecordListened(ctx, storedTrack(2, "Daft Punk", "Electronic", 2001)))
	require.NoError(t, s.RecordListened(ctx, storedTrack(3, "Queen", "Rock", 1975)))
	require.NoError(t, s.SetLiked(ctx, 1, true))

	stats := s.Stats(ctx)
	assert.Equal(t, 3, stats.TotalListened)
	assert.Equal(t, 1, stats.Liked)
	assert.Equal(t, 2, stats.DistinctArtists)
	assert.Equal(t, "Daft Punk", stats.TopArtist)
}

func TestStore_SearchHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordSearch(ctx, "daft punk"))
	require.NoError(t, s.RecordSearch(ctx, "queen"))
	require.NoError(t, s.RecordSearch(ctx, "daft punk"))
	require.NoError(t, s.RecordSearch(ctx, ""))

	recent := s.RecentSearches(ctx, 10)
	assert.ElementsMatch(t, []string{"daft punk", "queen"}, recent, "deduplicated, blank dropped")
}
