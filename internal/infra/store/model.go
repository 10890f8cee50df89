package store

import (
	"strconv"
	"time"

	"github.com/osa030/swipebox/internal/domain/track"
)

// Song is one listening record: a row per external track id ever surfaced.
// The liked flag is the only field updated after insert.
type Song struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	ListeningID int64  `gorm:"uniqueIndex;not null"`
	Liked       bool   `gorm:"not null;default:false"`
	Title       string `gorm:"size:512"`
	Author      string `gorm:"size:512;index"`
	Album       string `gorm:"size:512"`
	PreviewURL  string `gorm:"size:1024"`
	CoverURL    string `gorm:"size:1024"`
	ReleaseYear int    `gorm:"index"`
	Style       string `gorm:"size:128;index"`
	ExternalURL string `gorm:"size:1024"`
	CreatedAt   time.Time
}

// TableName overrides the table name.
func (Song) TableName() string { return "songs" }

// Playlist is a user-named collection. Deleted when its last song is removed.
type Playlist struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;uniqueIndex;not null"`
	CreatedAt time.Time
}

// TableName overrides the table name.
func (Playlist) TableName() string { return "playlists" }

// PlaylistSong is a playlist membership edge.
type PlaylistSong struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	PlaylistID int64 `gorm:"not null;uniqueIndex:idx_playlist_song"`
	SongID     int64 `gorm:"not null;uniqueIndex:idx_playlist_song"`
	AddedAt    time.Time
}

// TableName overrides the table name.
func (PlaylistSong) TableName() string { return "playlist_songs" }

// SearchQuery is one recorded free-text search.
type SearchQuery struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Query     string `gorm:"size:512;not null"`
	CreatedAt time.Time
}

// TableName overrides the table name.
func (SearchQuery) TableName() string { return "search_history" }

// songFromTrack captures the taste-relevant slice of a track at insert time.
func songFromTrack(t track.Track) Song {
	year, _ := t.ReleaseYear()
	return Song{
		ListeningID: t.TrackID,
		Title:       t.TrackName,
		Author:      t.ArtistName,
		Album:       t.CollectionName,
		PreviewURL:  t.PreviewURL,
		CoverURL:    t.ArtworkURL100,
		ReleaseYear: year,
		Style:       t.PrimaryGenreName,
		ExternalURL: t.TrackViewURL,
	}
}

// trackFromSong rebuilds the track view of a stored listening record.
func trackFromSong(s Song) track.Track {
	t := track.Track{
		TrackID:          s.ListeningID,
		TrackName:        s.Title,
		ArtistName:       s.Author,
		CollectionName:   s.Album,
		PreviewURL:       s.PreviewURL,
		ArtworkURL100:    s.CoverURL,
		PrimaryGenreName: s.Style,
		TrackViewURL:     s.ExternalURL,
	}
	if s.ReleaseYear > 0 {
		t.ReleaseDate = strconv.Itoa(s.ReleaseYear)
	}
	return t
}
