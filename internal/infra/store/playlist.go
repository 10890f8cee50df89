package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/osa030/swipebox/internal/domain/playlist"
	"github.com/osa030/swipebox/internal/domain/track"
)

// CreatePlaylist creates an empty playlist. Returns false if the name is
// already taken.
func (s *Store) CreatePlaylist(ctx context.Context, name string) (bool, error) {
	p := Playlist{Name: name}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&p)
	if result.Error != nil {
		return false, errors.Wrapf(result.Error, "create playlist %q", name)
	}
	return result.RowsAffected > 0, nil
}

// AddToPlaylist adds the track to the named playlist, creating the playlist
// and the listening record as needed. Returns false if the track is already
// a member, so callers can implement toggle behavior.
func (s *Store) AddToPlaylist(ctx context.Context, t track.Track, name string) (bool, error) {
	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Playlist
		if err := tx.Where("name = ?", name).
			Attrs(Playlist{Name: name}).
			FirstOrCreate(&p).Error; err != nil {
			return err
		}

		song := songFromTrack(t)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listening_id"}},
			DoNothing: true,
		}).Create(&song).Error; err != nil {
			return err
		}
		if err := tx.Where("listening_id = ?", t.TrackID).First(&song).Error; err != nil {
			return err
		}

		member := PlaylistSong{PlaylistID: p.ID, SongID: song.ID, AddedAt: time.Now()}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "playlist_id"}, {Name: "song_id"}},
			DoNothing: true,
		}).Create(&member)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "add track %d to playlist %q", t.TrackID, name)
	}
	return inserted, nil
}

// RemoveFromPlaylist removes the membership. The playlist is deleted when it
// becomes empty. Missing playlist or membership is a no-op.
func (s *Store) RemoveFromPlaylist(ctx context.Context, trackID int64, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Playlist
		if err := tx.Where("name = ?", name).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var song Song
		if err := tx.Where("listening_id = ?", trackID).First(&song).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("playlist_id = ? AND song_id = ?", p.ID, song.ID).
			Delete(&PlaylistSong{}).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&PlaylistSong{}).
			Where("playlist_id = ?", p.ID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			return tx.Delete(&p).Error
		}
		return nil
	})
	return errors.Wrapf(err, "remove track %d from playlist %q", trackID, name)
}

// DeletePlaylist removes the playlist and its memberships. Returns false if
// no playlist had that name.
func (s *Store) DeletePlaylist(ctx context.Context, name string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Playlist
		if err := tx.Where("name = ?", name).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("playlist_id = ?", p.ID).Delete(&PlaylistSong{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "delete playlist %q", name)
	}
	return deleted, nil
}

// ListPlaylists returns all playlists ordered by name, each with its song
// count and the cover of its most recently added song.
func (s *Store) ListPlaylists(ctx context.Context) []playlist.Summary {
	var playlists []Playlist
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&playlists).Error; err != nil {
		zlog.Error().Err(err).Msg("store: list playlists query failed")
		return nil
	}

	summaries := make([]playlist.Summary, 0, len(playlists))
	for _, p := range playlists {
		var count int64
		if err := s.db.WithContext(ctx).Model(&PlaylistSong{}).
			Where("playlist_id = ?", p.ID).
			Count(&count).Error; err != nil {
			zlog.Error().Err(err).Str("playlist", p.Name).Msg("store: playlist count query failed")
			continue
		}

		var cover string
		err := s.db.WithContext(ctx).Model(&PlaylistSong{}).
			Select("songs.cover_url").
			Joins("JOIN songs ON songs.id = playlist_songs.song_id").
			Where("playlist_songs.playlist_id = ?", p.ID).
			Order("playlist_songs.added_at DESC").
			Limit(1).
			Scan(&cover).Error
		if err != nil {
			zlog.Error().Err(err).Str("playlist", p.Name).Msg("store: playlist cover query failed")
		}

		summaries = append(summaries, playlist.Summary{
			Name:      p.Name,
			SongCount: int(count),
			CoverURL:  cover,
		})
	}
	return summaries
}

// ListSongsInPlaylist returns the playlist's tracks, most recently added
// first. Empty when the playlist does not exist.
func (s *Store) ListSongsInPlaylist(ctx context.Context, name string) []track.Track {
	var songs []Song
	err := s.db.WithContext(ctx).Model(&Song{}).
		Joins("JOIN playlist_songs ON playlist_songs.song_id = songs.id").
		Joins("JOIN playlists ON playlists.id = playlist_songs.playlist_id").
		Where("playlists.name = ?", name).
		Order("playlist_songs.added_at DESC").
		Find(&songs).Error
	if err != nil {
		zlog.Error().Err(err).Str("playlist", name).Msg("store: list songs query failed")
		return nil
	}

	tracks := make([]track.Track, 0, len(songs))
	for _, song := range songs {
		tracks = append(tracks, trackFromSong(song))
	}
	return tracks
}
