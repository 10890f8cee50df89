// Package playlist provides the Playlist domain entity.
package playlist

// Summary describes a playlist as shown in the playlist overview. Song count
// and cover are derived from memberships, never stored.
type Summary struct {
	Name      string // Unique, case-sensitive playlist name
	SongCount int    // Number of member tracks
	CoverURL  string // Artwork of the most recently added track, empty when unknown
}
