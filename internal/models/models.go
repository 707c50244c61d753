// package models defines the data model for the music library client
package models

import "slices"

// User is the authenticated account as returned by GET /users/me.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Session is the authenticated identity and credential currently active in the client.
//
// Token and User are both set or both empty.
type Session struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Artist is the nested artist record of a [Track].
type Artist struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// Album is the nested album record of a [Track].
type Album struct {
	ID    int    `json:"id,omitempty"`
	Title string `json:"title"`
}

// Track represents a catalog track. Identity is ID.
type Track struct {
	ID         int    `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Duration   int    `json:"duration,omitempty" yaml:"duration,omitempty"` // Duration in seconds
	PreviewURL string `json:"preview_url" yaml:"preview_url"`
	Artist     Artist `json:"artist" yaml:"artist"`
	Album      Album  `json:"album" yaml:"album"`
}

// Label formats the track as "Artist - Title".
func (t Track) Label() string {
	if t.Artist.Name == "" {
		return t.Title
	}
	return t.Artist.Name + " - " + t.Title
}

// PlaylistSummary is the playlist form returned by the list endpoint.
type PlaylistSummary struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	UserID int    `json:"user_id,omitempty" yaml:"user_id,omitempty"`
}

// Playlist is a user owned playlist with its ordered track list.
type Playlist struct {
	ID     int     `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	UserID int     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Tracks []Track `json:"tracks" yaml:"tracks"`
}

// Summary drops the track list.
func (p Playlist) Summary() PlaylistSummary {
	return PlaylistSummary{ID: p.ID, Name: p.Name, UserID: p.UserID}
}

// Clone returns a copy whose track list does not share storage with p.
func (p Playlist) Clone() Playlist {
	p.Tracks = slices.Clone(p.Tracks)
	return p
}

// HasTrack reports whether the playlist contains the track with the given ID.
func (p Playlist) HasTrack(trackID int) bool {
	return slices.ContainsFunc(p.Tracks, func(t Track) bool { return t.ID == trackID })
}

// TrackIDs returns the IDs of the playlist's tracks in order.
func (p Playlist) TrackIDs() []int {
	ids := make([]int, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Duration returns the summed track duration in seconds.
func (p Playlist) Duration() int {
	total := 0
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
