package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
)

// MinSearchLength is the shortest trimmed query the search endpoint accepts.
const MinSearchLength = 3

// Client is the typed backend client. Every call goes through the [Gateway] and carries the current credential.
type Client struct {
	gateway *Gateway
}

// NewClient creates a [Client] backed by g.
func NewClient(g *Gateway) *Client {
	return &Client{gateway: g}
}

// Gateway returns the underlying [Gateway].
func (c *Client) Gateway() *Gateway { return c.gateway }

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.gateway.Get(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Tracks lists the catalog.
func (c *Client) Tracks(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	if err := c.gateway.Get(ctx, "/tracks/", nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Track fetches a single track.
func (c *Client) Track(ctx context.Context, id int) (*models.Track, error) {
	if id <= 0 {
		return nil, shared.NewValidationError("track id", "must be positive")
	}

	var track models.Track
	if err := c.gateway.Get(ctx, fmt.Sprintf("/tracks/%d", id), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SearchTracks runs a server side search. Queries shorter than [MinSearchLength] are rejected locally.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLength {
		return nil, shared.NewValidationError("query", fmt.Sprintf("must be at least %d characters", MinSearchLength))
	}

	var tracks []models.Track
	if err := c.gateway.Get(ctx, "/tracks/search", url.Values{"q": {query}}, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Playlists lists the user's playlists.
func (c *Client) Playlists(ctx context.Context) ([]models.PlaylistSummary, error) {
	var playlists []models.PlaylistSummary
	if err := c.gateway.Get(ctx, "/playlists/", nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// Playlist fetches a playlist with its tracks.
func (c *Client) Playlist(ctx context.Context, id int) (*models.Playlist, error) {
	if id <= 0 {
		return nil, shared.NewValidationError("playlist id", "must be positive")
	}

	var playlist models.Playlist
	if err := c.gateway.Get(ctx, playlistPath(id), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

type playlistBody struct {
	Name string `json:"name"`
}

// CreatePlaylist creates a playlist and returns the server's record.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := c.gateway.Post(ctx, "/playlists/", playlistBody{Name: name}, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// RenamePlaylist renames a playlist and returns the server's record.
func (c *Client) RenamePlaylist(ctx context.Context, id int, name string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := c.gateway.Put(ctx, playlistPath(id), playlistBody{Name: name}, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// DeletePlaylist deletes a playlist.
func (c *Client) DeletePlaylist(ctx context.Context, id int) error {
	return c.gateway.Delete(ctx, playlistPath(id), nil)
}

// AddTrack appends a track to a playlist and returns the updated playlist.
func (c *Client) AddTrack(ctx context.Context, playlistID, trackID int) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := c.gateway.Post(ctx, playlistTrackPath(playlistID, trackID), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// RemoveTrack removes a track from a playlist.
func (c *Client) RemoveTrack(ctx context.Context, playlistID, trackID int) error {
	return c.gateway.Delete(ctx, playlistTrackPath(playlistID, trackID), nil)
}

func playlistPath(id int) string {
	return fmt.Sprintf("/playlists/%d", id)
}

func playlistTrackPath(playlistID, trackID int) string {
	return fmt.Sprintf("/playlists/%d/tracks/%d", playlistID, trackID)
}
