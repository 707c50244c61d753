// Package models defines the entities exchanged with the music library API and held by the client.
//
// The package contains two categories of types:
//
// 1. API records: JSON-tagged structs mirroring the backend responses
//   - [Track] : Catalog entry with nested [Artist] and [Album], identified by ID
//   - [PlaylistSummary] : Playlist as returned by the list endpoint
//   - [Playlist] : Playlist with its ordered track list
//   - [User] : The authenticated account
//
// 2. Client state
//   - [Session] : The credential and identity currently active in the client
//
// Tracks are immutable once fetched; the server is the source of truth for playlists and the client holds a cached copy.
package models
