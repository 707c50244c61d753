// Package ui implements an interactive terminal client using bubbletea's Elm architecture.
//
// The rendered view is derived from the navigation history on every update:
//  1. [LoginView] : Email and password form, the only view available while anonymous
//  2. [HomeView] : Catalog tracks with a live filter, plus the user's playlists
//  3. [PlaylistView] : Tracks of one playlist, with optimistic removal
//  4. [TrackView] : Details of a single track
//
// Protected routes are gated by [routes.History.Resolve], so a logout or an invalidated session moves the
// client back to [LoginView] on the next message. Playlist mutations go through a [mutations.Controller]
// that is replaced whenever the signed-in user changes; results for a discarded controller are dropped.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
