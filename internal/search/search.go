// Package search filters the track catalog in memory.
package search

import (
	"strings"
	"sync"

	"github.com/desertthunder/spotish/internal/models"
	"golang.org/x/text/cases"
)

// Filter returns the tracks whose title or artist name contains query, ignoring case.
//
// The query is trimmed first. An empty query returns tracks unchanged. Order is preserved.
func Filter(tracks []models.Track, query string) []models.Track {
	query = strings.TrimSpace(query)
	if query == "" {
		return tracks
	}

	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if strings.Contains(fold.String(t.Title), needle) || strings.Contains(fold.String(t.Artist.Name), needle) {
			out = append(out, t)
		}
	}
	return out
}

// View holds a track list and the current query, recomputing results on every change.
type View struct {
	mu      sync.RWMutex
	tracks  []models.Track
	query   string
	results []models.Track
}

// NewView creates a [View] over tracks with an empty query.
func NewView(tracks []models.Track) *View {
	return &View{tracks: tracks, results: tracks}
}

// SetTracks replaces the track list.
func (v *View) SetTracks(tracks []models.Track) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tracks = tracks
	v.results = Filter(tracks, v.query)
}

// SetQuery replaces the query.
func (v *View) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = query
	v.results = Filter(v.tracks, query)
}

// Query returns the current query.
func (v *View) Query() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query
}

// Results returns the filtered tracks.
func (v *View) Results() []models.Track {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.results
}

// Total returns the size of the unfiltered list.
func (v *View) Total() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.tracks)
}
