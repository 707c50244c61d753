package mutations

import (
	"slices"
	"sync"

	"github.com/desertthunder/spotish/internal/models"
)

// Collection is the in-memory playlist state of one view.
//
// Summaries hold the playlist list. Details hold playlists that have been opened, with their tracks.
type Collection struct {
	mu        sync.RWMutex
	summaries []models.PlaylistSummary
	details   map[int]models.Playlist
	disposed  bool
}

// NewCollection creates an empty [Collection].
func NewCollection() *Collection {
	return &Collection{details: map[int]models.Playlist{}}
}

// Summaries returns a copy of the playlist list.
func (c *Collection) Summaries() []models.PlaylistSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.summaries)
}

// Playlist returns a copy of a loaded playlist.
func (c *Collection) Playlist(id int) (models.Playlist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.details[id]
	if !ok {
		return models.Playlist{}, false
	}
	return p.Clone(), true
}

// Tracks returns the track list of a loaded playlist.
func (c *Collection) Tracks(id int) []models.Track {
	p, _ := c.Playlist(id)
	return p.Tracks
}

// Evict drops a loaded playlist. Rollbacks against it will fail.
func (c *Collection) Evict(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.details, id)
}

// Dispose discards all state. Later writes are ignored.
func (c *Collection) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.summaries = nil
	c.details = map[int]models.Playlist{}
}

// Disposed reports whether [Collection.Dispose] has been called.
func (c *Collection) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

// update runs fn under the write lock unless the collection is disposed. Reports whether fn ran.
func (c *Collection) update(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return false
	}
	fn()
	return true
}

func (c *Collection) setSummaries(s []models.PlaylistSummary) bool {
	return c.update(func() { c.summaries = slices.Clone(s) })
}

func (c *Collection) putPlaylist(p models.Playlist) bool {
	return c.update(func() {
		c.details[p.ID] = p.Clone()
		if i := c.indexOf(p.ID); i >= 0 {
			c.summaries[i] = p.Summary()
		}
	})
}

// indexOf must be called with mu held.
func (c *Collection) indexOf(id int) int {
	return slices.IndexFunc(c.summaries, func(s models.PlaylistSummary) bool { return s.ID == id })
}
