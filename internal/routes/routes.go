// package routes implements client navigation and the route guard for protected views.
package routes

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/session"
)

// Route paths.
const (
	Login    = session.LoginPath
	Register = session.RegisterPath
	Home     = session.HomePath
)

var (
	_ session.Navigator = (*History)(nil)
	_ session.Locator   = (*History)(nil)
)

// PlaylistPath returns the route of the playlist view for id.
func PlaylistPath(id int) string { return fmt.Sprintf("/playlists/%d", id) }

// TrackPath returns the route of the track view for id.
func TrackPath(id int) string { return fmt.Sprintf("/tracks/%d", id) }

// PlaylistID extracts the playlist id from a playlist route.
func PlaylistID(path string) (int, bool) { return routeID(path, "/playlists/") }

// TrackID extracts the track id from a track route.
func TrackID(path string) (int, bool) { return routeID(path, "/tracks/") }

func routeID(path, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IsProtected reports whether path requires an authenticated session.
//
// Everything except the public login and registration views is protected.
func IsProtected(path string) bool {
	return path != Login && path != Register
}

// Decision is the outcome of [Guard].
type Decision struct {
	Allow    bool
	Redirect string // Target when not allowed
	Replace  bool   // Redirect replaces the current history entry
}

// Guard decides whether the view at path may render for s.
func Guard(s models.Session, path string) Decision {
	if !IsProtected(path) || s.Authenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: Login, Replace: true}
}

// History is the client's navigation stack.
type History struct {
	mu      sync.Mutex
	entries []string
}

// NewHistory creates a [History] positioned at start.
func NewHistory(start string) *History {
	if start == "" {
		start = Home
	}
	return &History{entries: []string{start}}
}

// Navigate implements [session.Navigator].
func (h *History) Navigate(path string, replace bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if replace {
		h.entries[len(h.entries)-1] = path
		return
	}
	h.entries = append(h.entries, path)
}

// Current returns the path on top of the stack.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Back pops the current entry. Reports false when already at the first entry.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) < 2 {
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return true
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Resolve applies [Guard] to the current entry and returns the path that should render.
//
// It is evaluated on every call; a denied entry is replaced by the redirect target.
func (h *History) Resolve(s models.Session) string {
	current := h.Current()

	d := Guard(s, current)
	if d.Allow {
		return current
	}

	h.Navigate(d.Redirect, d.Replace)
	return d.Redirect
}
