package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotish/internal/models"
)

// Request is a request recorded by [Backend].
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
}

// Hold pauses matching requests until released.
type Hold struct {
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Release lets held requests continue.
func (h *Hold) Release() { h.once.Do(func() { close(h.release) }) }

type account struct {
	user     models.User
	password string
}

// Backend is an in-memory stand-in for the music library REST API served over [httptest.Server].
//
// It mirrors the backend's contract: bearer auth on every endpoint except /token, ownership checks on
// playlists (403), missing records (404) and {"detail": "..."} error bodies.
type Backend struct {
	mu        sync.Mutex
	server    *httptest.Server
	accounts  map[string]*account
	tokens    map[string]int
	tracks    []models.Track
	playlists map[int]*models.Playlist
	nextUser  int
	nextList  int
	failures  map[string][]int
	holds     map[string]*Hold
	requests  []Request
}

// NewBackend starts a [Backend] that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		accounts:  map[string]*account{},
		tokens:    map[string]int{},
		playlists: map[int]*models.Playlist{},
		failures:  map[string][]int{},
		holds:     map[string]*Hold{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", b.token)
	mux.HandleFunc("GET /users/me", b.authed(b.me))
	mux.HandleFunc("GET /tracks/{$}", b.authed(b.listTracks))
	mux.HandleFunc("GET /tracks/search", b.authed(b.searchTracks))
	mux.HandleFunc("GET /tracks/{id}", b.authed(b.getTrack))
	mux.HandleFunc("GET /playlists/{$}", b.authed(b.listPlaylists))
	mux.HandleFunc("POST /playlists/{$}", b.authed(b.createPlaylist))
	mux.HandleFunc("GET /playlists/{id}", b.authed(b.owned(b.getPlaylist)))
	mux.HandleFunc("PUT /playlists/{id}", b.authed(b.owned(b.renamePlaylist)))
	mux.HandleFunc("DELETE /playlists/{id}", b.authed(b.owned(b.deletePlaylist)))
	mux.HandleFunc("POST /playlists/{id}/tracks/{trackId}", b.authed(b.owned(b.addTrack)))
	mux.HandleFunc("DELETE /playlists/{id}/tracks/{trackId}", b.authed(b.owned(b.removeTrack)))

	b.server = httptest.NewServer(b.intercept(mux))
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the server address.
func (b *Backend) URL() string { return b.server.URL }

// Client returns an [http.Client] for the server.
func (b *Backend) Client() *http.Client { return b.server.Client() }

// AddUser registers an account.
func (b *Backend) AddUser(email, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextUser++
	u := models.User{ID: b.nextUser, Email: email}
	b.accounts[email] = &account{user: u, password: password}
	return u
}

// IssueToken returns a valid bearer token for the account with email.
func (b *Backend) IssueToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(b.accounts[email].user.ID)
}

func (b *Backend) issue(userID int) string {
	token := fmt.Sprintf("token-%d-%d", userID, len(b.tokens)+1)
	b.tokens[token] = userID
	return token
}

// AddTracks adds tracks to the catalog.
func (b *Backend) AddTracks(tracks ...models.Track) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracks = append(b.tracks, tracks...)
}

// AddPlaylist creates a playlist owned by userID containing the given catalog tracks.
func (b *Backend) AddPlaylist(userID int, name string, trackIDs ...int) models.Playlist {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextList++
	p := &models.Playlist{ID: b.nextList, Name: name, UserID: userID, Tracks: []models.Track{}}
	for _, id := range trackIDs {
		if t, ok := b.track(id); ok {
			p.Tracks = append(p.Tracks, t)
		}
	}
	b.playlists[p.ID] = p
	return p.Clone()
}

// Playlist returns the server's copy of a playlist.
func (b *Backend) Playlist(id int) (models.Playlist, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.playlists[id]
	if !ok {
		return models.Playlist{}, false
	}
	return p.Clone(), true
}

// Fail makes the next request matching method and path return status. Calls queue up.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	b.failures[key] = append(b.failures[key], status)
}

// Hold pauses requests matching method and path until [Hold.Release] is called.
func (b *Backend) Hold(method, path string) *Hold {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := &Hold{Entered: make(chan struct{}, 16), release: make(chan struct{})}
	b.holds[method+" "+path] = h
	return h
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// Count returns how many requests matched method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
		})
		hold := b.holds[key]
		b.mu.Unlock()

		if hold != nil {
			hold.Entered <- struct{}{}
			<-hold.release
		}

		b.mu.Lock()
		var status int
		if queued := b.failures[key]; len(queued) > 0 {
			status, b.failures[key] = queued[0], queued[1:]
		}
		b.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID int)

type playlistHandler func(w http.ResponseWriter, r *http.Request, p *models.Playlist)

func (b *Backend) authed(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		userID, valid := b.tokens[token]
		b.mu.Unlock()
		if !ok || !valid {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, userID)
	}
}

func (b *Backend) owned(next playlistHandler) userHandler {
	return func(w http.ResponseWriter, r *http.Request, userID int) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid playlist id")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		p, ok := b.playlists[id]
		switch {
		case !ok:
			writeDetail(w, http.StatusNotFound, "Playlist not found")
		case p.UserID != userID:
			writeDetail(w, http.StatusForbidden, "Not authorized")
		default:
			next(w, r, p)
		}
	}
}

func (b *Backend) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[r.PostForm.Get("username")]
	if !ok || acct.password != r.PostForm.Get("password") {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": b.issue(acct.user.ID), "token_type": "bearer"})
}

func (b *Backend) me(w http.ResponseWriter, _ *http.Request, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.ID == userID {
			writeJSON(w, http.StatusOK, a.user)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (b *Backend) listTracks(w http.ResponseWriter, _ *http.Request, _ int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(b.tracks))
}

func (b *Backend) searchTracks(w http.ResponseWriter, r *http.Request, _ int) {
	q := r.URL.Query().Get("q")
	if len(q) < 3 {
		writeDetail(w, http.StatusUnprocessableEntity, "String should have at least 3 characters")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	q = strings.ToLower(q)
	matches := []models.Track{}
	for _, t := range b.tracks {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Artist.Name), q) {
			matches = append(matches, t)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (b *Backend) getTrack(w http.ResponseWriter, r *http.Request, _ int) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.track(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Track not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) listPlaylists(w http.ResponseWriter, _ *http.Request, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.PlaylistSummary{}
	for _, p := range b.playlists {
		if p.UserID == userID {
			out = append(out, p.Summary())
		}
	}
	slices.SortFunc(out, func(x, y models.PlaylistSummary) int { return x.ID - y.ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createPlaylist(w http.ResponseWriter, r *http.Request, userID int) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextList++
	p := &models.Playlist{ID: b.nextList, Name: body.Name, UserID: userID, Tracks: []models.Track{}}
	b.playlists[p.ID] = p
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) getPlaylist(w http.ResponseWriter, _ *http.Request, p *models.Playlist) {
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) renamePlaylist(w http.ResponseWriter, r *http.Request, p *models.Playlist) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	p.Name = body.Name
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) deletePlaylist(w http.ResponseWriter, _ *http.Request, p *models.Playlist) {
	delete(b.playlists, p.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) addTrack(w http.ResponseWriter, r *http.Request, p *models.Playlist) {
	id, _ := strconv.Atoi(r.PathValue("trackId"))
	t, ok := b.track(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Track not found")
		return
	}
	if !p.HasTrack(id) {
		p.Tracks = append(p.Tracks, t)
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) removeTrack(w http.ResponseWriter, r *http.Request, p *models.Playlist) {
	id, _ := strconv.Atoi(r.PathValue("trackId"))
	if _, ok := b.track(id); !ok {
		writeDetail(w, http.StatusNotFound, "Track not found")
		return
	}
	p.Tracks = slices.DeleteFunc(p.Tracks, func(t models.Track) bool { return t.ID == id })
	writeJSON(w, http.StatusOK, p)
}

// track must be called with mu held.
func (b *Backend) track(id int) (models.Track, bool) {
	i := slices.IndexFunc(b.tracks, func(t models.Track) bool { return t.ID == id })
	if i < 0 {
		return models.Track{}, false
	}
	return b.tracks[i], true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
