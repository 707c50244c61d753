package mutations

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
)

// API is the part of the backend client the controller calls.
type API interface {
	Playlists(ctx context.Context) ([]models.PlaylistSummary, error)
	Playlist(ctx context.Context, id int) (*models.Playlist, error)
	CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error)
	RenamePlaylist(ctx context.Context, id int, name string) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, id int) error
	AddTrack(ctx context.Context, playlistID, trackID int) (*models.Playlist, error)
	RemoveTrack(ctx context.Context, playlistID, trackID int) error
}

// Kind identifies an optimistic mutation.
type Kind int

const (
	RemoveTrack Kind = iota
	DeletePlaylist
)

func (k Kind) String() string {
	switch k {
	case RemoveTrack:
		return "remove-track"
	case DeletePlaylist:
		return "delete-playlist"
	default:
		return "unknown"
	}
}

// Pending is an optimistic mutation awaiting the server.
type Pending struct {
	ID         string
	Kind       Kind
	PlaylistID int
	TrackID    int
	CreatedAt  time.Time
}

// Confirm sends an optimistic mutation to the server, rolling it back on failure.
type Confirm func(ctx context.Context) error

// Ack confirms a server side addition.
type Ack struct {
	PlaylistID int
	TrackID    int
	Tracks     int // Track count reported by the server
}

func (a Ack) String() string {
	return fmt.Sprintf("Added track %d to playlist %d", a.TrackID, a.PlaylistID)
}

type snapshot struct {
	Pending
	tracks    []models.Track
	summaries []models.PlaylistSummary
	detail    *models.Playlist
}

// Controller applies playlist mutations to a [Collection] through the backend.
type Controller struct {
	api        API
	collection *Collection
	logger     *log.Logger

	mu      sync.Mutex
	pending map[string]snapshot
}

// NewController creates a [Controller] with an empty [Collection].
func NewController(api API, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Controller{
		api:        api,
		collection: NewCollection(),
		logger:     logger.With("component", "mutations"),
		pending:    map[string]snapshot{},
	}
}

// Collection returns the controller's state.
func (c *Controller) Collection() *Collection { return c.collection }

// Load replaces the playlist list with the server's.
func (c *Controller) Load(ctx context.Context) ([]models.PlaylistSummary, error) {
	summaries, err := c.api.Playlists(ctx)
	if err != nil {
		return nil, err
	}
	if !c.collection.setSummaries(summaries) {
		c.logger.Debug("dropping playlists loaded after dispose")
	}
	return summaries, nil
}

// Open fetches a playlist with its tracks and caches it.
func (c *Controller) Open(ctx context.Context, id int) (models.Playlist, error) {
	p, err := c.api.Playlist(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if !c.collection.putPlaylist(*p) {
		c.logger.Debug("dropping playlist loaded after dispose", "playlist", id)
	}
	return p.Clone(), nil
}

// Create creates a playlist on the server, then appends the server's record.
//
// A blank name fails with a validation error before any request is made.
func (c *Controller) Create(ctx context.Context, name string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, shared.NewValidationError("name", "must not be empty")
	}

	p, err := c.api.CreatePlaylist(ctx, name)
	if err != nil {
		c.logger.Warn("create playlist failed", "name", name, "error", err)
		return models.Playlist{}, err
	}

	applied := c.collection.update(func() {
		if c.collection.indexOf(p.ID) < 0 {
			c.collection.summaries = append(c.collection.summaries, p.Summary())
		}
		c.collection.details[p.ID] = p.Clone()
	})
	if !applied {
		c.logger.Debug("dropping created playlist after dispose", "playlist", p.ID)
	}
	return p.Clone(), nil
}

// Rename renames a playlist on the server, then stores the server's record.
func (c *Controller) Rename(ctx context.Context, id int, name string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, shared.NewValidationError("name", "must not be empty")
	}
	if id <= 0 {
		return models.Playlist{}, shared.NewValidationError("playlist id", "must be positive")
	}

	p, err := c.api.RenamePlaylist(ctx, id, name)
	if err != nil {
		c.logger.Warn("rename playlist failed", "playlist", id, "error", err)
		return models.Playlist{}, err
	}

	applied := c.collection.update(func() {
		if i := c.collection.indexOf(id); i >= 0 {
			c.collection.summaries[i].Name = p.Name
		}
		if d, ok := c.collection.details[id]; ok {
			d.Name = p.Name
			c.collection.details[id] = d
		}
	})
	if !applied {
		c.logger.Debug("dropping rename after dispose", "playlist", id)
	}
	return p.Clone(), nil
}

// Add asks the server to append a track. Local state is not changed; success returns an [Ack].
func (c *Controller) Add(ctx context.Context, playlistID, trackID int) (Ack, error) {
	if playlistID <= 0 {
		return Ack{}, shared.NewValidationError("playlist id", "must be positive")
	}
	if trackID <= 0 {
		return Ack{}, shared.NewValidationError("track id", "must be positive")
	}

	p, err := c.api.AddTrack(ctx, playlistID, trackID)
	if err != nil {
		c.logger.Warn("add track failed", "playlist", playlistID, "track", trackID, "error", err)
		return Ack{}, err
	}
	return Ack{PlaylistID: playlistID, TrackID: trackID, Tracks: len(p.Tracks)}, nil
}

// Remove drops a track from a loaded playlist before asking the server to do the same.
//
// If the server call fails the track list is restored to exactly what it was before this call.
func (c *Controller) Remove(ctx context.Context, playlistID, trackID int) error {
	confirm, err := c.StartRemove(playlistID, trackID)
	if err != nil {
		return err
	}
	return confirm(ctx)
}

// StartRemove applies a removal locally and returns the call that confirms it with the server.
//
// Views use it to render the optimistic state before the request is sent.
func (c *Controller) StartRemove(playlistID, trackID int) (Confirm, error) {
	if trackID <= 0 {
		return nil, shared.NewValidationError("track id", "must be positive")
	}

	var snap snapshot
	applied := false
	c.collection.update(func() {
		p, ok := c.collection.details[playlistID]
		if !ok {
			return
		}
		snap = c.newSnapshot(RemoveTrack, playlistID, trackID)
		snap.tracks = slices.Clone(p.Tracks)
		p.Tracks = slices.DeleteFunc(slices.Clone(p.Tracks), func(t models.Track) bool { return t.ID == trackID })
		c.collection.details[playlistID] = p
		applied = true
	})
	if !applied {
		return nil, shared.NewValidationError("playlist", fmt.Sprintf("%d is not loaded", playlistID))
	}
	c.track(snap)

	return func(ctx context.Context) error {
		err := c.api.RemoveTrack(ctx, playlistID, trackID)
		c.untrack(snap.ID)
		if err == nil {
			return nil
		}
		if c.collection.Disposed() {
			c.logger.Debug("dropping failed removal after dispose", "playlist", playlistID, "mutation", snap.ID, "error", err)
			return err
		}

		c.logger.Warn("remove track failed, rolling back", "playlist", playlistID, "track", trackID, "mutation", snap.ID, "error", err)

		restored := false
		c.collection.update(func() {
			p, ok := c.collection.details[playlistID]
			if !ok {
				return
			}
			p.Tracks = slices.Clone(snap.tracks)
			c.collection.details[playlistID] = p
			restored = true
		})
		if !restored {
			return c.rollbackFailed(snap, "playlist is no longer loaded", err)
		}
		return err
	}, nil
}

// Delete drops a playlist from the list before asking the server to delete it.
//
// If the server call fails the list and any loaded details are restored.
func (c *Controller) Delete(ctx context.Context, id int) error {
	confirm, err := c.StartDelete(id)
	if err != nil {
		return err
	}
	return confirm(ctx)
}

// StartDelete applies a playlist deletion locally and returns the call that confirms it with the server.
func (c *Controller) StartDelete(id int) (Confirm, error) {
	if id <= 0 {
		return nil, shared.NewValidationError("playlist id", "must be positive")
	}

	snap := c.newSnapshot(DeletePlaylist, id, 0)
	c.collection.update(func() {
		snap.summaries = slices.Clone(c.collection.summaries)
		if d, ok := c.collection.details[id]; ok {
			d = d.Clone()
			snap.detail = &d
		}
		c.collection.summaries = slices.DeleteFunc(slices.Clone(c.collection.summaries), func(s models.PlaylistSummary) bool { return s.ID == id })
		delete(c.collection.details, id)
	})
	c.track(snap)

	return func(ctx context.Context) error {
		err := c.api.DeletePlaylist(ctx, id)
		c.untrack(snap.ID)
		if err == nil {
			return nil
		}
		if c.collection.Disposed() {
			c.logger.Debug("dropping failed delete after dispose", "playlist", id, "mutation", snap.ID, "error", err)
			return err
		}

		c.logger.Warn("delete playlist failed, rolling back", "playlist", id, "mutation", snap.ID, "error", err)

		restored := c.collection.update(func() {
			c.collection.summaries = slices.Clone(snap.summaries)
			if snap.detail != nil {
				c.collection.details[id] = snap.detail.Clone()
			}
		})
		if !restored {
			return c.rollbackFailed(snap, "collection was disposed during rollback", err)
		}
		return err
	}, nil
}

// Evict drops a loaded playlist so the next [Controller.Open] refetches it.
// A rollback still pending against it fails with [shared.RollbackFailure].
//
// The bundled clients keep every opened playlist; Evict is for embedders that bound memory.
func (c *Controller) Evict(id int) { c.collection.Evict(id) }

// Dispose discards the collection. Results of in-flight calls are dropped.
func (c *Controller) Dispose() { c.collection.Dispose() }

// Pending lists in-flight optimistic mutations, oldest first.
func (c *Controller) Pending() []Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Pending, 0, len(c.pending))
	for _, s := range c.pending {
		out = append(out, s.Pending)
	}
	slices.SortFunc(out, func(a, b Pending) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (c *Controller) newSnapshot(kind Kind, playlistID, trackID int) snapshot {
	return snapshot{Pending: Pending{
		ID:         shared.GenerateID(),
		Kind:       kind,
		PlaylistID: playlistID,
		TrackID:    trackID,
		CreatedAt:  time.Now(),
	}}
}

func (c *Controller) track(s snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[s.ID] = s
}

func (c *Controller) untrack(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *Controller) rollbackFailed(s snapshot, reason string, cause error) error {
	rf := &shared.RollbackFailure{MutationID: s.ID, Reason: reason}
	c.logger.Error("rollback failed", "kind", s.Kind, "playlist", s.PlaylistID, "mutation", s.ID, "reason", reason, "cause", cause)
	return errors.Join(rf, cause)
}
