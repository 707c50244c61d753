package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
)

// Source is the part of the backend client the exporter reads from.
type Source interface {
	Playlists(ctx context.Context) ([]models.PlaylistSummary, error)
	Playlist(ctx context.Context, id int) (*models.Playlist, error)
	Tracks(ctx context.Context) ([]models.Track, error)
}

// TrackCache stores catalog tracks locally.
type TrackCache interface {
	Upsert(tracks ...models.Track) error
}

// Exporter runs bulk operations against a [Source].
type Exporter struct {
	source Source
	logger *log.Logger
}

// NewExporter creates a new Exporter reading from source.
func NewExporter(source Source, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{source: source, logger: logger.With("component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// SyncCatalog fetches the full track catalog and writes it to cache. Returns the number of tracks stored.
func (e *Exporter) SyncCatalog(ctx context.Context, progress chan<- ProgressUpdate, cache TrackCache) (int, error) {
	if cache == nil {
		return 0, fmt.Errorf("%w: track cache not configured", shared.ErrMissingArgument)
	}

	sendProgress(progress, fetchTracksUpdate(1, 2))
	tracks, err := e.source.Tracks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tracks: %w", err)
	}

	sendProgress(progress, cacheTracksUpdate(2, 2, len(tracks)))
	if err := cache.Upsert(tracks...); err != nil {
		return 0, fmt.Errorf("failed to cache tracks: %w", err)
	}

	e.logger.Info("catalog synced", "tracks", len(tracks))
	return len(tracks), nil
}
