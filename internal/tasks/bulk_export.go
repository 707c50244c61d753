package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/spotish/internal/formatter"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
	"golang.org/x/time/rate"
)

// ManifestFile is the name of the manifest written next to the exported files.
const ManifestFile = "export_manifest.json"

// ExportOpts contains configuration for bulk playlist exports.
type ExportOpts struct {
	Format    formatter.Format // Defaults to JSON
	OutputDir string           // Base output directory (default: spotish_export_{epoch})
	Workers   int              // Concurrent workers (default: 4, max: 10)
	RateLimit float64          // Playlist fetches per second (default: 5)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID int
	Name       string
	File       string
	Tracks     int
	Error      error
}

// ExportResult summarizes a bulk export.
type ExportResult struct {
	TotalPlaylists  int
	Successful      int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []PlaylistExportResult // Ordered by playlist ID
}

type manifestEntry struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	File   string `json:"file,omitempty"`
	Tracks int    `json:"tracks"`
	Error  string `json:"error,omitempty"`
}

type manifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Format      string          `json:"format"`
	Total       int             `json:"total"`
	Successful  int             `json:"successful"`
	Failed      int             `json:"failed"`
	Playlists   []manifestEntry `json:"playlists"`
}

// ExportAll exports the playlists in ids, or every playlist when ids is empty.
//
// Playlists are fetched by a single rate limited producer and rendered by a worker pool. A playlist that fails
// to fetch or write is recorded in the result and the manifest; it does not stop the others.
func (e *Exporter) ExportAll(ctx context.Context, prog chan<- ProgressUpdate, ids []int, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if _, err := formatter.ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotish_export_%d", time.Now().Unix())
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if len(ids) == 0 {
		sendProgress(prog, fetchPlaylistsUpdate(0, 0))
		summaries, err := e.source.Playlists(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}
		for _, s := range summaries {
			ids = append(ids, s.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(ids)
	result := &ExportResult{
		TotalPlaylists:  total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan *models.Playlist, total)
	results := make(chan PlaylistExportResult, total)

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			p, err := e.source.Playlist(ctx, id)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID: id,
					Name:       fmt.Sprintf("Unknown (%d)", id),
					Error:      fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}

			sendProgress(prog, exportingPlaylistUpdate(i+1, total, p))
			jobs <- p
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Successful++
			sendProgress(prog, exportCompletedUpdate(completed, total, res.Name, res.File))
		} else {
			result.Failed++
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "error", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, total, res.Name, res.Error))
		}
	}

	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return cmp.Compare(a.PlaylistID, b.PlaylistID) })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	sendProgress(prog, writeManifestUpdate(manifestPath))
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan *models.Playlist,
	results chan<- PlaylistExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for p := range jobs {
		if ctx.Err() != nil {
			return
		}

		res := PlaylistExportResult{PlaylistID: p.ID, Name: p.Name, Tracks: len(p.Tracks)}
		path, err := formatter.WriteExport(*p, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.File = path
		}
		results <- res
	}
}

func writeManifest(result *ExportResult, format formatter.Format, path string) error {
	m := manifest{
		GeneratedAt: time.Now().UTC(),
		Format:      string(format),
		Total:       result.TotalPlaylists,
		Successful:  result.Successful,
		Failed:      result.Failed,
		Playlists:   make([]manifestEntry, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		entry := manifestEntry{ID: r.PlaylistID, Name: r.Name, Tracks: r.Tracks}
		if r.File != "" {
			entry.File = filepath.Base(r.File)
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Playlists = append(m.Playlists, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
