package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotish/internal/formatter"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/services"
	"github.com/desertthunder/spotish/internal/shared"
	tu "github.com/desertthunder/spotish/internal/testing"
)

type memoryCache struct {
	mu     sync.Mutex
	tracks []models.Track
	err    error
}

func (m *memoryCache) Upsert(tracks ...models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tracks = append(m.tracks, tracks...)
	return nil
}

func setupExporter(t *testing.T) (*Exporter, *tu.Backend, models.User) {
	t.Helper()
	backend := tu.NewBackend(t)
	user := backend.AddUser("ada@example.com", "hunter2")
	backend.AddTracks(tu.Catalog()...)

	g := services.NewGateway(services.GatewayOpts{
		BaseURL: backend.URL(),
		Tokens:  services.StaticToken(backend.IssueToken(user.Email)),
	})
	return NewExporter(services.NewClient(g), nil), backend, user
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var out []ProgressUpdate
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("exports every playlist and writes a manifest", func(t *testing.T) {
		exporter, backend, user := setupExporter(t)
		backend.AddPlaylist(user.ID, "Road Trip", 1, 2)
		backend.AddPlaylist(user.ID, "Focus", 3)
		backend.AddPlaylist(user.ID, "Empty")

		dir := t.TempDir()
		prog := make(chan ProgressUpdate, 100)
		result, err := exporter.ExportAll(ctx, prog, nil, ExportOpts{Format: formatter.CSV, OutputDir: dir, RateLimit: 100})
		if err != nil {
			t.Fatalf("ExportAll failed: %v", err)
		}

		if result.TotalPlaylists != 3 || result.Successful != 3 || result.Failed != 0 {
			t.Fatalf("unexpected counts %+v", result)
		}
		for i, res := range result.Results {
			if res.PlaylistID != i+1 {
				t.Errorf("expected results ordered by id, got %d at %d", res.PlaylistID, i)
			}
			tu.AssertFileExists(t, res.File)
		}
		if result.Results[0].Tracks != 2 {
			t.Errorf("expected 2 tracks, got %d", result.Results[0].Tracks)
		}

		var m manifest
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, result.ManifestPath)), &m); err != nil {
			t.Fatalf("manifest is not JSON: %v", err)
		}
		if m.Format != "csv" || m.Successful != 3 || len(m.Playlists) != 3 {
			t.Errorf("unexpected manifest %+v", m)
		}
		if m.Playlists[0].File != "1_road-trip.csv" {
			t.Errorf("expected relative file name, got %q", m.Playlists[0].File)
		}

		updates := drain(prog)
		if len(updates) == 0 {
			t.Fatal("expected progress updates")
		}
		if last := updates[len(updates)-1]; last.Phase != WriteManifest {
			t.Errorf("expected manifest update last, got %v", last.Phase)
		}
	})

	t.Run("records failed playlists and continues", func(t *testing.T) {
		exporter, backend, user := setupExporter(t)
		backend.AddPlaylist(user.ID, "Mine", 1)
		theirs := backend.AddPlaylist(user.ID+1, "Theirs")

		dir := t.TempDir()
		result, err := exporter.ExportAll(ctx, nil, []int{1, theirs.ID, 99}, ExportOpts{OutputDir: dir, RateLimit: 100, Workers: 2})
		if err != nil {
			t.Fatalf("ExportAll failed: %v", err)
		}

		if result.Successful != 1 || result.Failed != 2 {
			t.Fatalf("expected 1 success and 2 failures, got %+v", result)
		}
		if !errors.Is(result.Results[1].Error, shared.ErrAuthorization) {
			t.Errorf("expected authorization error, got %v", result.Results[1].Error)
		}
		if !errors.Is(result.Results[2].Error, shared.ErrNotFound) {
			t.Errorf("expected not found error, got %v", result.Results[2].Error)
		}

		content := tu.MustReadFile(t, filepath.Join(dir, ManifestFile))
		if !strings.Contains(content, "Unknown (99)") {
			t.Errorf("expected failed playlist in manifest, got %s", content)
		}
		if _, err := os.Stat(filepath.Join(dir, "1_mine.json")); err != nil {
			t.Errorf("expected JSON export by default: %v", err)
		}
	})

	t.Run("listing failure aborts", func(t *testing.T) {
		exporter, backend, _ := setupExporter(t)
		backend.Fail(http.MethodGet, "/playlists/", http.StatusInternalServerError)

		_, err := exporter.ExportAll(ctx, nil, nil, ExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected network error, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		exporter, _, _ := setupExporter(t)

		_, err := exporter.ExportAll(ctx, nil, []int{1}, ExportOpts{Format: "xml", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		exporter, backend, user := setupExporter(t)
		backend.AddPlaylist(user.ID, "Mine", 1)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := exporter.ExportAll(cctx, nil, []int{1}, ExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancellation, got %v", err)
		}
	})
}

func TestSyncCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("caches every track", func(t *testing.T) {
		exporter, _, _ := setupExporter(t)
		cache := &memoryCache{}
		prog := make(chan ProgressUpdate, 10)

		n, err := exporter.SyncCatalog(ctx, prog, cache)
		if err != nil {
			t.Fatalf("SyncCatalog failed: %v", err)
		}
		if n != len(tu.Catalog()) || len(cache.tracks) != n {
			t.Errorf("expected %d cached tracks, got %d", len(tu.Catalog()), len(cache.tracks))
		}
		if got := len(drain(prog)); got != 2 {
			t.Errorf("expected 2 progress updates, got %d", got)
		}
	})

	t.Run("cache failure", func(t *testing.T) {
		exporter, _, _ := setupExporter(t)

		_, err := exporter.SyncCatalog(ctx, nil, &memoryCache{err: errors.New("disk full")})
		if err == nil || !strings.Contains(err.Error(), "failed to cache tracks") {
			t.Errorf("expected cache error, got %v", err)
		}
	})

	t.Run("missing cache", func(t *testing.T) {
		exporter, _, _ := setupExporter(t)

		if _, err := exporter.SyncCatalog(ctx, nil, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	for _, p := range []Phase{FetchPlaylists, ExportPlaylist, WriteManifest, FetchTracks, CacheTracks} {
		if p.String() == "" {
			t.Errorf("phase %d has no name", p)
		}
	}
	if Phase(99).String() != "" {
		t.Error("expected empty name for unknown phase")
	}
}
