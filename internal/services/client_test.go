package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/spotish/internal/shared"
	tu "github.com/desertthunder/spotish/internal/testing"
)

func newTestClient(t *testing.T) (*Client, *tu.Backend, int) {
	t.Helper()
	backend := tu.NewBackend(t)
	user := backend.AddUser("ada@example.com", "hunter2")
	backend.AddTracks(tu.Catalog()...)
	token := backend.IssueToken(user.Email)

	g := NewGateway(GatewayOpts{BaseURL: backend.URL(), Tokens: StaticToken(token)})
	return NewClient(g), backend, user.ID
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Tracks", func(t *testing.T) {
		client, _, _ := newTestClient(t)
		tracks, err := client.Tracks(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != len(tu.Catalog()) {
			t.Fatalf("expected %d tracks, got %d", len(tu.Catalog()), len(tracks))
		}
		if tracks[0].Artist.Name != "Beethoven" || tracks[0].PreviewURL == "" {
			t.Errorf("expected nested fields to decode, got %+v", tracks[0])
		}
	})

	t.Run("Track", func(t *testing.T) {
		client, _, _ := newTestClient(t)

		t.Run("Found", func(t *testing.T) {
			track, err := client.Track(ctx, 3)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.Title != "Clair de Lune" {
				t.Errorf("unexpected track %+v", track)
			}
		})

		t.Run("Missing", func(t *testing.T) {
			_, err := client.Track(ctx, 99)
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})

		t.Run("Invalid ID", func(t *testing.T) {
			_, err := client.Track(ctx, 0)
			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	})

	t.Run("SearchTracks", func(t *testing.T) {
		client, backend, _ := newTestClient(t)

		t.Run("Matches Title And Artist", func(t *testing.T) {
			tracks, err := client.SearchTracks(ctx, "  moon ")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 3 {
				t.Errorf("expected 3 matches, got %d", len(tracks))
			}
		})

		t.Run("Short Query Rejected Locally", func(t *testing.T) {
			before := backend.Count(http.MethodGet, "/tracks/search")
			_, err := client.SearchTracks(ctx, " mo ")
			if !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if backend.Count(http.MethodGet, "/tracks/search") != before {
				t.Error("expected no request for a short query")
			}
		})
	})

	t.Run("Playlists", func(t *testing.T) {
		client, backend, userID := newTestClient(t)
		backend.AddPlaylist(userID, "Mine", 1, 2)
		backend.AddPlaylist(userID+100, "Theirs")

		playlists, err := client.Playlists(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 1 || playlists[0].Name != "Mine" {
			t.Errorf("expected only own playlists, got %+v", playlists)
		}
	})

	t.Run("Playlist", func(t *testing.T) {
		client, backend, userID := newTestClient(t)
		mine := backend.AddPlaylist(userID, "Mine", 1, 2)
		theirs := backend.AddPlaylist(userID+100, "Theirs")

		t.Run("Owned", func(t *testing.T) {
			p, err := client.Playlist(ctx, mine.ID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(p.Tracks) != 2 {
				t.Errorf("expected 2 tracks, got %d", len(p.Tracks))
			}
		})

		t.Run("Forbidden", func(t *testing.T) {
			_, err := client.Playlist(ctx, theirs.ID)
			if !errors.Is(err, shared.ErrAuthorization) {
				t.Errorf("expected authorization error, got %v", err)
			}
		})

		t.Run("Missing", func(t *testing.T) {
			_, err := client.Playlist(ctx, 404)
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	})

	t.Run("Playlist Lifecycle", func(t *testing.T) {
		client, backend, _ := newTestClient(t)

		created, err := client.CreatePlaylist(ctx, "Road Trip")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID == 0 || created.Name != "Road Trip" {
			t.Fatalf("unexpected created playlist %+v", created)
		}

		renamed, err := client.RenamePlaylist(ctx, created.ID, "Night Drive")
		if err != nil {
			t.Fatalf("rename: %v", err)
		}
		if renamed.Name != "Night Drive" {
			t.Errorf("expected renamed playlist, got %+v", renamed)
		}

		updated, err := client.AddTrack(ctx, created.ID, 4)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if !updated.HasTrack(4) {
			t.Errorf("expected track 4 in %+v", updated.TrackIDs())
		}

		if err := client.RemoveTrack(ctx, created.ID, 4); err != nil {
			t.Fatalf("remove: %v", err)
		}
		server, _ := backend.Playlist(created.ID)
		if server.HasTrack(4) {
			t.Error("expected track removed on server")
		}

		if err := client.DeletePlaylist(ctx, created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok := backend.Playlist(created.ID); ok {
			t.Error("expected playlist deleted on server")
		}
	})

	t.Run("AddTrack Unknown Track", func(t *testing.T) {
		client, backend, userID := newTestClient(t)
		p := backend.AddPlaylist(userID, "Mine")

		_, err := client.AddTrack(ctx, p.ID, 99)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("Me", func(t *testing.T) {
		client, _, userID := newTestClient(t)
		user, err := client.Me(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != userID || user.Email != "ada@example.com" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Rejected Token", func(t *testing.T) {
		backend := tu.NewBackend(t)
		client := NewClient(NewGateway(GatewayOpts{BaseURL: backend.URL(), Tokens: StaticToken("stale")}))

		_, err := client.Playlists(ctx)
		if !errors.Is(err, shared.ErrAuthentication) {
			t.Errorf("expected authentication error, got %v", err)
		}
	})
}
