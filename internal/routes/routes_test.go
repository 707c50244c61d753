package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotish/internal/models"
)

var (
	anonymous = models.Session{}
	signedIn  = models.Session{Token: "tok", User: &models.User{ID: 1, Email: "a@example.com"}}
)

func TestGuard(t *testing.T) {
	tests := []struct {
		name    string
		session models.Session
		path    string
		want    Decision
	}{
		{"home allowed when authenticated", signedIn, Home, Decision{Allow: true}},
		{"playlist allowed when authenticated", signedIn, PlaylistPath(3), Decision{Allow: true}},
		{"home redirects when anonymous", anonymous, Home, Decision{Redirect: Login, Replace: true}},
		{"playlist redirects when anonymous", anonymous, PlaylistPath(3), Decision{Redirect: Login, Replace: true}},
		{"login is public", anonymous, Login, Decision{Allow: true}},
		{"register is public", anonymous, Register, Decision{Allow: true}},
		{"partial session is anonymous", models.Session{Token: "tok"}, Home, Decision{Redirect: Login, Replace: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Guard(tc.session, tc.path))
		})
	}
}

func TestHistory(t *testing.T) {
	t.Run("push and back", func(t *testing.T) {
		h := NewHistory(Home)
		h.Navigate(PlaylistPath(1), false)

		assert.Equal(t, PlaylistPath(1), h.Current())
		require.True(t, h.Back())
		assert.Equal(t, Home, h.Current())
		assert.False(t, h.Back(), "cannot go back past the first entry")
	})

	t.Run("replace overwrites the current entry", func(t *testing.T) {
		h := NewHistory(Home)
		h.Navigate(PlaylistPath(1), false)
		h.Navigate(Login, true)

		assert.Equal(t, 2, h.Len())
		assert.Equal(t, Login, h.Current())
	})

	t.Run("empty start defaults to home", func(t *testing.T) {
		assert.Equal(t, Home, NewHistory("").Current())
	})
}

func TestHistory_Resolve(t *testing.T) {
	t.Run("guarded page is replaced so back does not return to it", func(t *testing.T) {
		h := NewHistory(Login)
		h.Navigate(PlaylistPath(4), false)

		assert.Equal(t, Login, h.Resolve(anonymous))
		assert.Equal(t, 2, h.Len())

		require.True(t, h.Back())
		assert.Equal(t, Login, h.Current())
	})

	t.Run("re-evaluated on each session change", func(t *testing.T) {
		h := NewHistory(Home)

		assert.Equal(t, Home, h.Resolve(signedIn))
		assert.Equal(t, Login, h.Resolve(anonymous))

		h.Navigate(Home, false)
		assert.Equal(t, Home, h.Resolve(signedIn))
	})
}

func TestPlaylistID(t *testing.T) {
	id, ok := PlaylistID(PlaylistPath(12))
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	for _, path := range []string{Home, "/playlists/", "/playlists/abc", "/playlists/-1", TrackPath(3)} {
		_, ok := PlaylistID(path)
		assert.False(t, ok, path)
	}
}

func TestTrackID(t *testing.T) {
	id, ok := TrackID(TrackPath(4))
	assert.True(t, ok)
	assert.Equal(t, 4, id)

	_, ok = TrackID(PlaylistPath(4))
	assert.False(t, ok)
}
