package models

import "testing"

func TestSession(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{name: "empty", session: Session{}, want: false},
		{name: "token only", session: Session{Token: "t"}, want: false},
		{name: "user only", session: Session{User: &User{ID: 1}}, want: false},
		{name: "complete", session: Session{Token: "t", User: &User{ID: 1, Email: "a@b.c"}}, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.session.Authenticated(); got != tc.want {
				t.Errorf("Authenticated() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPlaylist(t *testing.T) {
	p := Playlist{ID: 1, Name: "Mix", UserID: 7, Tracks: []Track{{ID: 1}, {ID: 2}, {ID: 3}}}

	t.Run("Clone does not share tracks", func(t *testing.T) {
		c := p.Clone()
		c.Tracks[0].Title = "changed"

		if p.Tracks[0].Title != "" {
			t.Error("modifying the clone changed the original")
		}
	})

	t.Run("HasTrack", func(t *testing.T) {
		if !p.HasTrack(2) {
			t.Error("expected track 2 to be present")
		}
		if p.HasTrack(9) {
			t.Error("expected track 9 to be absent")
		}
	})

	t.Run("Summary", func(t *testing.T) {
		s := p.Summary()
		if s.ID != 1 || s.Name != "Mix" || s.UserID != 7 {
			t.Errorf("unexpected summary %+v", s)
		}
	})

	t.Run("TrackIDs", func(t *testing.T) {
		ids := p.TrackIDs()
		if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
			t.Errorf("unexpected ids %v", ids)
		}
	})
}

func TestTrackLabel(t *testing.T) {
	if got := (Track{Title: "Moonlight", Artist: Artist{Name: "Luna"}}).Label(); got != "Luna - Moonlight" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Track{Title: "Untitled"}).Label(); got != "Untitled" {
		t.Errorf("Label() without artist = %q", got)
	}
}
