package ui

import (
	"fmt"

	"github.com/desertthunder/spotish/internal/formatter"
	"github.com/desertthunder/spotish/internal/models"
)

// playlistItem wraps [models.PlaylistSummary] for display.
type playlistItem struct {
	playlist models.PlaylistSummary
}

func (i playlistItem) Title() string { return i.playlist.Name }

// trackItem wraps [models.Track] for display.
type trackItem struct {
	track models.Track
}

func (i trackItem) Title() string { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist.Name
	if i.track.Album.Title != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Title)
	}
	if i.track.Duration > 0 {
		desc = fmt.Sprintf("%s • %s", desc, formatter.FormatDuration(i.track.Duration))
	}
	return desc
}

type row interface {
	Title() string
}

// renderRows renders rows with a cursor marker, or placeholder when there are none.
func renderRows[T row](items []T, cursor int, active bool, placeholder string) string {
	if len(items) == 0 {
		return styles.help.Render(placeholder)
	}

	out := ""
	for i, it := range items {
		line := "  " + it.Title()
		if i == cursor && active {
			line = styles.selected.Render("> " + it.Title())
		}
		if d, ok := any(it).(interface{ Description() string }); ok && d.Description() != "" {
			line += styles.help.Render("  " + d.Description())
		}
		out += line + "\n"
	}
	return out
}

func playlistItems(summaries []models.PlaylistSummary) []playlistItem {
	out := make([]playlistItem, len(summaries))
	for i, s := range summaries {
		out[i] = playlistItem{playlist: s}
	}
	return out
}

func trackItems(tracks []models.Track) []trackItem {
	out := make([]trackItem, len(tracks))
	for i, t := range tracks {
		out[i] = trackItem{track: t}
	}
	return out
}
