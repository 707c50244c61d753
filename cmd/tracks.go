package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotish/internal/formatter"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/search"
	"github.com/desertthunder/spotish/internal/shared"
	"github.com/desertthunder/spotish/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TracksList prints the catalog, optionally from the local cache and narrowed by --filter.
func (r *Runner) TracksList(ctx context.Context, cmd *cli.Command) error {
	var (
		tracks []models.Track
		err    error
	)

	if cmd.Bool("cached") {
		tracks, err = r.tracks.List()
	} else {
		tracks, err = r.client.Tracks(ctx)
	}
	if err != nil {
		return err
	}

	tracks = search.Filter(tracks, cmd.String("filter"))
	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}
	return r.writeTracks(tracks)
}

// TracksSearch runs a server side search.
func (r *Runner) TracksSearch(ctx context.Context, cmd *cli.Command) error {
	tracks, err := r.client.SearchTracks(ctx, cmd.StringArg("query"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}
	return r.writeTracks(tracks)
}

// TracksShow prints one track.
func (r *Runner) TracksShow(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}

	track, err := r.client.Track(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, true)
	}

	r.writePlainHeader(track.Title)
	r.writePlain("Artist:   %s\n", track.Artist.Name)
	r.writePlain("Album:    %s\n", track.Album.Title)
	r.writePlain("Duration: %s\n", formatter.FormatDuration(track.Duration))
	return r.writePlain("Preview:  %s\n", track.PreviewURL)
}

// TracksPreview opens a track's preview URL in the default browser.
func (r *Runner) TracksPreview(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}

	track, err := r.client.Track(ctx, id)
	if err != nil {
		return err
	}
	if track.PreviewURL == "" {
		return shared.NewValidationError("preview_url", "track has no preview")
	}

	if err := r.openURL(track.PreviewURL); err != nil {
		return fmt.Errorf("failed to open preview: %w", err)
	}
	return r.writePlain("▶ %s\n", track.Label())
}

// TracksCache stores the catalog in the local database for offline listing.
func (r *Runner) TracksCache(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("clear") {
		if err := r.tracks.Clear(); err != nil {
			return err
		}
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	n, err := r.exporter.SyncCatalog(ctx, progressCh, r.tracks)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	return r.writePlain("✓ Cached %d tracks\n", n)
}

func (r *Runner) writeTracks(tracks []models.Track) error {
	if len(tracks) == 0 {
		return r.writePlain("No tracks found\n")
	}

	for _, t := range tracks {
		r.writePlain("%4d  %-32s  %-24s  %s\n", t.ID, t.Title, t.Artist.Name, formatter.FormatDuration(t.Duration))
	}
	return r.writePlain("\n%d tracks\n", len(tracks))
}

func tracksCommand(r *Runner) *cli.Command {
	jsonFlag := func() cli.Flag { return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"} }

	return &cli.Command{
		Name:   "tracks",
		Usage:  "Browse the track catalog",
		Before: r.requireSession,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Only show tracks whose title or artist contains this text",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache instead of the server",
					},
					jsonFlag(),
				},
				Action: r.TracksList,
			},
			{
				Name:      "search",
				Usage:     "Search tracks on the server (at least 3 characters)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.TracksSearch,
			},
			{
				Name:      "show",
				Usage:     "Show one track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.TracksShow,
			},
			{
				Name:      "preview",
				Usage:     "Open a track's audio preview in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TracksPreview,
			},
			{
				Name:  "cache",
				Usage: "Store the catalog locally",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Remove cached tracks first"},
				},
				Action: r.TracksCache,
			},
		},
	}
}
