package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotish/internal/formatter"
	"github.com/desertthunder/spotish/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints the signed-in user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	summaries, err := r.controller().Load(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}
	if len(summaries) == 0 {
		return r.writePlain("No playlists yet\n")
	}

	for _, p := range summaries {
		r.writePlain("%4d  %s\n", p.ID, p.Name)
	}
	return r.writePlain("\n%d playlists\n", len(summaries))
}

// PlaylistsShow prints a playlist in the requested format.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	p, err := r.controller().Open(ctx, id)
	if err != nil {
		return err
	}

	data, err := formatter.Export(p, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// PlaylistsCreate creates a playlist. Nothing is shown until the server answers.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	p, err := r.controller().Create(ctx, cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created playlist %q (id %d)\n", p.Name, p.ID)
}

// PlaylistsRename renames a playlist.
func (r *Runner) PlaylistsRename(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}

	p, err := r.controller().Rename(ctx, id, cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Renamed playlist %d to %q\n", p.ID, p.Name)
}

// PlaylistsAdd appends a track to a playlist.
func (r *Runner) PlaylistsAdd(ctx context.Context, cmd *cli.Command) error {
	playlistID, trackID, err := playlistTrackArgs(cmd)
	if err != nil {
		return err
	}

	ack, err := r.controller().Add(ctx, playlistID, trackID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s (%d tracks)\n", ack, ack.Tracks)
}

// PlaylistsRemove removes a track from a playlist.
//
// The playlist is loaded first so that a failed removal leaves the printed listing unchanged.
func (r *Runner) PlaylistsRemove(ctx context.Context, cmd *cli.Command) error {
	playlistID, trackID, err := playlistTrackArgs(cmd)
	if err != nil {
		return err
	}

	ctrl := r.controller()
	defer ctrl.Dispose()

	if _, err := ctrl.Open(ctx, playlistID); err != nil {
		return err
	}
	if err := ctrl.Remove(ctx, playlistID, trackID); err != nil {
		return err
	}

	remaining := ctrl.Collection().Tracks(playlistID)
	return r.writePlain("✓ Removed track %d from playlist %d (%d tracks left)\n", trackID, playlistID, len(remaining))
}

// PlaylistsDelete deletes a playlist.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}

	ctrl := r.controller()
	defer ctrl.Dispose()

	if _, err := ctrl.Load(ctx); err != nil {
		return err
	}
	if err := ctrl.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted playlist %d\n", id)
}

// PlaylistsExport writes playlists to files, one per playlist, plus a manifest.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	defaults := r.config.Export
	formatName := defaults.Format
	if cmd.IsSet("format") {
		formatName = cmd.String("format")
	}
	format, err := formatter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	var ids []int
	for _, id := range cmd.IntSlice("id") {
		ids = append(ids, int(id))
	}

	opts := tasks.ExportOpts{
		Format:    format,
		OutputDir: defaults.OutputDir,
		Workers:   defaults.Workers,
		RateLimit: defaults.RateLimit,
	}
	if cmd.IsSet("output") {
		opts.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("workers") {
		opts.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate-limit") {
		opts.RateLimit = float64(cmd.Float("rate-limit"))
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ExportPlaylist:
				r.logger.Info(update.Message, "step", update.Step, "total", update.Total)
			default:
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}
	}()

	result, err := r.exporter.ExportAll(ctx, progressCh, ids, opts)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest:  %s\n", result.ManifestPath)
	r.writePlain("Exported:  %d/%d\n", result.Successful, result.TotalPlaylists)

	if result.Failed > 0 {
		r.writePlain("\nFailed to export %d playlists:\n", result.Failed)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %d %s: %v\n", res.PlaylistID, res.Name, res.Error)
			}
		}
	}
	return nil
}

func playlistTrackArgs(cmd *cli.Command) (int, int, error) {
	playlistID, err := intArg(cmd, "playlist")
	if err != nil {
		return 0, 0, err
	}
	trackID, err := intArg(cmd, "track")
	if err != nil {
		return 0, 0, err
	}
	return playlistID, trackID, nil
}

func formatUsage() string {
	return fmt.Sprintf("Output format (%v)", formatter.Formats)
}

func playlistsCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "id"}} }
	pairArgs := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "playlist"}, &cli.StringArg{Name: "track"}}
	}

	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage your playlists",
		Before:  r.requireSession,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your playlists",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist with its tracks",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: formatUsage(), Value: string(formatter.Text)},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.PlaylistsCreate,
			},
			{
				Name:      "rename",
				Usage:     "Rename a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "name"}},
				Action:    r.PlaylistsRename,
			},
			{
				Name:      "add",
				Usage:     "Add a track to a playlist",
				Arguments: pairArgs(),
				Action:    r.PlaylistsAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a track from a playlist",
				Arguments: pairArgs(),
				Action:    r.PlaylistsRemove,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: idArg(),
				Action:    r.PlaylistsDelete,
			},
			{
				Name:  "export",
				Usage: "Export playlists to files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: formatUsage() + ", default from [export] config"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntSliceFlag{Name: "id", Usage: "Playlist IDs to export (default: all)"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent workers"},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Playlist fetches per second"},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}
