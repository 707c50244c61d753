package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotish/internal/mutations"
	"github.com/desertthunder/spotish/internal/repositories"
	"github.com/desertthunder/spotish/internal/routes"
	"github.com/desertthunder/spotish/internal/services"
	"github.com/desertthunder/spotish/internal/session"
	"github.com/desertthunder/spotish/internal/shared"
	"github.com/desertthunder/spotish/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, session and API client are opened lazily by [Runner.open] so that commands
// which only touch the config file never create a database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error

	db       *sql.DB
	store    session.Store
	tracks   *repositories.TrackRepository
	history  *routes.History
	session  *session.Manager
	gateway  *services.Gateway
	client   *services.Client
	auth     *services.Authenticator
	exporter *tasks.Exporter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Store      session.Store      // Defaults to the sqlite credential table
	OpenURL    func(string) error // Defaults to [shared.OpenBrowser]
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    opts.OpenURL,
		store:      opts.Store,
	}
}

// SetLogger replaces the logger used by commands opened after the call.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "spotish",
		Usage:     "Browse tracks and manage playlists on a spotish server",
		Version:   "0.1.0",
		Writer:    r.output,
		ErrWriter: r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("SPOTISH_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.loadConfig,
		After:    func(context.Context, *cli.Command) error { return r.Close() },
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tracksCommand, playlistsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	r.describeErrors(commands)
	return commands
}

// commandError carries the message shown for a failed command while keeping the cause for [errors.Is].
type commandError struct {
	err error
}

func (e *commandError) Error() string { return shared.Describe(e.err) }
func (e *commandError) Unwrap() error { return e.err }

// describeErrors wraps every action so failures reach the user as [shared.Describe] messages.
func (r *Runner) describeErrors(commands []*cli.Command) {
	for _, c := range commands {
		if action := c.Action; action != nil {
			c.Action = func(ctx context.Context, cmd *cli.Command) error {
				err := action(ctx, cmd)
				if err == nil {
					return nil
				}
				if r.session != nil {
					r.session.HandleError(err)
				}
				r.logger.Debug("command failed", "command", cmd.FullName(), "error", err)
				return &commandError{err: err}
			}
		}
		r.describeErrors(c.Commands)
	}
}

// loadConfig reads the config file when it exists; otherwise the current config is kept.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	r.configPath = path
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("loaded config", "path", path)
	return ctx, nil
}

// open builds the database, session and API client on first use.
func (r *Runner) open(ctx context.Context, _ *cli.Command) (context.Context, error) {
	if r.session != nil {
		return ctx, nil
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return ctx, err
		}
		r.db = db
		r.tracks = repositories.NewTrackRepository(db)
	}
	store := r.store
	if store == nil {
		store = repositories.NewCredentialRepository(r.db)
	}

	r.history = routes.NewHistory(routes.Home)
	r.session = session.NewManager(session.Options{
		Store:                   store,
		Navigator:               r.history,
		Logger:                  shared.WithLogger(r.logger, "component", "session"),
		InvalidateOnAuthFailure: r.config.Session.InvalidateOnAuthFailure,
	})
	r.gateway = services.NewGateway(services.GatewayOpts{
		BaseURL:    r.config.API.BaseURL,
		HTTPClient: r.httpClient,
		Tokens:     r.session,
		UserAgent:  r.config.API.UserAgent,
		RateLimit:  r.config.API.RateLimit,
		Logger:     shared.WithLogger(r.logger, "component", "gateway"),
	})
	r.client = services.NewClient(r.gateway)
	r.auth = services.NewAuthenticator(r.gateway, r.logger)
	r.exporter = tasks.NewExporter(r.client, r.logger)
	return ctx, nil
}

// requireSession opens the runner and refuses to continue without a signed-in user.
func (r *Runner) requireSession(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	ctx, err := r.open(ctx, cmd)
	if err != nil {
		return ctx, err
	}

	if d := routes.Guard(r.session.Session(), routes.Home); !d.Allow {
		return ctx, &commandError{err: shared.ErrNotAuthenticated}
	}
	return ctx, nil
}

// controller builds a mutation controller for a single command.
func (r *Runner) controller() *mutations.Controller {
	return mutations.NewController(r.client, shared.WithLogger(r.logger, "component", "mutations"))
}

// Close releases the database. The next command that needs the session opens it again.
func (r *Runner) Close() error {
	r.session, r.client, r.auth, r.exporter = nil, nil, nil, nil
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.tracks = nil, nil
	return err
}

// intArg parses a positional ID argument.
func intArg(cmd *cli.Command, name string) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return 0, shared.NewValidationError(name, "is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError(name, fmt.Sprintf("%q is not a valid id", raw))
	}
	return id, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
