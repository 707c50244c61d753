package main

import (
	"context"
	"errors"

	"github.com/desertthunder/spotish/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges email and password for a token and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	token, user, err := r.auth.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}

	if err := r.session.Login(token, *user); err != nil {
		return err
	}
	return r.writePlain("✓ Logged in as %s\n", user.Email)
}

// AuthLogout clears the persisted session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if !r.session.Session().Authenticated() {
		return r.writePlain("Not logged in\n")
	}

	r.session.Logout()
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus prints the stored session. With --verify the token is checked against the server.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s := r.session.Session()
	if !s.Authenticated() {
		return r.writePlain("✗ Not logged in\n")
	}

	if cmd.Bool("verify") {
		user, err := r.client.Me(ctx)
		switch {
		case errors.Is(err, shared.ErrAuthentication):
			r.session.HandleError(err)
			return r.writePlain("✗ Stored credentials for %s were rejected\n", s.User.Email)
		case err != nil:
			return err
		}
		r.logger.Debug("token verified", "user", user.Email)
	}

	if cmd.Bool("json") {
		return r.writeJSON(s.User, true)
	}
	return r.writePlain("✓ Logged in as %s (id %d)\n", s.User.Email, s.User.ID)
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Manage the login session",
		Before: r.open,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Account email",
						Sources: cli.EnvVars("SPOTISH_EMAIL"),
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("SPOTISH_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the stored session",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "verify", Usage: "Check the token against the server"},
					&cli.BoolFlag{Name: "json", Usage: "Output the user as JSON"},
				},
				Action: r.AuthStatus,
			},
		},
	}
}
