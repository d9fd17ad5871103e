package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicutil/internal/services"
	"github.com/urfave/cli/v3"
)

// promptOpts builds the token prompt from [credentials.spotify] and the command flags.
//
// Callback mode without any redirect URI listens on the [server] address.
func (r *Runner) promptOpts(cmd *cli.Command) services.PromptOpts {
	opts := services.PromptOptsFromConfig(r.config.Credentials.Spotify)
	if username := cmd.String("username"); username != "" {
		opts.Username = username
	}
	if cmd.IsSet("mode") {
		opts.Mode = cmd.String("mode")
	}

	if opts.Mode == services.ModeCallback && opts.Credentials.WithEnv().RedirectURI == "" {
		opts.Credentials.RedirectURI = fmt.Sprintf("http://%s/callback", r.config.Server.Addr())
	}

	opts.In = r.input
	opts.Out = r.output
	opts.Logger = r.logger
	return opts
}

// SpotifyToken prints an access token, running the authorization flow when
// no cached token can be used.
func (r *Runner) SpotifyToken(ctx context.Context, cmd *cli.Command) error {
	token, err := services.PromptForToken(ctx, r.promptOpts(cmd))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", token)
}

// SpotifyWhoami prints the profile that the cached token belongs to.
func (r *Runner) SpotifyWhoami(ctx context.Context, cmd *cli.Command) error {
	opts := r.promptOpts(cmd)

	token, err := services.PromptForToken(ctx, opts)
	if err != nil {
		return err
	}

	svc, err := services.NewSpotifyService(opts.Credentials.WithEnv())
	if err != nil {
		return err
	}

	user, err := svc.CurrentUser(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Spotify profile")
	r.writePlain("ID:      %s\n", user.ID)
	r.writePlain("Name:    %s\n", user.DisplayName)
	if user.Email != "" {
		r.writePlain("Email:   %s\n", user.Email)
	}
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("Product: %s\n", user.Product)
	}
	return nil
}
