package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
	"github.com/desertthunder/musicutil/internal/source/chiasenhac"
	"github.com/urfave/cli/v3"
)

// RefreshURL rewrites the numeric mirror prefix of a download URL.
func (r *Runner) RefreshURL(ctx context.Context, cmd *cli.Command) error {
	downloadURL, err := requiredArg(cmd, "url")
	if err != nil {
		return err
	}

	refreshed, err := chiasenhac.RefreshDownloadURL(downloadURL, !cmd.Bool("decrement"))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", refreshed)
}

// Size sends a HEAD request and prints the Content-Length of the response in --unit.
func (r *Runner) Size(ctx context.Context, cmd *cli.Command) error {
	fileURL, err := requiredArg(cmd, "url")
	if err != nil {
		return err
	}
	unit := strings.ToUpper(strings.TrimSpace(cmd.String("unit")))

	opts, err := r.sourceOptions()
	if err != nil {
		return err
	}

	session, err := source.NewSession(opts, chiasenhac.Headers)
	if err != nil {
		return err
	}

	size, err := session.RemoteFileSize(ctx, fileURL, unit)
	if err != nil {
		return err
	}

	if unit == "" || unit == "B" {
		return r.writePlain("%d B (%s)\n", int64(size), shared.FormatSize(int64(size)))
	}
	return r.writePlain("%.2f %s\n", size, unit)
}

// Online reports whether the internet can be reached.
func (r *Runner) Online(ctx context.Context, cmd *cli.Command) error {
	if !shared.IsOnline(ctx) {
		r.writePlain("✗ offline\n")
		return fmt.Errorf("%w: no internet connection", shared.ErrTimeout)
	}
	return r.writePlain("✓ online\n")
}
