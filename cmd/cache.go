package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/musicutil/internal/cache"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/urfave/cli/v3"
)

// cacheDir is [cache] dir from the config, or the user cache directory.
func (r *Runner) cacheDir() string {
	if r.config.Cache.Dir != "" {
		return r.config.Cache.Dir
	}
	return cache.Dir()
}

// CacheList lists the cache files on disk with their expiry.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	dir := r.cacheDir()
	infos, err := cache.List(r.fs, dir, time.Now())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if infos == nil {
			infos = []cache.Info{}
		}
		return r.writeJSON(infos, cmd.Bool("pretty"))
	}

	if len(infos) == 0 {
		return r.writePlain("No cache files in %s\n", dir)
	}

	r.writePlainHeader(dir)
	for _, info := range infos {
		status := "fresh"
		switch {
		case !info.Valid:
			status = "invalid"
		case info.Expired:
			status = "expired"
		}
		r.writePlain("%-24s %-8s %10s", info.Name, status, shared.FormatSize(info.Size))
		if info.Valid {
			r.writePlain("  expires %s", info.Expires.Local().Format(time.DateTime))
		}
		r.writePlain("\n")
	}
	return nil
}

// CacheClear deletes every cache file.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	dir := r.cacheDir()
	n, err := cache.Clear(r.fs, dir)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	r.logger.Debug("cleared cache", "dir", dir, "files", n)
	return r.writePlain("✓ Removed %d cache file(s) from %s\n", n, dir)
}
