package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicutil/internal/formatter"
	"github.com/desertthunder/musicutil/internal/tasks"
	"github.com/urfave/cli/v3"
)

// bulkOpts merges the fetch flags over the [tasks] section of the config.
func (r *Runner) bulkOpts(cmd *cli.Command) (tasks.BulkFetchOpts, error) {
	opts := tasks.BulkFetchOptsFromConfig(r.config.Tasks)

	if cmd.IsSet("format") {
		f, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if n := cmd.Int("workers"); n > 0 {
		opts.NumWorkers = n
	}
	if rate := cmd.Float("rate"); rate > 0 {
		opts.RateLimit = rate
	}
	opts.OutputDir = cmd.String("output-dir")
	return opts, nil
}

// Fetch searches for a query and fetches the song page of every result.
//
// Progress is logged as it arrives; the summary (or the JSON result with --json)
// is written once every worker has finished.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	query, err := requiredArg(cmd, "query")
	if err != nil {
		return err
	}

	opts, err := r.bulkOpts(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(cmd.Bool("save"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, err := engine.SearchAndFetch(ctx, progress, query, r.maxResults(cmd), opts)
	close(progress)
	<-done

	if result == nil {
		return err
	}
	if err != nil {
		r.logger.Warn("fetch stopped early", "error", err)
	}

	if cmd.Bool("json") {
		if jsonErr := r.writeJSON(result, cmd.Bool("pretty")); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	r.writeFetchSummary(query, result)
	return err
}

func (r *Runner) writeFetchSummary(query string, result *tasks.BulkFetchResult) {
	r.writePlainHeader(fmt.Sprintf("Fetched %q", query))
	r.writePlain("Total:     %d\n", result.Total)
	r.writePlain("Succeeded: %d\n", result.Succeeded)
	r.writePlain("Failed:    %d\n", result.Failed)
	if result.Saved > 0 {
		r.writePlain("Saved:     %d\n", result.Saved)
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest:  %s\n", result.ManifestPath)
	}

	var failed []tasks.FetchResult
	for _, res := range result.Results {
		if res.Success() {
			r.writePlain("  ✓ %s (%d links)\n", res.Song, res.Song.File.Len())
		} else {
			failed = append(failed, res)
		}
	}
	if len(failed) == 0 {
		return
	}

	r.writePlainln("Failures:")
	for _, res := range failed {
		r.writePlain("  ✗ %s: %s\n", res.Result, res.Reason)
	}
}
