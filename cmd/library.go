package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/musicutil/internal/formatter"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/repositories"
	"github.com/urfave/cli/v3"
)

// LibraryList lists saved songs, newest first.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.songs()
	if err != nil {
		return err
	}

	list, err := songs.List(ctx, repositories.ListOpts{
		Source: cmd.String("source"),
		Artist: cmd.String("artist"),
		Limit:  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if list == nil {
			list = []*models.Song{}
		}
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	if len(list) == 0 {
		return r.writePlain("Library is empty\n")
	}

	for _, song := range list {
		r.writePlain("%s  %s (%d links)\n", song.ID, song, song.File.Len())
	}
	return nil
}

// LibraryShow prints one saved song, looked up by ID or by page URL.
func (r *Runner) LibraryShow(ctx context.Context, cmd *cli.Command) error {
	key, err := requiredArg(cmd, "id")
	if err != nil {
		return err
	}

	songs, err := r.songs()
	if err != nil {
		return err
	}

	var song *models.Song
	if strings.HasPrefix(key, "http") {
		song, err = songs.GetByURL(ctx, key)
	} else {
		song, err = songs.Get(ctx, key)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}

	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	data, err := formatter.EncodeSong(song, f)
	if err != nil {
		return fmt.Errorf("failed to format song: %w", err)
	}
	return r.writeEncoded(data)
}

// LibrarySave fetches a song page and upserts it into the library.
func (r *Runner) LibrarySave(ctx context.Context, cmd *cli.Command) error {
	songURL, err := requiredArg(cmd, "url")
	if err != nil {
		return err
	}

	engine, err := r.engine(true)
	if err != nil {
		return err
	}

	song, err := engine.Fetch(ctx, songURL)
	if err != nil {
		return err
	}
	if err := engine.Save(ctx, song); err != nil {
		return fmt.Errorf("failed to save song: %w", err)
	}

	return r.writePlain("✓ Saved %s (%s)\n", song, song.ID)
}

// LibraryDelete removes a saved song and its links.
func (r *Runner) LibraryDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredArg(cmd, "id")
	if err != nil {
		return err
	}

	songs, err := r.songs()
	if err != nil {
		return err
	}

	if err := songs.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// LibraryHistory prints recorded searches, or clears them with --clear.
func (r *Runner) LibraryHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	searches := repositories.NewSearchRepository(db)

	if cmd.Bool("clear") {
		n, err := searches.Clear(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Removed %d search(es)\n", n)
	}

	recent, err := searches.Recent(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if recent == nil {
			recent = []*models.Search{}
		}
		return r.writeJSON(recent, cmd.Bool("pretty"))
	}

	if len(recent) == 0 {
		return r.writePlain("No searches recorded\n")
	}
	for _, s := range recent {
		r.writePlain("%s  %-14s %q (%d/%d)\n",
			s.Created.Local().Format(time.DateTime), s.Source, s.Query, s.ResultCount, s.MaxResults)
	}
	return nil
}
