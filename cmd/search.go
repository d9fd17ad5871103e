package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/musicutil/internal/formatter"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/repositories"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
	"github.com/desertthunder/musicutil/internal/source/chiasenhac"
	"github.com/urfave/cli/v3"
)

func requiredArg(cmd *cli.Command, name string) (string, error) {
	value := strings.TrimSpace(cmd.StringArg(name))
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}

// maxResults returns --max, falling back to [source] max_search.
func (r *Runner) maxResults(cmd *cli.Command) int {
	if n := cmd.Int("max"); n > 0 {
		return n
	}
	if r.config.Source.MaxSearch > 0 {
		return r.config.Source.MaxSearch
	}
	return chiasenhac.DefaultMaxSearch
}

// writeEncoded writes formatter output, ending it with a newline.
func (r *Runner) writeEncoded(data []byte) error {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return r.writeBytes(data)
}

// Search queries the configured source and prints the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query, err := requiredArg(cmd, "query")
	if err != nil {
		return err
	}
	max := r.maxResults(cmd)

	src, err := r.source()
	if err != nil {
		return err
	}

	r.logger.Debug("searching", "source", src.Name(), "query", query, "max", max)
	results, err := src.Search(ctx, query, max)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("record") {
		r.recordSearch(ctx, &models.Search{
			Source:      src.Name(),
			Query:       query,
			MaxResults:  max,
			ResultCount: len(results),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if len(results) == 0 && f == formatter.Text {
		return r.writePlain("No results for %q\n", query)
	}

	data, err := formatter.EncodeResults(query, results, f)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	return r.writeEncoded(data)
}

// recordSearch adds search to the history. Failures are logged, not returned.
func (r *Runner) recordSearch(ctx context.Context, search *models.Search) {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("search not recorded", "error", err)
		return
	}
	if err := repositories.NewSearchRepository(db).Record(ctx, search); err != nil {
		r.logger.Warn("search not recorded", "error", err)
	}
}

// Links prints the download links of a song page.
func (r *Runner) Links(ctx context.Context, cmd *cli.Command) error {
	songURL, err := requiredArg(cmd, "url")
	if err != nil {
		return err
	}

	src, err := r.source()
	if err != nil {
		return err
	}

	links, err := src.DownloadDetails(ctx, songURL)
	if err != nil {
		return fmt.Errorf("failed to get download links: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(links, cmd.Bool("pretty"))
	}

	if len(links) == 0 {
		return r.writePlain("No download links found\n")
	}
	return r.writeBytes(formatter.LinksToText(links))
}

// Info prints the metadata and lyrics of a song page.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	songURL, err := requiredArg(cmd, "url")
	if err != nil {
		return err
	}

	src, err := r.source()
	if err != nil {
		return err
	}

	info, err := src.SongInfo(ctx, songURL)
	if err != nil {
		return fmt.Errorf("failed to get song info: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlain("Song:   %s\n", info.Name)
	r.writePlain("Artist: %s\n", info.Artist)
	r.writePlain("Album:  %s\n", info.Album)
	r.writePlain("Year:   %s\n", info.Year)
	if len(info.Lyrics) > 0 {
		r.writePlainln("%s", strings.Join(info.Lyrics, "\n"))
	}
	return nil
}

// Song fetches a song page, optionally writing it to a file and saving it to the library.
func (r *Runner) Song(ctx context.Context, cmd *cli.Command) error {
	songURL, err := requiredArg(cmd, "url")
	if err != nil {
		return err
	}

	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	save := cmd.Bool("save")
	engine, err := r.engine(save)
	if err != nil {
		return err
	}

	song, err := engine.Fetch(ctx, songURL)
	if err != nil {
		return err
	}
	r.logger.Debug("fetched song", "song", song.String(), "links", song.File.Len())

	if dir := cmd.String("output"); dir != "" {
		path, err := formatter.WriteSong(song, f, dir)
		if err != nil {
			return err
		}
		r.logger.Info("wrote song", "path", path)
	}

	if save {
		if err := engine.Save(ctx, song); err != nil {
			return fmt.Errorf("failed to save song: %w", err)
		}
		r.logger.Info("saved song", "id", song.ID)
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}

	data, err := formatter.EncodeSong(song, f)
	if err != nil {
		return fmt.Errorf("failed to format song: %w", err)
	}
	return r.writeEncoded(data)
}

// Sources lists registered sources and marks the configured one.
func (r *Runner) Sources(ctx context.Context, cmd *cli.Command) error {
	current := r.config.Source.Name
	if current == "" || current == "default" {
		current = source.DefaultName
	}

	type sourceInfo struct {
		Name    string `json:"name"`
		Current bool   `json:"current"`
	}

	infos := []sourceInfo{}
	for _, name := range source.Names() {
		infos = append(infos, sourceInfo{Name: name, Current: name == current})
	}

	if cmd.Bool("json") {
		return r.writeJSON(infos, cmd.Bool("pretty"))
	}

	for _, info := range infos {
		marker := " "
		if info.Current {
			marker = "*"
		}
		r.writePlain("%s %s\n", marker, info.Name)
	}
	return nil
}

// QualityList prints every known quality, best first.
func (r *Runner) QualityList(ctx context.Context, cmd *cli.Command) error {
	for i, q := range models.Qualities() {
		r.writePlain("%d. %s\n", i+1, q)
	}
	return nil
}

// QualityBest prints the download link of a song page chosen by --prefer.
func (r *Runner) QualityBest(ctx context.Context, cmd *cli.Command) error {
	songURL, err := requiredArg(cmd, "url")
	if err != nil {
		return err
	}

	pref, err := models.ParsePreference(cmd.String("prefer"))
	if err != nil {
		return fmt.Errorf("%w: --prefer: %v", shared.ErrInvalidFlag, err)
	}

	src, err := r.source()
	if err != nil {
		return err
	}

	links, err := src.DownloadDetails(ctx, songURL)
	if err != nil {
		return fmt.Errorf("failed to get download links: %w", err)
	}

	link, err := models.BestLink(links, pref)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(link, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\t%s\t%s\n", link.Quality, link.Size, link.URL)
}
