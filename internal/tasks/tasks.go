// package tasks implements multi-step operations over a music source.
//
// The core abstraction is Engine, which searches a source and fetches song pages.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
)

// SongStore persists fetched songs. Implemented by repositories.SongRepository.
type SongStore interface {
	Upsert(ctx context.Context, song *models.Song) error
}

// FetchResult is the outcome of fetching the page of one search result.
type FetchResult struct {
	Result models.SearchResult `json:"result"`
	Song   *models.Song        `json:"song,omitempty"`
	File   string              `json:"file,omitempty"`
	Error  error               `json:"-"`
	Reason string              `json:"error,omitempty"`
}

// Success reports whether the song was fetched and, when asked, written and saved.
func (r FetchResult) Success() bool {
	return r.Error == nil && r.Song != nil
}

func (r *FetchResult) fail(err error) {
	r.Error = err
	r.Reason = err.Error()
}

// Engine fetches songs from a [source.Source], optionally saving them to a [SongStore].
type Engine struct {
	src   source.Source
	store SongStore
}

// NewEngine creates an Engine. store may be nil.
func NewEngine(src source.Source, store SongStore) *Engine {
	return &Engine{src: src, store: store}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Fetch scrapes the song page at songURL: metadata first, then download links.
func (e *Engine) Fetch(ctx context.Context, songURL string) (*models.Song, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: source not initialized", shared.ErrInvalidConfig)
	}

	info, err := e.src.SongInfo(ctx, songURL)
	if err != nil {
		return nil, fmt.Errorf("song info: %w", err)
	}

	links, err := e.src.DownloadDetails(ctx, songURL)
	if err != nil {
		return nil, fmt.Errorf("download details: %w", err)
	}
	return models.NewSong(e.src.Name(), songURL, info, links), nil
}

// SearchAndFetch searches for query and bulk fetches up to max results.
func (e *Engine) SearchAndFetch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	query string,
	max int,
	opts BulkFetchOpts,
) (*BulkFetchResult, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: source not initialized", shared.ErrInvalidConfig)
	}

	e.sendProgress(prog, searchUpdate(e.src.Name(), query))
	results, err := e.src.Search(ctx, query, max)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	e.sendProgress(prog, foundResultsUpdate(results))

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", shared.ErrNotFound, query)
	}
	return e.BulkFetch(ctx, prog, results, opts)
}

// Save upserts song into the engine's store.
func (e *Engine) Save(ctx context.Context, song *models.Song) error {
	if e.store == nil {
		return fmt.Errorf("%w: no song library configured", shared.ErrInvalidConfig)
	}
	return e.store.Upsert(ctx, song)
}

// Source returns the source the engine reads from.
func (e *Engine) Source() source.Source {
	return e.src
}
