package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/musicutil/internal/formatter"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 4
	MaxWorkers       = 10
	DefaultRateLimit = 2.0
	ManifestName     = "manifest.json"
)

// BulkFetchOpts contains configuration for bulk song fetches.
type BulkFetchOpts struct {
	Format     formatter.Format // Output format for song files: json, csv, markdown, txt
	OutputDir  string           // Directory for song files and the manifest; empty writes nothing
	NumWorkers int              // Concurrent workers (default: 4, max: 10)
	RateLimit  float64          // Page requests per second (default: 2)
}

// BulkFetchOptsFromConfig maps the [tasks] section onto [BulkFetchOpts].
func BulkFetchOptsFromConfig(cfg shared.TasksConfig) BulkFetchOpts {
	return BulkFetchOpts{NumWorkers: cfg.Workers, RateLimit: cfg.RateLimit}
}

func (o *BulkFetchOpts) defaults() {
	if o.NumWorkers <= 0 {
		o.NumWorkers = DefaultWorkers
	}
	if o.NumWorkers > MaxWorkers {
		o.NumWorkers = MaxWorkers
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.Format == "" {
		o.Format = formatter.JSON
	}
}

// BulkFetchResult summarises a bulk fetch. Results keep the order of the input.
type BulkFetchResult struct {
	Total        int           `json:"total"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	Saved        int           `json:"saved"`
	OutputDir    string        `json:"output_dir,omitempty"`
	ManifestPath string        `json:"-"`
	Results      []FetchResult `json:"results"`
}

// Songs returns the songs that were fetched successfully.
func (r *BulkFetchResult) Songs() []*models.Song {
	songs := make([]*models.Song, 0, r.Succeeded)
	for _, res := range r.Results {
		if res.Success() {
			songs = append(songs, res.Song)
		}
	}
	return songs
}

type fetchJob struct {
	index  int
	result models.SearchResult
}

type fetchOutcome struct {
	index int
	FetchResult
}

// fileNames hands out song file names that are unique within one run.
// A taken name gets a numeric suffix: top-ride.json, top-ride-2.json.
type fileNames struct {
	mu    sync.Mutex
	taken map[string]bool
}

func newFileNames() *fileNames {
	return &fileNames{taken: map[string]bool{ManifestName: true}}
}

func (n *fileNames) claim(name string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; n.taken[name]; i++ {
		name = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	n.taken[name] = true
	return name
}

// limitedSource waits on a shared limiter before every page request.
type limitedSource struct {
	source.Source
	limiter *rate.Limiter
}

func (s limitedSource) SongInfo(ctx context.Context, songURL string) (models.SongInfo, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.SongInfo{}, err
	}
	return s.Source.SongInfo(ctx, songURL)
}

func (s limitedSource) DownloadDetails(ctx context.Context, songURL string) ([]models.DownloadLink, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.Source.DownloadDetails(ctx, songURL)
}

// BulkFetch fetches the song page of every result concurrently with rate limiting and progress tracking.
//
// A failed page is recorded on its [FetchResult] and does not stop the others.
// When OutputDir is set each song is written there in Format and a manifest summarising the run is added.
// Fetched songs are saved to the engine's store, one at a time, after all workers finish.
// A cancelled context stops dispatching; the partial result is returned with the context error.
func (e *Engine) BulkFetch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	items []models.SearchResult,
	opts BulkFetchOpts,
) (*BulkFetchResult, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: source not initialized", shared.ErrInvalidConfig)
	}
	opts.defaults()

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	limited := &Engine{src: limitedSource{Source: e.src, limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1)}}

	jobs := make(chan fetchJob, len(items))
	outcomes := make(chan fetchOutcome, len(items))
	names := newFileNames()

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go limited.fetchWorker(ctx, &wg, jobs, outcomes, names, opts)
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			case jobs <- fetchJob{index: i, result: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	e.sendProgress(prog, fetchingUpdate(len(items)))

	ordered := make([]*FetchResult, len(items))
	completed := 0
	for out := range outcomes {
		completed++
		res := out.FetchResult
		ordered[out.index] = &res

		if res.Success() {
			e.sendProgress(prog, fetchCompletedUpdate(completed, len(items), res.Song))
		} else {
			e.sendProgress(prog, fetchFailedUpdate(completed, len(items), res.Result, res.Error))
		}
	}

	result := &BulkFetchResult{
		Total:     len(items),
		OutputDir: opts.OutputDir,
		Results:   make([]FetchResult, 0, completed),
	}
	for _, res := range ordered {
		if res != nil {
			result.Results = append(result.Results, *res)
		}
	}

	e.saveSongs(ctx, prog, result)

	for _, res := range result.Results {
		if res.Success() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	if opts.OutputDir != "" {
		manifestPath := filepath.Join(opts.OutputDir, ManifestName)
		if err := formatter.WriteManifest(result, manifestPath); err != nil {
			return result, fmt.Errorf("fetch completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = manifestPath
		e.sendProgress(prog, manifestUpdate(manifestPath))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// fetchWorker is a worker goroutine that fetches song pages from the jobs channel.
func (e *Engine) fetchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan fetchJob,
	outcomes chan<- fetchOutcome,
	names *fileNames,
	opts BulkFetchOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		outcomes <- fetchOutcome{index: job.index, FetchResult: e.fetchOne(ctx, job.result, names, opts)}
	}
}

func (e *Engine) fetchOne(ctx context.Context, r models.SearchResult, names *fileNames, opts BulkFetchOpts) FetchResult {
	res := FetchResult{Result: r}

	song, err := e.Fetch(ctx, r.URL)
	if err != nil {
		res.fail(err)
		return res
	}
	res.Song = song

	if opts.OutputDir == "" {
		return res
	}

	path := filepath.Join(opts.OutputDir, names.claim(formatter.SongFilename(song, opts.Format)))
	if err := formatter.WriteSongFile(song, opts.Format, path); err != nil {
		res.fail(err)
		return res
	}
	res.File = path
	return res
}

// saveSongs upserts every fetched song into the store; a failed save marks its result failed.
func (e *Engine) saveSongs(ctx context.Context, prog chan<- ProgressUpdate, result *BulkFetchResult) {
	if e.store == nil {
		return
	}

	total := 0
	for _, res := range result.Results {
		if res.Success() {
			total++
		}
	}

	for i := range result.Results {
		res := &result.Results[i]
		if !res.Success() {
			continue
		}
		if err := e.store.Upsert(ctx, res.Song); err != nil {
			res.fail(fmt.Errorf("save failed: %w", err))
			continue
		}
		result.Saved++
		e.sendProgress(prog, savedUpdate(result.Saved, total))
	}
}
