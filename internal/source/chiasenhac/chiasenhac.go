// Package chiasenhac scrapes chiasenhac.vn, a Vietnamese music site.
//
// The site has changed its markup more than once; every scraper understands
// both the current tabbed layout and the older table layout. Search results
// come ten to a page and are fetched page by page until the requested number
// is reached.
package chiasenhac

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicutil/internal/cache"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
	"golang.org/x/text/unicode/norm"
)

const (
	Name                = "chiasenhac_vn"
	DisplayName         = "chiasenhac.vn"
	Prefix              = "http://chiasenhac.vn/"
	DefaultSearchURL    = "https://chiasenhac.vn/tim-kiem"
	MaxSearchPageResult = 10
	DefaultMaxSearch    = MaxSearchPageResult

	m4a32Label = "M4A 32kbps"
)

// Headers are sent with every request. Host and Accept-Encoding are left to
// the HTTP client so gzip bodies are decoded transparently.
var Headers = map[string]string{
	"Connection":      "keep-alive",
	"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/66.0.3359.181 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language": "en-IN,en-GB;q=0.9,en-US;q=0.8,en;q=0.7",
}

func init() {
	source.Register(Name, func(opts source.Options) (source.Source, error) {
		return New(opts)
	})
}

// Client scrapes chiasenhac.vn through a [source.Session].
type Client struct {
	session   *source.Session
	prefix    string
	logger    *log.Logger
	searchMem *cache.Memo[string]

	mu        sync.Mutex
	searchURL string
}

// New builds a client. An empty opts.Prefix targets the live site.
func New(opts source.Options) (*Client, error) {
	if opts.Prefix == "" {
		opts.Prefix = Prefix
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	session, err := source.NewSession(opts, Headers)
	if err != nil {
		return nil, err
	}

	c := &Client{
		session:   session,
		prefix:    opts.Prefix,
		logger:    shared.WithLogger(opts.Logger, "source", Name),
		searchURL: DefaultSearchURL,
	}

	c.searchMem = cache.Constant("search_url", c.fetchSearchURL, cache.Options{
		Dir:    opts.CacheDir,
		Expire: opts.CacheExpire,
		Fs:     opts.CacheFs,
		Logger: c.logger,
	})
	return c, nil
}

// Name returns the registry name.
func (c *Client) Name() string { return Name }

// Session exposes the underlying HTTP session.
func (c *Client) Session() *source.Session { return c.session }

// SearchURL returns the search endpoint advertised by the home page,
// memoized on disk.
func (c *Client) SearchURL(ctx context.Context) (string, error) {
	return c.searchMem.Get(ctx)
}

func (c *Client) fetchSearchURL(ctx context.Context) (string, error) {
	res, err := c.session.Do(ctx, source.Request{URL: c.prefix})
	if err != nil {
		return "", err
	}

	doc, err := res.Document()
	if err != nil {
		return "", err
	}

	action, err := ScrapeSearchURL(doc)
	if err != nil {
		return "", err
	}
	return resolve(res.URL, action), nil
}

// refreshSearchURL swaps in the advertised search URL, keeping the current one on failure.
func (c *Client) refreshSearchURL(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u, err := c.SearchURL(ctx); err != nil {
		c.logger.Debug("keeping search url", "url", c.searchURL, "error", err)
	} else if u != "" {
		c.searchURL = u
	}
	return c.searchURL
}

// Search returns up to max results for query, in page order. max <= 0 means [DefaultMaxSearch].
func (c *Client) Search(ctx context.Context, query string, max int) ([]models.SearchResult, error) {
	var results []models.SearchResult
	for r, err := range c.SearchSeq(ctx, query, max) {
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// SearchSeq is the lazy form of [Client.Search]: a page is only fetched once
// the previous one has been consumed. Iteration stops at the first error or
// at a page without results.
func (c *Client) SearchSeq(ctx context.Context, query string, max int) iter.Seq2[models.SearchResult, error] {
	if max <= 0 {
		max = DefaultMaxSearch
	}
	query = norm.NFC.String(strings.TrimSpace(query))

	return func(yield func(models.SearchResult, error) bool) {
		if query == "" {
			yield(models.SearchResult{}, fmt.Errorf("%w: empty query", shared.ErrMissingArgument))
			return
		}

		searchURL := c.refreshSearchURL(ctx)
		pages, rest := max/MaxSearchPageResult, max%MaxSearchPageResult
		if rest > 0 {
			pages++
		}

		for page := 1; page <= pages; page++ {
			limit := MaxSearchPageResult
			if page == pages && rest > 0 {
				limit = rest
			}

			results, err := c.searchPage(ctx, searchURL, query, page, limit)
			if err != nil {
				yield(models.SearchResult{}, err)
				return
			}

			for _, r := range results {
				if !yield(r, nil) {
					return
				}
			}

			if len(results) == 0 {
				return
			}
		}
	}
}

func (c *Client) searchPage(ctx context.Context, searchURL, query string, page, limit int) ([]models.SearchResult, error) {
	params := url.Values{"q": {query}, "page_music": {strconv.Itoa(page)}}
	res, err := c.session.Do(ctx, source.Request{URL: searchURL, Params: params})
	if err != nil {
		return nil, err
	}

	doc, err := res.Document()
	if err != nil {
		return nil, err
	}

	results := ScrapeSearch(doc, limit)
	for i := range results {
		results[i].URL = resolve(res.URL, results[i].URL)
	}

	c.logger.Debug("search page", "query", query, "page", page, "results", len(results))
	return results, nil
}

// DownloadDetails lists the download links on the song page at songURL.
//
// Pages in the older layout keep their links on a separate
// <song>_download.html page, which is tried when the song page has none.
func (c *Client) DownloadDetails(ctx context.Context, songURL string) ([]models.DownloadLink, error) {
	links, err := c.downloadLinks(ctx, songURL)
	if err != nil || len(links) > 0 {
		return links, err
	}

	legacy, ok := LegacyDownloadPage(songURL)
	if !ok {
		return links, nil
	}

	links, err = c.downloadLinks(ctx, legacy)
	if err != nil {
		c.logger.Debug("no legacy download page", "url", legacy, "error", err)
		return []models.DownloadLink{}, nil
	}
	return links, nil
}

func (c *Client) downloadLinks(ctx context.Context, pageURL string) ([]models.DownloadLink, error) {
	res, err := c.session.Do(ctx, source.Request{URL: pageURL})
	if err != nil {
		return nil, err
	}

	doc, err := res.Document()
	if err != nil {
		return nil, err
	}

	links := ScrapeDownloadDetails(doc)
	for i := range links {
		links[i].URL = resolve(res.URL, links[i].URL)
	}
	return links, nil
}

// SongInfo scrapes name, artist, album, year and lyrics from the song page at songURL.
func (c *Client) SongInfo(ctx context.Context, songURL string) (models.SongInfo, error) {
	res, err := c.session.Do(ctx, source.Request{URL: songURL})
	if err != nil {
		return models.SongInfo{}, err
	}

	doc, err := res.Document()
	if err != nil {
		return models.SongInfo{}, err
	}

	info, err := ScrapeSongInfo(doc)
	if err != nil {
		return info, fmt.Errorf("%s: %w", songURL, err)
	}
	return info, nil
}

// Song combines [Client.SongInfo] and [Client.DownloadDetails].
func (c *Client) Song(ctx context.Context, songURL string) (*models.Song, error) {
	info, err := c.SongInfo(ctx, songURL)
	if err != nil {
		return nil, err
	}

	links, err := c.DownloadDetails(ctx, songURL)
	if err != nil {
		return nil, err
	}
	return models.NewSong(Name, c.session.Resolve(songURL), info, links), nil
}

// RefreshDownloadURL adjusts the numeric path segment of a download URL,
//
//	http://data04.chiasenhac.com/downloads/1234/5/1233456-abcd/song.mp3
//	                                       ^^^^
//
// which the site bumps over time. The number is decremented only when
// increment is false and it is above zero; otherwise it is incremented.
func RefreshDownloadURL(downloadURL string, increment bool) (string, error) {
	parts := strings.Split(downloadURL, "/")
	if len(parts) < 6 {
		return "", fmt.Errorf("%w: %s", shared.ErrInvalidDownload, downloadURL)
	}

	n, err := strconv.Atoi(parts[5])
	if err != nil {
		return "", fmt.Errorf("%w: segment %q is not a number", shared.ErrInvalidDownload, parts[5])
	}

	if !increment && n > 0 {
		n--
	} else {
		n++
	}
	parts[5] = strconv.Itoa(n)
	return strings.Join(parts, "/"), nil
}

// LegacyDownloadPage maps song.html to song_download.html.
func LegacyDownloadPage(songURL string) (string, bool) {
	base, ok := strings.CutSuffix(songURL, ".html")
	if !ok || strings.HasSuffix(base, "_download") {
		return "", false
	}
	return base + "_download.html", true
}

// resolve makes href absolute against the page it was found on.
func resolve(page, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(page)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
