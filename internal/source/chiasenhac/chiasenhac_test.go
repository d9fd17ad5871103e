package chiasenhac

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/musicutil/internal/cache"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/source"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

type fakeSite struct {
	*httptest.Server

	mu      sync.Mutex
	home    int
	queries []string
	pages   []int
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	site := &fakeSite{}

	html := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, body)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.home++
		site.mu.Unlock()
		html(homePage)(w, r)
	})
	mux.HandleFunc("/tim-kiem", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page_music"))

		site.mu.Lock()
		site.queries = append(site.queries, r.URL.Query().Get("q"))
		site.pages = append(site.pages, page)
		site.mu.Unlock()

		switch page {
		case 1:
			html(searchPage(1, 10))(w, r)
		case 2:
			html(searchPage(11, 20))(w, r)
		case 3:
			html(searchPage(21, 23))(w, r)
		default:
			html(searchPage(1, 0))(w, r)
		}
	})
	mux.HandleFunc("/mp3/us-uk/hello.html", html(songPage))
	mux.HandleFunc("/mp3/legacy/hello.html", html(legacySongPage))
	mux.HandleFunc("/mp3/legacy/hello_download.html", html(legacyDownloadPage))
	mux.HandleFunc("/mp3/empty/nothing.html", html(`<html><body><p>Nothing here</p></body></html>`))
	mux.HandleFunc("/mp3/broken/song.html", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	site.Server = httptest.NewServer(mux)
	t.Cleanup(site.Close)
	return site
}

func (s *fakeSite) homeHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.home
}

func (s *fakeSite) requested() ([]string, []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...), append([]int(nil), s.pages...)
}

func newTestClient(t *testing.T, site *fakeSite, fs afero.Fs) *Client {
	t.Helper()
	c, err := New(source.Options{
		Prefix:   site.URL + "/",
		CacheDir: "/cache",
		CacheFs:  fs,
		Logger:   shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("splits max across pages", func(t *testing.T) {
		site := newFakeSite(t)
		c := newTestClient(t, site, afero.NewMemMapFs())

		results, err := c.Search(ctx, "adele", 15)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 15 {
			t.Fatalf("expected 15 results, got %d", len(results))
		}

		want := models.SearchResult{Song: "Song 15", Artist: "Artist 15", URL: site.URL + "/mp3/us-uk/song-15.html"}
		if diff := cmp.Diff(want, results[14]); diff != "" {
			t.Errorf("last result mismatch (-want +got):\n%s", diff)
		}
		if results[0].Song != "Song 1" {
			t.Errorf("results out of order: first is %q", results[0].Song)
		}

		_, pages := site.requested()
		if diff := cmp.Diff([]int{1, 2}, pages); diff != "" {
			t.Errorf("pages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stops on a short final page", func(t *testing.T) {
		site := newFakeSite(t)
		c := newTestClient(t, site, afero.NewMemMapFs())

		results, err := c.Search(ctx, "adele", 30)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 23 {
			t.Errorf("expected 23 results, got %d", len(results))
		}
	})

	t.Run("stops on an empty page", func(t *testing.T) {
		site := newFakeSite(t)
		c := newTestClient(t, site, afero.NewMemMapFs())

		results, err := c.Search(ctx, "adele", 50)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 23 {
			t.Errorf("expected 23 results, got %d", len(results))
		}

		_, pages := site.requested()
		if diff := cmp.Diff([]int{1, 2, 3, 4}, pages); diff != "" {
			t.Errorf("pages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("default max is one page", func(t *testing.T) {
		site := newFakeSite(t)
		c := newTestClient(t, site, afero.NewMemMapFs())

		results, err := c.Search(ctx, "adele", 0)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != DefaultMaxSearch {
			t.Errorf("expected %d results, got %d", DefaultMaxSearch, len(results))
		}
	})

	t.Run("query is trimmed and composed", func(t *testing.T) {
		site := newFakeSite(t)
		c := newTestClient(t, site, afero.NewMemMapFs())

		if _, err := c.Search(ctx, "  Ha\u0300 No\u0323\u0302i ", 3); err != nil {
			t.Fatalf("Search() error = %v", err)
		}

		queries, _ := site.requested()
		if len(queries) != 1 || queries[0] != "H\u00e0 N\u1ed9i" {
			t.Errorf("unexpected queries %q", queries)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		site := newFakeSite(t)
		c := newTestClient(t, site, afero.NewMemMapFs())

		_, err := c.Search(ctx, "   ", 10)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if queries, _ := site.requested(); len(queries) != 0 {
			t.Errorf("no request expected, got %q", queries)
		}
	})

	t.Run("early break fetches no further pages", func(t *testing.T) {
		site := newFakeSite(t)
		c := newTestClient(t, site, afero.NewMemMapFs())

		n := 0
		for _, err := range c.SearchSeq(ctx, "adele", 30) {
			if err != nil {
				t.Fatalf("SearchSeq() error = %v", err)
			}
			if n++; n == 4 {
				break
			}
		}

		_, pages := site.requested()
		if diff := cmp.Diff([]int{1}, pages); diff != "" {
			t.Errorf("pages mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestSearchURL(t *testing.T) {
	ctx := context.Background()
	site := newFakeSite(t)
	fs := afero.NewMemMapFs()

	for range 2 {
		c := newTestClient(t, site, fs)
		got, err := c.SearchURL(ctx)
		if err != nil {
			t.Fatalf("SearchURL() error = %v", err)
		}
		if want := site.URL + "/tim-kiem"; got != want {
			t.Errorf("SearchURL() = %q, want %q", got, want)
		}
	}

	if hits := site.homeHits(); hits != 1 {
		t.Errorf("expected one home page fetch, got %d", hits)
	}

	entry, err := cache.Read[string](fs, cache.DefaultPath("/cache", "search_url"))
	if err != nil {
		t.Fatalf("cache.Read() error = %v", err)
	}
	if entry.Content != site.URL+"/tim-kiem" {
		t.Errorf("cached content = %q", entry.Content)
	}
}

func TestSearchURLFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>maintenance</p></body></html>`)
	}))
	defer srv.Close()

	c, err := New(source.Options{
		Prefix:   srv.URL + "/",
		CacheDir: "/cache",
		CacheFs:  afero.NewMemMapFs(),
		Logger:   shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.SearchURL(context.Background()); !errors.Is(err, ErrNoSearchForm) {
		t.Errorf("expected ErrNoSearchForm, got %v", err)
	}
	if got := c.refreshSearchURL(context.Background()); got != DefaultSearchURL {
		t.Errorf("refreshSearchURL() = %q, want %q", got, DefaultSearchURL)
	}
}

func TestDownloadDetails(t *testing.T) {
	ctx := context.Background()
	site := newFakeSite(t)
	c := newTestClient(t, site, afero.NewMemMapFs())

	t.Run("current layout", func(t *testing.T) {
		links, err := c.DownloadDetails(ctx, "mp3/us-uk/hello.html")
		if err != nil {
			t.Fatalf("DownloadDetails() error = %v", err)
		}

		want := []models.DownloadLink{
			{Quality: models.MP3128, URL: "https://data.chiasenhac.com/down2/2150/1/2149236-f95a7bf6/128/Hello.mp3", Size: "3.93 MB"},
			{Quality: models.MP3320, URL: "https://data.chiasenhac.com/down2/2150/1/2149236-f95a7bf6/320/Hello.mp3", Size: "9.83 MB"},
			{Quality: models.Lossless, URL: "https://data.chiasenhac.com/down2/2150/1/2149236-f95a7bf6/flac/Hello.flac", Size: "30.12 MB"},
			{Quality: models.M4A32, URL: site.URL + "/down2/2150/1/2149236-f95a7bf6/32/Hello.m4a", Size: "1.03 MB"},
			{Quality: models.QualityUnknown, URL: "", Size: "45 MB"},
		}
		if diff := cmp.Diff(want, links); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("legacy download page", func(t *testing.T) {
		links, err := c.DownloadDetails(ctx, site.URL+"/mp3/legacy/hello.html")
		if err != nil {
			t.Fatalf("DownloadDetails() error = %v", err)
		}

		want := []models.DownloadLink{
			{Quality: models.MP3320, URL: "http://data04.chiasenhac.com/downloads/1234/5/1233456-abcd/320/Hello.mp3", Size: "8.10 MB"},
			{Quality: models.M4A32, URL: "http://data04.chiasenhac.com/downloads/1234/5/1233456-abcd/32/Hello.m4a", Size: "1.20 MB"},
		}
		if diff := cmp.Diff(want, links); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no links anywhere", func(t *testing.T) {
		links, err := c.DownloadDetails(ctx, "mp3/empty/nothing.html")
		if err != nil {
			t.Fatalf("DownloadDetails() error = %v", err)
		}
		if links == nil || len(links) != 0 {
			t.Errorf("expected an empty list, got %#v", links)
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := c.DownloadDetails(ctx, "mp3/broken/song.html")
		var serr *source.Error
		if !errors.As(err, &serr) || serr.HTTPStatus != http.StatusInternalServerError {
			t.Errorf("expected *source.Error with 500, got %v", err)
		}
	})
}

func TestSongInfo(t *testing.T) {
	ctx := context.Background()
	site := newFakeSite(t)
	c := newTestClient(t, site, afero.NewMemMapFs())

	tt := []struct {
		name string
		url  string
		want models.SongInfo
	}{
		{
			name: "current layout",
			url:  "mp3/us-uk/hello.html",
			want: models.SongInfo{
				Name:   "Hello",
				Artist: "Adele",
				Album:  "25",
				Year:   "2015",
				Lyrics: []string{
					"Hello, it's me",
					"I was wondering if after all these years you'd like to meet",
					"To go over everything",
				},
			},
		},
		{
			name: "legacy layout",
			url:  "mp3/legacy/hello.html",
			want: models.SongInfo{
				Name:   "Hello",
				Artist: "Adele",
				Album:  "25",
				Year:   "2015",
				Lyrics: []string{"Hello, it's me", "I was wondering"},
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.SongInfo(ctx, tc.url)
			if err != nil {
				t.Fatalf("SongInfo() error = %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("SongInfo() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("missing markup", func(t *testing.T) {
		_, err := c.SongInfo(ctx, "mp3/empty/nothing.html")
		if !errors.Is(err, ErrNoSongInfo) || !errors.Is(err, shared.ErrMarkupNotFound) {
			t.Errorf("expected ErrNoSongInfo, got %v", err)
		}
		if !strings.Contains(err.Error(), "mp3/empty/nothing.html") {
			t.Errorf("error should name the page: %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := c.SongInfo(ctx, "mp3/broken/song.html")
		var serr *source.Error
		if !errors.As(err, &serr) {
			t.Fatalf("expected *source.Error, got %T %v", err, err)
		}
		if serr.HTTPStatus != http.StatusInternalServerError {
			t.Errorf("HTTPStatus = %d", serr.HTTPStatus)
		}
	})
}

func TestSong(t *testing.T) {
	site := newFakeSite(t)
	c := newTestClient(t, site, afero.NewMemMapFs())

	song, err := c.Song(context.Background(), "mp3/us-uk/hello.html")
	if err != nil {
		t.Fatalf("Song() error = %v", err)
	}

	if song.URL != site.URL+"/mp3/us-uk/hello.html" || song.Source != Name {
		t.Errorf("unexpected song identity %q %q", song.URL, song.Source)
	}
	if song.String() != "Hello - Adele" {
		t.Errorf("String() = %q", song.String())
	}

	want := []models.Quality{models.Lossless, models.MP3320, models.MP3128, models.M4A32}
	if diff := cmp.Diff(want, song.File.Qualities()); diff != "" {
		t.Errorf("qualities mismatch (-want +got):\n%s", diff)
	}

	best, err := models.BestLink(song.File.Links(), models.PreferBest)
	if err != nil || best.Size != "30.12 MB" {
		t.Errorf("BestLink() = %+v, %v", best, err)
	}
}

func TestRefreshDownloadURL(t *testing.T) {
	const base = "http://data04.chiasenhac.com/downloads/"

	tt := []struct {
		name      string
		url       string
		increment bool
		want      string
		wantErr   bool
	}{
		{name: "decrement", url: base + "1234/5/a/song.mp3", want: base + "1233/5/a/song.mp3"},
		{name: "increment", url: base + "1234/5/a/song.mp3", increment: true, want: base + "1235/5/a/song.mp3"},
		{name: "zero is incremented", url: base + "0/5/a/song.mp3", want: base + "1/5/a/song.mp3"},
		{name: "not a number", url: base + "abc/5/a/song.mp3", wantErr: true},
		{name: "too short", url: "http://data04.chiasenhac.com/song.mp3", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RefreshDownloadURL(tc.url, tc.increment)
			if tc.wantErr {
				if !errors.Is(err, shared.ErrInvalidDownload) {
					t.Errorf("expected ErrInvalidDownload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RefreshDownloadURL() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("RefreshDownloadURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLegacyDownloadPage(t *testing.T) {
	got, ok := LegacyDownloadPage("http://chiasenhac.vn/mp3/us-uk/hello~adele.html")
	if !ok || got != "http://chiasenhac.vn/mp3/us-uk/hello~adele_download.html" {
		t.Errorf("LegacyDownloadPage() = %q, %v", got, ok)
	}

	for _, u := range []string{"http://chiasenhac.vn/mp3/a_download.html", "http://chiasenhac.vn/mp3/a"} {
		if _, ok := LegacyDownloadPage(u); ok {
			t.Errorf("LegacyDownloadPage(%q) should not map", u)
		}
	}
}

func TestRegistered(t *testing.T) {
	src, err := source.New("default", source.Options{
		CacheFs: afero.NewMemMapFs(),
		Logger:  shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("source.New() error = %v", err)
	}
	if _, ok := src.(*Client); !ok || src.Name() != Name {
		t.Errorf("expected *Client named %s, got %T", Name, src)
	}
}

func mustDocument(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestScrapeSearch(t *testing.T) {
	t.Run("legacy table", func(t *testing.T) {
		got := ScrapeSearch(mustDocument(t, legacySearchPage), 0)
		want := []models.SearchResult{
			{Song: "Hello", Artist: "Adele", URL: "http://chiasenhac.vn/mp3/us-uk/hello~adele.html"},
			{Song: "Skyfall", Artist: "Adele", URL: "http://chiasenhac.vn/mp3/us-uk/skyfall~adele.html"},
			{Song: "Someone Like You", Artist: "Adele", URL: "http://chiasenhac.vn/mp3/us-uk/someone~adele.html"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ScrapeSearch() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("max is honoured", func(t *testing.T) {
		for _, max := range []int{1, 2, 10} {
			got := ScrapeSearch(mustDocument(t, searchPage(1, 10)), max)
			if len(got) != max {
				t.Errorf("ScrapeSearch(max=%d) returned %d", max, len(got))
			}
		}
		if got := ScrapeSearch(mustDocument(t, legacySearchPage), 2); len(got) != 2 {
			t.Errorf("legacy ScrapeSearch(max=2) returned %d", len(got))
		}
	})

	t.Run("no results", func(t *testing.T) {
		if got := ScrapeSearch(mustDocument(t, `<html><body></body></html>`), 5); len(got) != 0 {
			t.Errorf("expected nothing, got %v", got)
		}
	})
}

func TestScrapeSearchURL(t *testing.T) {
	got, err := ScrapeSearchURL(mustDocument(t, homePage))
	if err != nil || got != "/tim-kiem" {
		t.Errorf("ScrapeSearchURL() = %q, %v", got, err)
	}

	if _, err := ScrapeSearchURL(mustDocument(t, `<form name="other" action="/x"></form>`)); !errors.Is(err, ErrNoSearchForm) {
		t.Errorf("expected ErrNoSearchForm, got %v", err)
	}
}

func TestParseDownloadTexts(t *testing.T) {
	tt := []struct {
		texts []string
		q     models.Quality
		size  string
	}{
		{texts: []string{"Link tải", "320kbps", "9.83 MB"}, q: models.MP3320, size: "9.83 MB"},
		{texts: []string{"M4A 32kbps", "1.03 MB"}, q: models.M4A32, size: "1.03 MB"},
		{texts: []string{"Mobile: M4A 32kbps - 900 KB"}, q: models.M4A32, size: "900 KB"},
		{texts: []string{"500kbps", "12,5 MB", "extra"}, q: models.M4A500, size: "12,5 MB"},
		{texts: []string{"Video 720p"}, q: models.QualityUnknown, size: ""},
	}

	for _, tc := range tt {
		q, size := parseDownloadTexts(tc.texts)
		if q != tc.q || size != tc.size {
			t.Errorf("parseDownloadTexts(%q) = %v, %q; want %v, %q", tc.texts, q, size, tc.q, tc.size)
		}
	}
}
