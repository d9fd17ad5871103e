package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/google/go-cmp/cmp"
)

func newTestSession(t *testing.T, srv *httptest.Server, opts Options) *Session {
	t.Helper()
	opts.Prefix = srv.URL + "/"
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	s, err := NewSession(opts, map[string]string{"User-Agent": "musicutil-test", "Accept-Language": "en"})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "  %s|%s|%s|%s|%s|%s  ", r.Method, r.URL.Query().Get("q"), r.Header.Get("User-Agent"),
			r.Header.Get("Accept-Language"), r.Header.Get("Content-Type"), body)
	})
	mux.HandleFunc("/null", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "null")
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"accept": r.Header.Get("Accept"), "n": 3})
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reason", "gone")
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `<html><body><div id="x"><h5>Title</h5></div></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Run("relative urls use the prefix and shared headers", func(t *testing.T) {
		s := newTestSession(t, srv, Options{})
		got, err := s.Get(ctx, "echo", url.Values{"q": {"hello world"}})
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if want := "GET|hello world|musicutil-test|en||"; got != want {
			t.Errorf("Get() = %q, want %q", got, want)
		}
	})

	t.Run("cloudflare bypass wraps a client without transport", func(t *testing.T) {
		s := newTestSession(t, srv, Options{HTTPClient: &http.Client{}, BypassCloudflare: true})
		if s.client.GetClient().Transport == nil {
			t.Fatal("expected a transport")
		}
		got, err := s.Get(ctx, "page", nil)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !strings.Contains(got, "Title") {
			t.Errorf("Get() = %q", got)
		}
	})

	t.Run("absolute urls are untouched", func(t *testing.T) {
		s := newTestSession(t, srv, Options{})
		s.prefix = "http://unreachable.invalid/"
		if _, err := s.Get(ctx, srv.URL+"/echo", nil); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	})

	t.Run("option headers override defaults", func(t *testing.T) {
		s := newTestSession(t, srv, Options{Headers: map[string]string{"User-Agent": "custom"}})
		got, err := s.Get(ctx, "echo", nil)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !strings.Contains(got, "|custom|") {
			t.Errorf("expected custom user agent, got %q", got)
		}
	})

	t.Run("payloads are sent as json", func(t *testing.T) {
		s := newTestSession(t, srv, Options{})
		for _, send := range []func(context.Context, string, url.Values, any) (string, error){s.Post, s.Put, s.Delete} {
			got, err := send(ctx, "echo", nil, map[string]string{"song": "hello"})
			if err != nil {
				t.Fatalf("send error = %v", err)
			}
			if !strings.HasSuffix(got, `|application/json|{"song":"hello"}`) {
				t.Errorf("unexpected echo %q", got)
			}
		}
	})

	t.Run("null and empty bodies", func(t *testing.T) {
		s := newTestSession(t, srv, Options{})
		got, err := s.Get(ctx, "null", nil)
		if err != nil || got != "" {
			t.Errorf("Get(null) = %q, %v", got, err)
		}

		res, err := s.Do(ctx, Request{URL: "null"})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if _, ok := res.Text(); ok {
			t.Error("null body should not be ok")
		}

		var out map[string]any
		ok, err := s.GetJSON(ctx, "null", nil, &out)
		if ok || err != nil {
			t.Errorf("GetJSON(null) = %v, %v", ok, err)
		}
	})

	t.Run("GetJSON", func(t *testing.T) {
		s := newTestSession(t, srv, Options{})
		var out struct {
			Accept string `json:"accept"`
			N      int    `json:"n"`
		}
		ok, err := s.GetJSON(ctx, "json", nil, &out)
		if err != nil || !ok {
			t.Fatalf("GetJSON() = %v, %v", ok, err)
		}
		if out.Accept != "application/json" || out.N != 3 {
			t.Errorf("unexpected decode %+v", out)
		}
	})

	t.Run("non 2xx is a typed error", func(t *testing.T) {
		s := newTestSession(t, srv, Options{})
		_, err := s.Get(ctx, "missing", nil)

		var serr *Error
		if !errors.As(err, &serr) {
			t.Fatalf("expected *Error, got %T %v", err, err)
		}
		if serr.HTTPStatus != http.StatusNotFound || serr.Code != -1 {
			t.Errorf("unexpected error fields %+v", serr)
		}
		if serr.Headers.Get("X-Reason") != "gone" {
			t.Errorf("headers not kept: %v", serr.Headers)
		}
		want := fmt.Sprintf("Http Status: 404, Code:-1 => %s/missing:\n Error Occured", srv.URL)
		if serr.Error() != want {
			t.Errorf("Error() = %q, want %q", serr.Error(), want)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected errors.Is ErrAPIRequest")
		}
	})

	t.Run("page cache", func(t *testing.T) {
		s := newTestSession(t, srv, Options{PageCacheSize: 4})
		before := hits.Load()

		for range 3 {
			doc, err := s.Document(ctx, "page", nil)
			if err != nil {
				t.Fatalf("Document() error = %v", err)
			}
			if doc.Find("#x h5").Text() != "Title" {
				t.Error("unexpected document")
			}
		}

		if got := hits.Load() - before; got != 1 {
			t.Errorf("expected one fetch, got %d", got)
		}
	})

	t.Run("trace logs requests", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		logger.SetLevel(log.DebugLevel)

		s := newTestSession(t, srv, Options{Trace: true, Logger: logger})
		if _, err := s.Get(ctx, "echo", nil); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !strings.Contains(buf.String(), "status=200") {
			t.Errorf("expected trace output, got %q", buf.String())
		}
	})
}

func TestRemoteFileSize(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		switch r.URL.Path {
		case "/song.mp3":
			w.Header().Set("Content-Length", "5242880")
		case "/gone.mp3":
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSession(t, srv, Options{})

	tt := []struct {
		name    string
		path    string
		unit    string
		want    float64
		wantErr error
	}{
		{name: "bytes", path: "/song.mp3", unit: "B", want: 5242880},
		{name: "megabytes", path: "/song.mp3", unit: "MB", want: 5},
		{name: "kilobytes", path: "/song.mp3", unit: "kb", want: 5120},
		{name: "not found", path: "/gone.mp3", unit: "B", wantErr: shared.ErrRemoteStatus},
		{name: "no content length", path: "/stream.mp3", unit: "MB", want: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.RemoteFileSize(ctx, srv.URL+tc.path, tc.unit)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RemoteFileSize() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("RemoteFileSize() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInnerTexts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="l">First line<br/>  <span>Second <b>bold</b></span><script>var x;</script>
		 Third</div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	sel := doc.Find("#l")
	if got := InnerTexts(sel); len(got) != 5 {
		t.Errorf("InnerTexts() = %q, want 5 nodes", got)
	}

	want := []string{"First line", "Second", "bold", "Third"}
	if diff := cmp.Diff(want, Lines(sel)); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}

	if got := Text(doc.Find("span")); got != "Second bold" {
		t.Errorf("Text() = %q", got)
	}
}

type stubSource struct{ name string }

func (s stubSource) Name() string { return s.name }
func (stubSource) Search(context.Context, string, int) ([]models.SearchResult, error) {
	return nil, nil
}
func (stubSource) DownloadDetails(context.Context, string) ([]models.DownloadLink, error) {
	return nil, nil
}
func (stubSource) SongInfo(context.Context, string) (models.SongInfo, error) {
	return models.SongInfo{}, nil
}

func TestRegistry(t *testing.T) {
	Register("stub_test", func(Options) (Source, error) { return stubSource{name: "stub_test"}, nil })

	src, err := New("stub_test", Options{})
	if err != nil || src.Name() != "stub_test" {
		t.Fatalf("New() = %v, %v", src, err)
	}

	_, err = New("nowhere", Options{})
	if !errors.Is(err, shared.ErrUnknownSource) || !strings.Contains(err.Error(), "No source named nowhere found.") {
		t.Errorf("unexpected error %v", err)
	}

	found := false
	for _, name := range Names() {
		found = found || name == "stub_test"
	}
	if !found {
		t.Errorf("Names() = %v", Names())
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register("stub_test", nil)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.Source.Proxy = "http://127.0.0.1:9"

	opts, err := OptionsFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("OptionsFromConfig() error = %v", err)
	}
	if opts.Proxy != cfg.Source.Proxy || opts.Timeout != cfg.Source.Timeout() || opts.PageCacheSize != 64 {
		t.Errorf("unexpected options %+v", opts)
	}

	cfg.Source.CurlFile = "/does/not/exist.sh"
	if _, err := OptionsFromConfig(cfg, nil); err == nil {
		t.Error("expected error for missing curl file")
	}
}
