// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
)

// MockSource is a test double for [source.Source] backed by maps keyed on song url.
//
// Urls listed in Errs fail with that error for both DownloadDetails and SongInfo.
type MockSource struct {
	Results []models.SearchResult
	Links   map[string][]models.DownloadLink
	Infos   map[string]models.SongInfo
	Errs    map[string]error

	mu    sync.Mutex
	calls map[string]int
}

// NewMockSource returns a source whose search yields results.
func NewMockSource(results ...models.SearchResult) *MockSource {
	return &MockSource{
		Results: results,
		Links:   make(map[string][]models.DownloadLink),
		Infos:   make(map[string]models.SongInfo),
		Errs:    make(map[string]error),
	}
}

// AddSong registers the page data served for url.
func (m *MockSource) AddSong(url string, info models.SongInfo, links ...models.DownloadLink) {
	m.Infos[url] = info
	m.Links[url] = links
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Search(ctx context.Context, query string, max int) ([]models.SearchResult, error) {
	m.record("search")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 || max > len(m.Results) {
		max = len(m.Results)
	}
	return m.Results[:max], nil
}

func (m *MockSource) DownloadDetails(ctx context.Context, songURL string) ([]models.DownloadLink, error) {
	m.record("links:" + songURL)
	if err := m.Errs[songURL]; err != nil {
		return nil, err
	}
	links, ok := m.Links[songURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, songURL)
	}
	return links, nil
}

func (m *MockSource) SongInfo(ctx context.Context, songURL string) (models.SongInfo, error) {
	m.record("info:" + songURL)
	if err := m.Errs[songURL]; err != nil {
		return models.SongInfo{}, err
	}
	info, ok := m.Infos[songURL]
	if !ok {
		return models.SongInfo{}, fmt.Errorf("%w: %s", shared.ErrNotFound, songURL)
	}
	return info, nil
}

// Calls returns how often the named call was made ("search", "links:<url>", "info:<url>").
func (m *MockSource) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockSource) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.response != nil {
		m.response.Request = req
	}
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
