package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/tasks"
	th "github.com/desertthunder/musicutil/internal/testing"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	songs []*models.Song
}

func (s *memStore) Upsert(ctx context.Context, song *models.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.songs = append(s.songs, song)
	return nil
}

func testSource() *th.MockSource {
	src := th.NewMockSource(
		models.SearchResult{Song: "Hello", Artist: "Adele", URL: "https://example.test/hello.html"},
		models.SearchResult{Song: "Broken", Artist: "Nobody", URL: "https://example.test/broken.html"},
	)
	src.AddSong("https://example.test/hello.html",
		models.SongInfo{Name: "Hello", Artist: "Adele", Album: "25", Year: "2015"},
		models.DownloadLink{Quality: models.MP3128, URL: "https://dl.test/128.mp3", Size: "3 MB"},
		models.DownloadLink{Quality: models.Lossless, URL: "https://dl.test/hello.flac", Size: "30 MB"},
	)
	src.Errs["https://example.test/broken.html"] = errors.New("boom")
	return src
}

func newTestModel(store tasks.SongStore) *Model {
	engine := tasks.NewEngine(testSource(), store)
	return NewModel(context.Background(), engine, "hello", 10, tasks.BulkFetchOpts{NumWorkers: 2, RateLimit: 1000})
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// run executes cmd and feeds its message back into m.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := m.Update(cmd())
	return next
}

func loaded(t *testing.T, store tasks.SongStore) *Model {
	t.Helper()
	m := newTestModel(store)
	require.Contains(t, m.View(), `Searching for "hello"`)
	run(t, m, m.Init())
	require.True(t, m.loaded)
	require.Len(t, m.results, 2)
	return m
}

func TestResultList(t *testing.T) {
	m := loaded(t, nil)
	require.Equal(t, ResultListView, m.view)
	require.Contains(t, m.View(), "Hello")

	t.Run("quit", func(t *testing.T) {
		_, cmd := m.Update(keyRune('q'))
		require.NotNil(t, cmd)
		require.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestSearchError(t *testing.T) {
	m := newTestModel(nil)
	_, cmd := m.Update(resultsFetchedMsg(nil, errors.New("offline")))
	require.NotNil(t, cmd)
	require.EqualError(t, m.Err(), "offline")
	require.Contains(t, m.View(), "offline")
}

func TestSongView(t *testing.T) {
	m := loaded(t, &memStore{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	require.Equal(t, SongView, m.view)
	require.Equal(t, "Hello - Adele", m.Song().String())

	view := m.View()
	require.Contains(t, view, "Hello - Adele")
	require.Contains(t, view, "2015")

	t.Run("save", func(t *testing.T) {
		_, cmd := m.Update(keyRune('s'))
		run(t, m, cmd)
		require.Contains(t, m.status, "Saved to library")
	})

	t.Run("choose best link", func(t *testing.T) {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.IsType(t, tea.QuitMsg{}, cmd())

		link, ok := m.Chosen()
		require.True(t, ok)
		require.Equal(t, models.Lossless, link.Quality)
	})

	t.Run("back", func(t *testing.T) {
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		require.Equal(t, ResultListView, m.view)
	})
}

func TestSongViewSaveWithoutLibrary(t *testing.T) {
	m := loaded(t, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)

	_, cmd = m.Update(keyRune('s'))
	run(t, m, cmd)
	require.Contains(t, m.status, "Save failed")
}

func TestSongFetchError(t *testing.T) {
	m := loaded(t, nil)
	m.Update(songFetchedMsg(nil, errors.New("gone")))
	require.Equal(t, ResultListView, m.view)
	require.Contains(t, m.View(), "gone")
}

func TestBulkFetch(t *testing.T) {
	store := &memStore{}
	m := loaded(t, store)

	_, cmd := m.Update(keyRune('a'))
	require.Equal(t, FetchView, m.view)

	for range 20 {
		if m.view != FetchView {
			break
		}
		require.Contains(t, m.View(), "Fetching 2 songs")
		cmd = run(t, m, cmd)
	}

	require.Equal(t, SummaryView, m.view)
	require.NoError(t, m.bulkErr)
	require.Equal(t, 1, m.bulk.Succeeded)
	require.Equal(t, 1, m.bulk.Failed)
	require.Len(t, store.songs, 1)

	view := m.View()
	require.Contains(t, view, "Fetched: 1/2")
	require.Contains(t, view, "Broken - Nobody")

	m.Update(keyRune('r'))
	require.Equal(t, ResultListView, m.view)
}

func TestQualityStyle(t *testing.T) {
	for _, q := range models.Qualities() {
		require.True(t, strings.Contains(QualityStyle(q).Render(q.String()), q.String()))
	}
	require.Equal(t, styles.err, QualityStyle(models.QualityUnknown))
}
