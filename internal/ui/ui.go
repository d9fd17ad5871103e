package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResultListView ViewState = iota
	SongView
	FetchView
	SummaryView
)

var (
	_ list.Item = resultItem{}
	_ list.Item = linkItem{}
)

// resultItem wraps [models.SearchResult] to implement [list.Item].
type resultItem struct {
	result models.SearchResult
}

func (i resultItem) FilterValue() string { return i.result.Song + " " + i.result.Artist }
func (i resultItem) Title() string       { return i.result.Song }
func (i resultItem) Description() string { return i.result.Artist }

// linkItem wraps [models.DownloadLink] to implement [list.Item].
type linkItem struct {
	link models.DownloadLink
}

func (i linkItem) FilterValue() string { return i.link.Quality.String() }
func (i linkItem) Title() string {
	label := i.link.Quality.String()
	if label == "" {
		label = "unknown"
	}
	return QualityStyle(i.link.Quality).Render(label)
}
func (i linkItem) Description() string {
	if i.link.Size == "" {
		return i.link.URL
	}
	return fmt.Sprintf("%s • %s", i.link.Size, i.link.URL)
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.Engine
	query  string
	max    int
	opts   tasks.BulkFetchOpts

	width      int
	height     int
	resultList list.Model
	loaded     bool
	results    []models.SearchResult
	linkList   list.Model
	song       *models.Song
	chosen     *models.DownloadLink
	status     string

	progressChan chan tasks.ProgressUpdate
	bulkDone     chan Msg
	progress     tasks.ProgressUpdate
	bulk         *tasks.BulkFetchResult
	bulkErr      error

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a picker that searches engine's source for query when started.
func NewModel(ctx context.Context, engine *tasks.Engine, query string, max int, opts tasks.BulkFetchOpts) *Model {
	return &Model{
		ctx:    ctx,
		view:   ResultListView,
		engine: engine,
		query:  query,
		max:    max,
		opts:   opts,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Chosen returns the link picked with enter, if any.
func (m *Model) Chosen() (models.DownloadLink, bool) {
	if m.chosen == nil {
		return models.DownloadLink{}, false
	}
	return *m.chosen, true
}

// Song returns the last song opened in [SongView].
func (m *Model) Song() *models.Song { return m.song }

// Err returns the error that stopped the picker.
func (m *Model) Err() error { return m.err }

// Init initializes the TUI by running the search.
func (m *Model) Init() tea.Cmd {
	return m.search()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.loaded {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.song != nil {
			m.linkList.SetSize(msg.Width-4, msg.Height-14)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ResultListView:
			return m.handleResultListKeys(msg)
		case SongView:
			return m.handleSongKeys(msg)
		case FetchView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case SummaryView:
			return m.handleSummaryKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgResultsFetched:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.results = msg.data.([]models.SearchResult)
		items := make([]list.Item, len(m.results))
		for i, r := range m.results {
			items[i] = resultItem{result: r}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("Results for %q", m.query)
		m.resizeList(&m.resultList, 8)
		m.loaded = true
		return m, nil

	case MsgSongFetched:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Error: %v", msg.err))
			m.view = ResultListView
			return m, nil
		}
		m.song = msg.data.(*models.Song)
		links := m.song.File.Links()
		items := make([]list.Item, len(links))
		for i, l := range links {
			items[i] = linkItem{link: l}
		}
		m.linkList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.linkList.Title = "Downloads"
		m.linkList.SetShowStatusBar(false)
		m.resizeList(&m.linkList, 14)
		m.status = ""
		m.view = SongView
		return m, nil

	case MsgSongSaved:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Save failed: %v", msg.err))
		} else {
			m.status = styles.ok.Render("✓ Saved to library")
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgBulkComplete:
		m.bulk, _ = msg.data.(*tasks.BulkFetchResult)
		m.bulkErr = msg.err
		m.progressChan, m.bulkDone = nil, nil
		m.view = SummaryView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.loaded {
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	if m.resultList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.resultList.SelectedItem().(resultItem); ok {
			m.status = fmt.Sprintf("Fetching %s...", item.result)
			return m, m.fetchSong(item.result.URL)
		}
	case key.Matches(msg, m.keys.fetch):
		if len(m.results) > 0 {
			m.view = FetchView
			return m, m.startBulk()
		}
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleSongKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ResultListView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.save):
		return m, m.saveSong(m.song)
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.linkList.SelectedItem().(linkItem); ok {
			link := item.link
			m.chosen = &link
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.linkList, cmd = m.linkList.Update(msg)
	return m, cmd
}

func (m *Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = ResultListView
		m.bulk = nil
		m.bulkErr = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ResultListView:
		if !m.loaded {
			return m, nil
		}
		m.resultList, cmd = m.resultList.Update(msg)
	case SongView:
		m.linkList, cmd = m.linkList.Update(msg)
	}
	return m, cmd
}

// resizeList fits l to the window once its size is known, leaving margin rows for the surrounding text.
func (m *Model) resizeList(l *list.Model, margin int) {
	if m.width > 0 && m.height > margin {
		l.SetSize(m.width-4, m.height-margin)
	}
}

func (m *Model) search() tea.Cmd {
	return func() tea.Msg {
		results, err := m.engine.Source().Search(m.ctx, m.query, m.max)
		return resultsFetchedMsg(results, err)
	}
}

func (m *Model) fetchSong(songURL string) tea.Cmd {
	return func() tea.Msg {
		song, err := m.engine.Fetch(m.ctx, songURL)
		return songFetchedMsg(song, err)
	}
}

func (m *Model) saveSong(song *models.Song) tea.Cmd {
	return func() tea.Msg {
		return songSavedMsg(song, m.engine.Save(m.ctx, song))
	}
}

// startBulk runs the bulk fetch in the background; the result is published
// before the progress channel closes.
func (m *Model) startBulk() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress

	results := append([]models.SearchResult(nil), m.results...)
	go func() {
		result, err := m.engine.BulkFetch(m.ctx, progress, results, m.opts)
		done <- bulkCompleteMsg(result, err)
		close(progress)
	}()

	m.bulkDone = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.bulkDone
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ResultListView:
		return m.renderResultList()
	case SongView:
		return m.renderSong()
	case FetchView:
		return m.renderFetch()
	case SummaryView:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) renderResultList() string {
	if !m.loaded {
		return styles.help.Render(fmt.Sprintf("Searching for %q...", m.query))
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.fetch, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if m.status != "" {
		return fmt.Sprintf("%s\n%s\n\n%s", m.resultList.View(), m.status, helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderSong() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.song.String()))
	b.WriteString("\n")
	for _, row := range [][2]string{
		{"Album", m.song.Album},
		{"Year", m.song.Year},
		{"Page", m.song.URL},
	} {
		if row[1] != "" {
			fmt.Fprintf(&b, "%s %s\n", styles.label.Render(row[0]), row[1])
		}
	}
	if n := len(m.song.Lyrics); n > 0 {
		fmt.Fprintf(&b, "%s %d lines\n", styles.label.Render("Lyrics"), n)
	}
	b.WriteString("\n")

	if m.song.File.Len() == 0 {
		b.WriteString(styles.warn.Render("No download links on this page"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.linkList.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	chooseKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose link"))
	helpKeys := []key.Binding{chooseKey, m.keys.save, m.keys.back, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderFetch() string {
	title := styles.title.Render(fmt.Sprintf("Fetching %d songs", len(m.results)))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSongs:
		phase = fmt.Sprintf("Fetching song pages (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteFiles:
		phase = "Writing files..."
	case tasks.SaveSongs:
		phase = fmt.Sprintf("Saving to library (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderSummary() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.bulk == nil {
		return styles.err.Render(fmt.Sprintf("Fetch failed: %v", m.bulkErr)) + "\n\n" + helpView
	}

	var title string
	if m.bulkErr != nil {
		title = styles.warn.Render(fmt.Sprintf("Fetch stopped: %v", m.bulkErr))
	} else {
		title = styles.ok.Render("✓ Fetch Complete!")
	}

	info := fmt.Sprintf("\nFetched: %d/%d\nSaved: %d", m.bulk.Succeeded, m.bulk.Total, m.bulk.Saved)
	if m.bulk.ManifestPath != "" {
		info += fmt.Sprintf("\nManifest: %s", m.bulk.ManifestPath)
	}

	var failed string
	if m.bulk.Failed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to fetch %d songs:", m.bulk.Failed)))
		for _, res := range m.bulk.Results {
			if !res.Success() {
				failed += fmt.Sprintf("\n  • %s: %s", res.Result, res.Reason)
			}
		}
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
