package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgResultsFetched MsgKind = iota
	MsgSongFetched
	MsgSongSaved
	MsgProgressUpdate
	MsgBulkComplete
)

// resultsFetchedMsg is the constructor for [MsgResultsFetched]
func resultsFetchedMsg(results []models.SearchResult, err error) Msg {
	return Msg{kind: MsgResultsFetched, data: results, err: err}
}

// songFetchedMsg is the constructor for [MsgSongFetched]
func songFetchedMsg(song *models.Song, err error) Msg {
	return Msg{kind: MsgSongFetched, data: song, err: err}
}

// songSavedMsg is the constructor for [MsgSongSaved]
func songSavedMsg(song *models.Song, err error) Msg {
	return Msg{kind: MsgSongSaved, data: song, err: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// bulkCompleteMsg is the constructor for [MsgBulkComplete]
func bulkCompleteMsg(result *tasks.BulkFetchResult, err error) Msg {
	return Msg{kind: MsgBulkComplete, data: result, err: err}
}
