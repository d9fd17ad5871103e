// Package ui implements an interactive search result picker using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [ResultListView] : Browse and filter the results of a search
//  2. [SongView] : Song details and its download links, best quality first
//  3. [FetchView] : Monitor real-time progress while every result is fetched
//  4. [SummaryView] : Counts of fetched and failed pages
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from [tasks.Engine.BulkFetch].
//
// Choosing a link with enter ends the program; [Model.Chosen] returns it.
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, a, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
