package tasks

import (
	"fmt"

	"github.com/desertthunder/musicutil/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Search Phase = iota
	FetchSongs
	WriteFiles
	SaveSongs
)

func (p Phase) String() string {
	switch p {
	case Search:
		return "search"
	case FetchSongs:
		return "fetch_songs"
	case WriteFiles:
		return "write_files"
	case SaveSongs:
		return "save_songs"
	default:
		return ""
	}
}

func searchUpdate(src, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Search,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching %s for %q...", src, query),
	}
}

func foundResultsUpdate(results []models.SearchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Search,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d results", len(results)),
		Data:    results,
	}
}

func fetchingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d song pages...", total),
	}
}

func fetchCompletedUpdate(step, total int, song *models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d links)", step, total, song, song.File.Len()),
		Data:    song,
	}
}

func fetchFailedUpdate(step, total int, r models.SearchResult, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, r, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote manifest %s", path),
	}
}

func savedUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Saved %d of %d songs to the library", step, total),
	}
}
