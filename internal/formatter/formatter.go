// package formatter renders songs and search results as CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// ParseFormat accepts json, csv, markdown (md) and txt (text). Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension used for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	default:
		return ".json"
	}
}

// SongsToCSV writes one row per stored download of each song, best quality
// first. A song without downloads still gets a row with empty link columns.
func SongsToCSV(songs ...*models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Name", "Artist", "Album", "Year", "Page", "Quality", "Size", "Download"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		base := []string{song.Name, song.Artist, song.Album, song.Year, song.URL}
		if song.File.Len() == 0 {
			if err := writer.Write(append(base, "", "", "")); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
			continue
		}
		for q, e := range song.File.All() {
			record := append(append([]string{}, base...), q.String(), e.Size, e.URL)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ResultsToCSV converts search results to CSV with columns Song, Artist, URL.
func ResultsToCSV(results []models.SearchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Song", "Artist", "URL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Song, r.Artist, r.URL}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// SongToMarkdown renders a song page: metadata, a downloads table and the lyrics.
func SongToMarkdown(song *models.Song) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", song.Name)
	fmt.Fprintf(&buf, "**Artist**: %s\n", song.Artist)
	if song.Album != "" {
		fmt.Fprintf(&buf, "**Album**: %s\n", song.Album)
	}
	if song.Year != "" {
		fmt.Fprintf(&buf, "**Year**: %s\n", song.Year)
	}
	if song.URL != "" {
		fmt.Fprintf(&buf, "**Page**: <%s>\n", song.URL)
	}

	if song.File.Len() > 0 {
		buf.WriteString("\n## Downloads\n\n")
		buf.WriteString("| Quality | Size | Link |\n")
		buf.WriteString("|---|---|---|\n")
		for q, e := range song.File.All() {
			fmt.Fprintf(&buf, "| %s | %s | [download](%s) |\n", q, e.Size, e.URL)
		}
	}

	if len(song.Lyrics) > 0 {
		buf.WriteString("\n## Lyrics\n\n")
		for _, line := range song.Lyrics {
			fmt.Fprintf(&buf, "%s  \n", line)
		}
	}
	return buf.Bytes()
}

// ResultsToMarkdown renders search results as a numbered list of links.
func ResultsToMarkdown(query string, results []models.SearchResult) []byte {
	var buf bytes.Buffer

	if query != "" {
		fmt.Fprintf(&buf, "# %s\n\n", query)
	}
	fmt.Fprintf(&buf, "**Results**: %d\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&buf, "%d. [%s](%s) - %s\n", i+1, r.Song, r.URL, r.Artist)
	}
	return buf.Bytes()
}

// SongToText renders a song as plain text.
func SongToText(song *models.Song) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Song: %s\n", song.Name)
	fmt.Fprintf(&buf, "Artist: %s\n", song.Artist)
	if song.Album != "" {
		fmt.Fprintf(&buf, "Album: %s\n", song.Album)
	}
	if song.Year != "" {
		fmt.Fprintf(&buf, "Year: %s\n", song.Year)
	}
	if song.URL != "" {
		fmt.Fprintf(&buf, "Page: %s\n", song.URL)
	}

	if song.File.Len() > 0 {
		fmt.Fprintf(&buf, "\nDownloads: %d\n", song.File.Len())
		for q, e := range song.File.All() {
			fmt.Fprintf(&buf, "  %-9s %-10s %s\n", q, e.Size, e.URL)
		}
	}

	if len(song.Lyrics) > 0 {
		buf.WriteString("\n")
		for _, line := range song.Lyrics {
			fmt.Fprintln(&buf, line)
		}
	}
	return buf.Bytes()
}

// ResultsToText renders search results one per entry with the page url indented below.
func ResultsToText(results []models.SearchResult) []byte {
	var buf bytes.Buffer
	for i, r := range results {
		fmt.Fprintf(&buf, "%d. %s\n   %s\n", i+1, r, r.URL)
	}
	return buf.Bytes()
}

// LinksToText renders download links as aligned quality, size and url columns.
func LinksToText(links []models.DownloadLink) []byte {
	var buf bytes.Buffer
	for _, l := range links {
		label := l.Quality.String()
		if label == "" {
			label = "unknown"
		}
		fmt.Fprintf(&buf, "%-9s %-10s %s\n", label, l.Size, l.URL)
	}
	return buf.Bytes()
}

// EncodeSong renders song in format f.
func EncodeSong(song *models.Song, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return SongsToCSV(song)
	case Markdown:
		return SongToMarkdown(song), nil
	case Text:
		return SongToText(song), nil
	default:
		return shared.MarshalJSON(song, true)
	}
}

// EncodeResults renders search results in format f.
func EncodeResults(query string, results []models.SearchResult, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ResultsToCSV(results)
	case Markdown:
		return ResultsToMarkdown(query, results), nil
	case Text:
		return ResultsToText(results), nil
	default:
		return shared.MarshalJSON(results, true)
	}
}

// Slug turns a title into a file name: lowercase letters and digits joined by single dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// SongFilename returns "<artist>-<name>" slugged, plus the extension of f.
func SongFilename(song *models.Song, f Format) string {
	return Slug(song.Artist+" "+song.Name) + f.Ext()
}

// WriteSong encodes song and writes it into dir, creating dir when needed.
//
// The file name comes from [SongFilename]; the written path is returned.
func WriteSong(song *models.Song, f Format, dir string) (string, error) {
	data, err := EncodeSong(song, f)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", song, err)
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	path := filepath.Join(dir, SongFilename(song, f))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteSongFile encodes song and writes it to path. The parent directory must exist.
func WriteSongFile(song *models.Song, f Format, path string) error {
	data, err := EncodeSong(song, f)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", song, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
