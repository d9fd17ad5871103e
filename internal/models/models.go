// package models defines the data model shared by sources, the library and the CLI
package models

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/desertthunder/musicutil/internal/shared"
)

// Model defines the base interface for persistent models.
type Model interface {
	GetID() string        // GetID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// SearchResult is one entry of a search results page.
type SearchResult struct {
	Song   string `json:"song"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

func (r SearchResult) String() string {
	return fmt.Sprintf("%s - %s", r.Song, r.Artist)
}

// DownloadLink is one downloadable encoding listed on a song page.
type DownloadLink struct {
	Quality Quality `json:"quality"`
	URL     string  `json:"url"`
	Size    string  `json:"size"`
}

// SongInfo is the metadata block of a song page.
type SongInfo struct {
	Name   string   `json:"name"`
	Artist string   `json:"artist"`
	Album  string   `json:"album"`
	Year   string   `json:"year"`
	Lyrics []string `json:"lyrics"`
}

// BestLink returns the link whose quality [SelectQuality] picks for pref.
func BestLink(links []DownloadLink, pref Preference) (DownloadLink, error) {
	qs := make([]Quality, 0, len(links))
	for _, l := range links {
		qs = append(qs, l.Quality)
	}

	q, err := SelectQuality(pref, qs...)
	if err != nil {
		return DownloadLink{}, err
	}

	for _, l := range links {
		if l.Quality == q {
			return l, nil
		}
	}
	return DownloadLink{}, shared.ErrNoQualities
}

// FileEntry is the (url, size) stored for one quality.
type FileEntry struct {
	URL  string `json:"url"`
	Size string `json:"size"`
}

// SongFile holds at most one download per quality.
type SongFile struct {
	entries map[Quality]FileEntry
}

// NewSongFile builds a SongFile from scraped links. Links of unknown quality are dropped.
func NewSongFile(links ...DownloadLink) SongFile {
	var f SongFile
	for _, l := range links {
		f.Add(l.Quality, l.URL, l.Size)
	}
	return f
}

// Add stores url and size under q, replacing any earlier entry.
func (f *SongFile) Add(q Quality, url, size string) bool {
	if !q.Valid() {
		return false
	}
	if f.entries == nil {
		f.entries = make(map[Quality]FileEntry)
	}
	f.entries[q] = FileEntry{URL: url, Size: size}
	return true
}

// Get returns the entry stored for q.
func (f SongFile) Get(q Quality) (FileEntry, bool) {
	e, ok := f.entries[q]
	return e, ok
}

// Delete removes q.
func (f *SongFile) Delete(q Quality) {
	delete(f.entries, q)
}

// Len returns the number of stored qualities.
func (f SongFile) Len() int {
	return len(f.entries)
}

// All yields entries best quality first.
func (f SongFile) All() iter.Seq2[Quality, FileEntry] {
	return func(yield func(Quality, FileEntry) bool) {
		for _, q := range Qualities() {
			e, ok := f.entries[q]
			if !ok {
				continue
			}
			if !yield(q, e) {
				return
			}
		}
	}
}

// Qualities returns the stored qualities, best first.
func (f SongFile) Qualities() []Quality {
	qs := make([]Quality, 0, len(f.entries))
	for q := range f.All() {
		qs = append(qs, q)
	}
	return qs
}

// URLs returns the stored urls, best quality first.
func (f SongFile) URLs() []string {
	urls := make([]string, 0, len(f.entries))
	for _, e := range f.All() {
		urls = append(urls, e.URL)
	}
	return urls
}

// Links converts the entries back into [DownloadLink] values.
func (f SongFile) Links() []DownloadLink {
	links := make([]DownloadLink, 0, len(f.entries))
	for q, e := range f.All() {
		links = append(links, DownloadLink{Quality: q, URL: e.URL, Size: e.Size})
	}
	return links
}

// MarshalJSON writes the entries as a list of links, best first.
func (f SongFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Links())
}

// UnmarshalJSON reads a list written by [SongFile.MarshalJSON].
func (f *SongFile) UnmarshalJSON(data []byte) error {
	var links []DownloadLink
	if err := json.Unmarshal(data, &links); err != nil {
		return err
	}
	*f = NewSongFile(links...)
	return nil
}

// Song is a song page with its metadata and downloads.
type Song struct {
	ID      string    `json:"id,omitempty"`
	Source  string    `json:"source,omitempty"`
	URL     string    `json:"url"`
	Name    string    `json:"name"`
	Artist  string    `json:"artist"`
	Album   string    `json:"album"`
	Year    string    `json:"year"`
	Lyrics  []string  `json:"lyrics"`
	File    SongFile  `json:"files"`
	Created time.Time `json:"created_at,omitzero"`
	Updated time.Time `json:"updated_at,omitzero"`
}

// NewSong combines the metadata and links scraped from the song page at url.
func NewSong(source, url string, info SongInfo, links []DownloadLink) *Song {
	return &Song{
		Source: source,
		URL:    url,
		Name:   info.Name,
		Artist: info.Artist,
		Album:  info.Album,
		Year:   info.Year,
		Lyrics: info.Lyrics,
		File:   NewSongFile(links...),
	}
}

func (s *Song) String() string {
	return fmt.Sprintf("%s - %s", s.Name, s.Artist)
}

func (s *Song) GetID() string        { return s.ID }
func (s *Song) CreatedAt() time.Time { return s.Created }
func (s *Song) UpdatedAt() time.Time { return s.Updated }

// Validate requires a page url and a name.
func (s *Song) Validate() error {
	switch {
	case strings.TrimSpace(s.URL) == "":
		return fmt.Errorf("%w: song url is required", shared.ErrInvalidInput)
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: song name is required", shared.ErrInvalidInput)
	}
	return nil
}

// Search records one executed query.
type Search struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Query       string    `json:"query"`
	MaxResults  int       `json:"max_results"`
	ResultCount int       `json:"result_count"`
	Created     time.Time `json:"created_at"`
}

func (s *Search) GetID() string        { return s.ID }
func (s *Search) CreatedAt() time.Time { return s.Created }
func (s *Search) UpdatedAt() time.Time { return s.Created }

// Validate requires a query and a source.
func (s *Search) Validate() error {
	if strings.TrimSpace(s.Query) == "" || s.Source == "" {
		return fmt.Errorf("%w: search needs a source and a query", shared.ErrInvalidInput)
	}
	return nil
}
