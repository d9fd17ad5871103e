package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/musicutil/internal/models"
	"github.com/desertthunder/musicutil/internal/shared"
)

const songColumns = `id, source, url, name, artist, album, year, lyrics, created_at, updated_at`

// SongRepository stores [models.Song] values and their download links.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// ListOpts narrows [SongRepository.List]. Zero values match everything.
type ListOpts struct {
	Source string
	Artist string // case-insensitive substring
	Limit  int
}

// Create inserts song with a generated ID and its download links.
func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if song.ID == "" {
		song.ID = shared.GenerateID()
	}
	song.Created, song.Updated = now, now

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO songs (` + songColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			song.ID,
			song.Source,
			song.URL,
			song.Name,
			song.Artist,
			song.Album,
			song.Year,
			joinLyrics(song.Lyrics),
			song.Created,
			song.Updated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert song: %w", err)
		}
		return insertFiles(ctx, tx, song)
	})
}

// Update rewrites the metadata of an existing song and replaces its download links.
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	song.Updated = time.Now().UTC()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE songs
			SET source = ?, url = ?, name = ?, artist = ?, album = ?, year = ?, lyrics = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := tx.ExecContext(ctx, query,
			song.Source,
			song.URL,
			song.Name,
			song.Artist,
			song.Album,
			song.Year,
			joinLyrics(song.Lyrics),
			song.Updated,
			song.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update song: %w", err)
		}
		if err := expectRows(result, "song", song.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM song_files WHERE song_id = ?`, song.ID); err != nil {
			return fmt.Errorf("failed to clear song files: %w", err)
		}
		return insertFiles(ctx, tx, song)
	})
}

// Upsert creates song, or updates the stored song with the same page URL.
//
// On update song takes over the stored ID and creation time.
func (r *SongRepository) Upsert(ctx context.Context, song *models.Song) error {
	existing, err := r.GetByURL(ctx, song.URL)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return r.Create(ctx, song)
	case err != nil:
		return err
	}

	song.ID = existing.ID
	song.Created = existing.Created
	return r.Update(ctx, song)
}

// Get retrieves a song by ID
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ?`
	return r.loadOne(ctx, r.db.QueryRowContext(ctx, query, id), id)
}

// GetByURL retrieves a song by the URL of its page
func (r *SongRepository) GetByURL(ctx context.Context, url string) (*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE url = ?`
	return r.loadOne(ctx, r.db.QueryRowContext(ctx, query, url), url)
}

// List retrieves songs matching opts, newest first.
func (r *SongRepository) List(ctx context.Context, opts ListOpts) ([]*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE 1 = 1`
	args := []any{}

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if opts.Artist != "" {
		query += " AND artist LIKE ? COLLATE NOCASE"
		args = append(args, "%"+opts.Artist+"%")
	}

	query += " ORDER BY created_at DESC, name ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}

	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	// files are loaded after the cursor is closed; :memory: databases have a single connection
	for _, song := range songs {
		if err := r.loadFiles(ctx, song); err != nil {
			return nil, err
		}
	}
	return songs, nil
}

// Delete removes a song and, through the foreign key, its download links.
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return expectRows(result, "song", id)
}

// Count returns the number of stored songs.
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

func (r *SongRepository) loadOne(ctx context.Context, row *sql.Row, key string) (*models.Song, error) {
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: song %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadFiles(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

func (r *SongRepository) loadFiles(ctx context.Context, song *models.Song) error {
	rows, err := r.db.QueryContext(ctx, `SELECT quality, url, size FROM song_files WHERE song_id = ?`, song.ID)
	if err != nil {
		return fmt.Errorf("failed to query song files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var label, url, size string
		if err := rows.Scan(&label, &url, &size); err != nil {
			return fmt.Errorf("failed to scan song file: %w", err)
		}
		q, err := models.ParseQuality(label)
		if err != nil {
			continue
		}
		song.File.Add(q, url, size)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func insertFiles(ctx context.Context, tx *sql.Tx, song *models.Song) error {
	for q, e := range song.File.All() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO song_files (song_id, quality, url, size) VALUES (?, ?, ?, ?)`,
			song.ID, q.String(), e.URL, e.Size,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s file: %w", q, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSong scans the [songColumns] of a row into a [models.Song] without files.
func scanSong(row scanner) (*models.Song, error) {
	var (
		song   models.Song
		lyrics string
	)

	err := row.Scan(
		&song.ID,
		&song.Source,
		&song.URL,
		&song.Name,
		&song.Artist,
		&song.Album,
		&song.Year,
		&lyrics,
		&song.Created,
		&song.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	song.Lyrics = splitLyrics(lyrics)
	return &song, nil
}

func joinLyrics(lines []string) string {
	return strings.Join(lines, "\n")
}

func splitLyrics(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
