// Package repositories implements SQLite persistence for the song library.
//
// Key Implementations:
//   - [SongRepository] : Songs keyed by page URL, with one song_files row per download quality
//   - [SearchRepository] : History of executed queries
//
// Schemas live in the embedded migrations of package shared; open the database with [shared.OpenDatabase]
// so they are applied. Lookups that match nothing return an error wrapping [shared.ErrNotFound].
//
// [SongRepository.Upsert] satisfies tasks.SongStore, so bulk fetches can save straight into the library.
package repositories
