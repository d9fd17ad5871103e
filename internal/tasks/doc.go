// Package tasks runs multi-page operations against a music source with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.Fetch] : Scrape one song page
//     - Song info (name, artist, album, year, lyrics)
//     - Download links, stored one per quality
//
//  2. [Engine.BulkFetch] : Fetch the pages of many search results
//     - Worker pool (default 4, max 10) sharing a token bucket limiter (default 2 requests/s)
//     - Partial failures are recorded per result
//     - Optional song files and a manifest.json in an output directory
//
//  3. [Engine.SearchAndFetch] : Search, then bulk fetch the results
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Song Library
//
// The optional [SongStore] interface (repositories.SongRepository) receives every fetched song.
// Saves happen sequentially after the workers finish; a failed save marks that result failed.
package tasks
