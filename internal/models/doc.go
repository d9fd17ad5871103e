// Package models defines the value types shared by the scrapers, the song library and the CLI.
//
// The package contains three groups of types:
//
// 1. [Quality] : the closed set of audio tiers a download link can have, ordered best to worst.
// [SelectQuality] and [BestLink] rank links by that order.
//
// 2. Scrape results: plain values produced by a source
//   - [SearchResult] : (song, artist, url) triple from a search page
//   - [DownloadLink] : (quality, url, size) triple from a song page
//   - [SongInfo] : name, artist, album, year and lyric lines from a song page
//
// 3. Persistent entities
//   - [Song] : a song with its [SongFile], stored by the library repository
//   - [Search] : one executed query, kept as history
//
// JSON tags match the field names the command line prints with --json.
package models
