// Package tasks runs long playlist and catalog operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Exporter.ExportAll] : export every playlist (or a chosen subset) to files
//     - Fetches playlists through a rate limited producer
//     - Renders them with a worker pool using [formatter]
//     - Writes a manifest summarizing each result, failures included
//
//  2. [Exporter.SyncCatalog] : copy the server's track catalog into the local cache
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
