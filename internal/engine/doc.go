// Package engine orchestrates the pipeline: it resolves URLs through the
// extractor registry, walks playlists, selects formats, downloads payloads
// and runs post-processing, enforcing the run-wide limits and filters the
// options configure.
package engine
