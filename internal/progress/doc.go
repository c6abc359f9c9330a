package progress

// Package progress defines the progress and log event contracts produced by
// the downloader, the post-processors and the engine. Consumers (CLI progress
// rendering, tests) subscribe through plain callback functions.
