package model

// Package model defines the metadata records produced by extractors and
// consumed by the pipeline: videos, playlists, redirect URLs, downloadable
// formats, thumbnails and subtitles. Records decode from generic maps through
// a closed kind switch and explicit per-type field tables, never reflection.
