package platform

// Package platform contains small parsing and filesystem helpers shared by the
// pipeline packages: human filesize parsing, URL sanitization and protocol
// detection, ffmpeg timestamp parsing, and directory/extension utilities.
