// Package download fetches format payloads over HTTP. It supports resumable
// single-connection downloads with ranged chunk requests, multi-connection
// downloads over disjoint ranges, bandwidth throttling and progress
// propagation. Retrying failed downloads is the caller's job.
package download
