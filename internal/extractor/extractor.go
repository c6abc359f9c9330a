// Package extractor turns page URLs into metadata records. Extractors are
// registered in priority order; the registry dispatches a URL to the first
// extractor claiming it and reports the outcome explicitly.
package extractor

import (
	"context"
	"fmt"

	"github.com/ytget/vidgrab/internal/cache"
	"github.com/ytget/vidgrab/internal/model"
)

// Extractor resolves URLs of one site family into metadata records.
type Extractor interface {
	// Name identifies the extractor, e.g. "youtube:playlist".
	Name() string

	// Suitable reports whether the extractor claims the URL.
	Suitable(url string) bool

	// Working reports whether the extractor is believed functional.
	// Broken extractors still run, with a warning.
	Working() bool

	// Initialize prepares the extractor before its first extraction. The
	// cache may be nil when persistent caching is disabled.
	Initialize(ctx context.Context, c *cache.Cache) error

	// Extract resolves the URL into a record: a video, a playlist, or a
	// further URL reference.
	Extract(ctx context.Context, url string) (model.Record, error)
}

// ExtractError reports a failed extraction.
type ExtractError struct {
	// Extractor is the name of the extractor that failed.
	Extractor string

	// URL is the page being extracted.
	URL string

	// Expected marks anticipated failures (geo blocks, removed videos)
	// that are not extractor bugs.
	Expected bool

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *ExtractError) Error() string {
	return fmt.Sprintf("%s: extraction of %s failed: %v", e.Extractor, e.URL, e.Err)
}

// Unwrap returns the cause.
func (e *ExtractError) Unwrap() error { return e.Err }
