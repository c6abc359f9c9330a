package extractor

import (
	"context"
	"path"
	"strings"

	"github.com/ytget/vidgrab/internal/cache"
	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
)

// Direct treats a URL as a link straight to a media file, synthesizing a
// single-format video record from it. Register it last: it claims every
// HTTP(S) URL.
type Direct struct{}

// Name implements Extractor.
func (Direct) Name() string { return "direct" }

// Suitable implements Extractor.
func (Direct) Suitable(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Working implements Extractor.
func (Direct) Working() bool { return true }

// Initialize implements Extractor.
func (Direct) Initialize(ctx context.Context, c *cache.Cache) error { return nil }

// Extract implements Extractor.
func (Direct) Extract(ctx context.Context, url string) (model.Record, error) {
	base := path.Base(strings.SplitN(url, "?", 2)[0])
	ext := platform.DetermineExt(url)
	title := strings.TrimSuffix(base, path.Ext(base))
	if title == "" || title == "/" || title == "." {
		title = "media"
	}

	f := &model.MuxedFormat{}
	f.FormatID = "direct"
	f.URL = platform.SanitizeURL(url)
	f.Extension = ext
	if f.Extension == "" {
		f.Extension = "mp4"
	}

	v := &model.Video{}
	v.ID = title
	v.Title = title
	v.Formats = []model.Format{f}
	return v, nil
}
