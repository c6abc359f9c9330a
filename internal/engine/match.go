package engine

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/model"
)

// matchEntry checks a video against the configured entry filters. A
// non-empty return value is the human-readable reason the entry is skipped.
func (e *Engine) matchEntry(v *model.Video) string {
	if e.opts.MatchTitle != "" {
		matched, err := regexp.MatchString(e.opts.MatchTitle, v.Title)
		if err == nil && !matched {
			return fmt.Sprintf("%q title did not match pattern %q", v.Title, e.opts.MatchTitle)
		}
	}
	if e.opts.RejectTitle != "" {
		matched, err := regexp.MatchString(e.opts.RejectTitle, v.Title)
		if err == nil && matched {
			return fmt.Sprintf("%q title matched reject pattern %q", v.Title, e.opts.RejectTitle)
		}
	}
	if !v.UploadedAt.IsZero() {
		if e.opts.DateAfter != "" {
			if after, err := time.Parse(config.DateLayout, e.opts.DateAfter); err == nil && v.UploadedAt.Before(after) {
				return fmt.Sprintf("uploaded %s, before the %s cutoff",
					v.UploadedAt.Format(config.DateLayout), e.opts.DateAfter)
			}
		}
		if e.opts.DateBefore != "" {
			if before, err := time.Parse(config.DateLayout, e.opts.DateBefore); err == nil && v.UploadedAt.After(before.Add(24*time.Hour-time.Nanosecond)) {
				return fmt.Sprintf("uploaded %s, after the %s cutoff",
					v.UploadedAt.Format(config.DateLayout), e.opts.DateBefore)
			}
		}
	}
	if e.opts.MinViews > 0 && int64(v.Views) < e.opts.MinViews {
		return fmt.Sprintf("%d views are below the limit of %d", v.Views, e.opts.MinViews)
	}
	if e.opts.MaxViews > 0 && int64(v.Views) > e.opts.MaxViews {
		return fmt.Sprintf("%d views exceed the limit of %d", v.Views, e.opts.MaxViews)
	}
	return ""
}
