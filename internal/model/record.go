package model

import (
	"strconv"
	"time"
)

// Kind is the type tag carried by every metadata record.
type Kind string

const (
	// KindVideo is a fully resolved video with formats.
	KindVideo Kind = "video"

	// KindPlaylist is an ordered collection of entry records.
	KindPlaylist Kind = "playlist"

	// KindURL is a redirect to another URL that must be re-extracted.
	KindURL Kind = "url"

	// KindURLTransparent is a redirect whose result may be overridden by the
	// metadata already present on the redirect record.
	KindURLTransparent Kind = "url-transparent"

	// KindFormat is one downloadable rendition of a video.
	KindFormat Kind = "format"

	// KindThumbnail is a preview image.
	KindThumbnail Kind = "thumbnail"

	// KindSubtitleFormat is one downloadable subtitle rendition.
	KindSubtitleFormat Kind = "subtitleformat"
)

// Record is the closed union of metadata variants. Concrete types are *Video,
// *Playlist, *ContentURL, *TransparentURL, the Format variants, *Thumbnail
// and *SubtitleFormat.
type Record interface {
	// Kind returns the variant tag.
	Kind() Kind

	// Meta returns the shared extraction metadata and the open extras bag.
	Meta() *Info

	// Field looks up a promoted field by its canonical key or Go field name.
	// The second return value is false for unknown keys.
	Field(key string) (any, bool)

	// SetField assigns a promoted field by its canonical key, coercing the
	// value. It returns false for keys that are not promoted on this type.
	SetField(key string, value any) bool
}

// Info holds fields shared by every record plus the open bag for
// extractor-specific keys the pipeline does not interpret.
type Info struct {
	Extractor          string
	ExtractorKey       string
	WebpageURL         string
	WebpageURLBasename string

	// Extras retains unknown keys from the raw extractor output. Core
	// pipeline logic never reads out of this bag.
	Extras map[string]any
}

// Meta returns the receiver so embedding types satisfy Record.
func (i *Info) Meta() *Info { return i }

// infoField looks up one of the shared fields.
func (i *Info) infoField(key string) (any, bool) {
	switch key {
	case "extractor", "Extractor":
		return i.Extractor, true
	case "extractor_key", "ExtractorKey":
		return i.ExtractorKey, true
	case "webpage_url", "WebpageURL":
		return i.WebpageURL, true
	case "webpage_url_basename", "WebpageURLBasename":
		return i.WebpageURLBasename, true
	}
	return nil, false
}

// setInfoField assigns one of the shared fields.
func (i *Info) setInfoField(key string, value any) bool {
	switch key {
	case "extractor":
		i.Extractor = asString(value)
	case "extractor_key":
		i.ExtractorKey = asString(value)
	case "webpage_url":
		i.WebpageURL = asString(value)
	case "webpage_url_basename":
		i.WebpageURLBasename = asString(value)
	default:
		return false
	}
	return true
}

// AddExtraInfo merges extra keys into the record. Promoted fields go through
// the record's field table; everything else lands in the extras bag. With
// overwrite false, fields that already hold a non-zero value are kept.
func AddExtraInfo(r Record, extra map[string]any, overwrite bool) {
	if extra == nil {
		return
	}
	for key, value := range extra {
		if !overwrite {
			if current, ok := r.Field(key); ok && !isZeroValue(current) {
				continue
			}
		}
		if r.SetField(key, value) {
			continue
		}
		meta := r.Meta()
		if meta.Extras == nil {
			meta.Extras = make(map[string]any)
		}
		if _, exists := meta.Extras[key]; exists && !overwrite {
			continue
		}
		meta.Extras[key] = value
	}
}

func isZeroValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	case bool:
		return !x
	case time.Duration:
		return x == 0
	case time.Time:
		return x.IsZero()
	}
	return false
}

// Coercion helpers for values decoded from JSON-ish maps, where numbers
// arrive as float64 and ints as int or int64 depending on the producer.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	}
	return 0
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}
