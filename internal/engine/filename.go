package engine

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ytget/vidgrab/internal/model"
)

// templateRe matches {field} and {field:verb} references in an output
// template. The verb is a fmt verb without the percent sign, e.g. "03d".
var templateRe = regexp.MustCompile(`\{([a-zA-Z_]+)(?::([^{}]+))?\}`)

// PrepareFilename expands the output template from the record's and format's
// fields and joins it onto the download directory. References to fields the
// records do not carry stay in the name verbatim.
func (e *Engine) PrepareFilename(record model.Record, format model.Format) string {
	name := templateRe.ReplaceAllStringFunc(e.opts.OutputTemplate, func(match string) string {
		m := templateRe.FindStringSubmatch(match)
		field, verb := m[1], m[2]

		value, ok := lookupField(record, format, field)
		if !ok {
			return match
		}

		var expanded string
		if verb != "" {
			expanded = fmt.Sprintf("%"+verb, value)
		} else {
			expanded = fmt.Sprint(value)
		}
		return sanitizePathComponent(expanded, e.opts.RestrictFilenames)
	})

	if e.opts.DownloadDir != "" && !filepath.IsAbs(name) {
		name = filepath.Join(e.opts.DownloadDir, name)
	}
	return name
}

// lookupField reads a template field, preferring the format's fields over
// the record's. Zero values count as absent so templates degrade cleanly.
func lookupField(record model.Record, format model.Format, field string) (any, bool) {
	if format != nil {
		if value, ok := format.Field(field); ok && !isZero(value) {
			return value, true
		}
	}
	if record != nil {
		if value, ok := record.Field(field); ok && !isZero(value) {
			return value, true
		}
	}
	return nil, false
}

func isZero(value any) bool {
	switch v := value.(type) {
	case string:
		return v == ""
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	}
	return value == nil
}

// pathUnsafe matches characters that are path separators or otherwise
// problematic in filenames.
var pathUnsafe = regexp.MustCompile(`[/\\|*<>:"?\x00-\x1f]`)

// restrictedUnsafe additionally excludes everything outside a portable set.
var restrictedUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizePathComponent(s string, restricted bool) string {
	if restricted {
		s = strings.ReplaceAll(s, " ", "_")
		return restrictedUnsafe.ReplaceAllString(s, "")
	}
	return pathUnsafe.ReplaceAllString(s, "_")
}
