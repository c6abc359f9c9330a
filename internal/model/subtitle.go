package model

import "github.com/ytget/vidgrab/internal/platform"

// Subtitle is a language-tagged group of interchangeable subtitle renditions.
type Subtitle struct {
	// Lang is the language tag, e.g. "en".
	Lang string `json:"lang"`

	Formats []*SubtitleFormat `json:"formats"`
}

// SubtitleFormat is one downloadable subtitle rendition.
type SubtitleFormat struct {
	Info `json:"-"`

	URL       string `json:"url"`
	Extension string `json:"ext"`
}

// Kind implements Record.
func (s *SubtitleFormat) Kind() Kind { return KindSubtitleFormat }

// Field implements Record.
func (s *SubtitleFormat) Field(key string) (any, bool) {
	switch key {
	case "url", "URL":
		return s.URL, true
	case "ext", "Extension":
		return s.Extension, true
	}
	return s.infoField(key)
}

// SetField implements Record.
func (s *SubtitleFormat) SetField(key string, value any) bool {
	switch key {
	case "url":
		s.URL = platform.SanitizeURL(asString(value))
	case "ext":
		s.Extension = asString(value)
	default:
		return s.setInfoField(key, value)
	}
	return true
}
