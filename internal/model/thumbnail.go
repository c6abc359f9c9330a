package model

import "github.com/ytget/vidgrab/internal/platform"

// Thumbnail is one preview image of a video.
type Thumbnail struct {
	Info `json:"-"`

	ID         string `json:"id,omitempty"`
	URL        string `json:"url"`
	Preference int    `json:"preference,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// Kind implements Record.
func (t *Thumbnail) Kind() Kind { return KindThumbnail }

// Field implements Record.
func (t *Thumbnail) Field(key string) (any, bool) {
	switch key {
	case "id", "ID":
		return t.ID, true
	case "url", "URL":
		return t.URL, true
	case "preference", "Preference":
		return t.Preference, true
	case "width", "Width":
		return t.Width, true
	case "height", "Height":
		return t.Height, true
	}
	return t.infoField(key)
}

// SetField implements Record.
func (t *Thumbnail) SetField(key string, value any) bool {
	switch key {
	case "id":
		t.ID = asString(value)
	case "url":
		t.URL = platform.SanitizeURL(asString(value))
	case "preference":
		t.Preference = asInt(value)
	case "width":
		t.Width = asInt(value)
	case "height":
		t.Height = asInt(value)
	default:
		return t.setInfoField(key, value)
	}
	return true
}

// Less orders thumbnails ascending by (preference, width, height, id, url),
// so the last element of a sorted slice is the preferred one.
func (t *Thumbnail) Less(other *Thumbnail) bool {
	if t.Preference != other.Preference {
		return t.Preference < other.Preference
	}
	if t.Width != other.Width {
		return t.Width < other.Width
	}
	if t.Height != other.Height {
		return t.Height < other.Height
	}
	if t.ID != other.ID {
		return t.ID < other.ID
	}
	return t.URL < other.URL
}
