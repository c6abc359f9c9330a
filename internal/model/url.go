package model

import "github.com/ytget/vidgrab/internal/platform"

// ContentURL is a redirect record pointing at another URL to extract, with an
// optional preferred extractor key.
type ContentURL struct {
	Info `json:"-"`

	URL   string `json:"url"`
	IEKey string `json:"ie_key,omitempty"`
}

// Kind implements Record.
func (u *ContentURL) Kind() Kind { return KindURL }

// Field implements Record.
func (u *ContentURL) Field(key string) (any, bool) {
	switch key {
	case "url", "URL":
		return u.URL, true
	case "ie_key", "IEKey":
		return u.IEKey, true
	}
	return u.infoField(key)
}

// SetField implements Record.
func (u *ContentURL) SetField(key string, value any) bool {
	switch key {
	case "url":
		u.URL = platform.SanitizeURL(asString(value))
	case "ie_key":
		u.IEKey = asString(value)
	default:
		return u.setInfoField(key, value)
	}
	return true
}

// TransparentURL is a redirect whose target is resolved without downloading
// first, letting the redirect's own metadata override the resolved record.
type TransparentURL struct {
	ContentURL
}

// Kind implements Record.
func (u *TransparentURL) Kind() Kind { return KindURLTransparent }
