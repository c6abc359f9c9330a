package platform

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Common URL typos seen in extractor output.
var urlTypos = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`^httpss://`), "https://"},
	{regexp.MustCompile(`^rmtp([es]?)://`), "rtmp$1://"},
}

// SanitizeURL prepends an http scheme to protocol-relative URLs and fixes a
// couple of common scheme typos.
func SanitizeURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "//") {
		return "http:" + rawURL
	}
	for _, typo := range urlTypos {
		if typo.pattern.MatchString(rawURL) {
			return typo.pattern.ReplaceAllString(rawURL, typo.repl)
		}
	}
	return rawURL
}

// DetermineExt returns the extension of the URL path without the leading dot,
// or an empty string if the path has none.
func DetermineExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	return strings.TrimPrefix(ext, ".")
}

// DetermineProtocol derives the download protocol from a format URL. Magic
// extensions (m3u8, f4m) take precedence over the URL scheme.
func DetermineProtocol(rawURL string) string {
	switch {
	case strings.HasPrefix(rawURL, "rtmp"):
		return "rtmp"
	case strings.HasPrefix(rawURL, "mms"):
		return "mms"
	case strings.HasPrefix(rawURL, "rtsp"):
		return "rtsp"
	}

	switch DetermineExt(rawURL) {
	case "m3u8":
		return "m3u8"
	case "f4m":
		return "f4m"
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "http"
	}
	return u.Scheme
}
