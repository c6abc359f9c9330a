package platform

import (
	"strconv"
	"strings"
	"time"
)

// ParseFFmpegTime parses a timestamp as printed by ffmpeg ("H:MM:SS.ms").
// Hours may exceed 23 and there is no day component. The second return value
// reports whether the string was a valid timestamp.
func ParseFFmpegTime(s string) (time.Duration, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) != 3 {
		return 0, false
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	// ffmpeg always prints the fractional part with a dot regardless of locale.
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return d, true
}
