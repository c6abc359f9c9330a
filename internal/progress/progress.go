package progress

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Event describes one progress update of a long-running operation. Total is
// negative when the operation size is unknown (chunked transfer encoding,
// ffmpeg runs before the duration line is seen).
type Event struct {
	// Value is the number of units completed so far.
	Value int64

	// Total is the overall number of units, or a negative value if unknown.
	Total int64

	// Unit is the unit label, "B" for byte counts.
	Unit string

	// Elapsed is the time since the operation started.
	Elapsed time.Duration
}

// Func receives progress events. Implementations must be safe for concurrent
// use; downloads report from multiple goroutines.
type Func func(Event)

// NewEvent builds an Event from a value/total pair and the operation start time.
func NewEvent(value, total int64, unit string, started time.Time) Event {
	return Event{
		Value:   value,
		Total:   total,
		Unit:    unit,
		Elapsed: time.Since(started),
	}
}

// HasTotal reports whether the total size of the operation is known.
func (e Event) HasTotal() bool {
	return e.Total > 0
}

// Percent returns the completion percentage in [0,100], or -1 when the total
// is unknown.
func (e Event) Percent() float64 {
	if !e.HasTotal() {
		return -1
	}
	p := float64(e.Value) / float64(e.Total) * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Speed returns the average units per second since the operation started.
func (e Event) Speed() float64 {
	if e.Value == 0 || e.Elapsed < time.Millisecond {
		return 0
	}
	return float64(e.Value) / e.Elapsed.Seconds()
}

// SpeedString renders the speed with a human suffix, e.g. "1.2 MB/s".
func (e Event) SpeedString() string {
	if e.Unit == "B" {
		return humanize.Bytes(uint64(e.Speed())) + "/s"
	}
	return fmt.Sprintf("%.1f %s/s", e.Speed(), e.Unit)
}

// ETA estimates the remaining time, or a negative duration when unknown.
func (e Event) ETA() time.Duration {
	speed := e.Speed()
	if !e.HasTotal() || speed == 0 {
		return -1
	}
	remaining := float64(e.Total-e.Value) / speed
	return time.Duration(remaining * float64(time.Second))
}
