package progress

import (
	"testing"
	"time"
)

func TestEventPercent(t *testing.T) {
	tests := []struct {
		value    int64
		total    int64
		expected float64
	}{
		{0, 100, 0},
		{50, 100, 50},
		{100, 100, 100},
		{150, 100, 100},
		{50, -1, -1},
		{50, 0, -1},
	}

	for _, test := range tests {
		e := Event{Value: test.value, Total: test.total, Elapsed: time.Second}
		if got := e.Percent(); got != test.expected {
			t.Errorf("Percent() with value=%d total=%d = %f, expected %f",
				test.value, test.total, got, test.expected)
		}
	}
}

func TestEventSpeed(t *testing.T) {
	e := Event{Value: 1000, Total: 2000, Unit: "B", Elapsed: 2 * time.Second}
	if got := e.Speed(); got != 500 {
		t.Errorf("Speed() = %f, expected 500", got)
	}

	zero := Event{Value: 0, Elapsed: time.Second}
	if got := zero.Speed(); got != 0 {
		t.Errorf("Speed() with no bytes = %f, expected 0", got)
	}
}

func TestEventETA(t *testing.T) {
	e := Event{Value: 1000, Total: 2000, Elapsed: 2 * time.Second}
	if got := e.ETA(); got != 2*time.Second {
		t.Errorf("ETA() = %v, expected 2s", got)
	}

	unknown := Event{Value: 1000, Total: -1, Elapsed: 2 * time.Second}
	if got := unknown.ETA(); got >= 0 {
		t.Errorf("ETA() with unknown total = %v, expected negative", got)
	}
}

func TestLogEventSenderPath(t *testing.T) {
	tests := []struct {
		sender   []string
		expected string
	}{
		{nil, ""},
		{[]string{"engine"}, "engine"},
		{[]string{"engine", "download"}, "engine.download"},
	}

	for _, test := range tests {
		e := LogEvent{Sender: test.sender}
		if got := e.SenderPath(); got != test.expected {
			t.Errorf("SenderPath() with %v = %q, expected %q", test.sender, got, test.expected)
		}
	}
}
