package progress

import (
	log "github.com/sirupsen/logrus"
)

// Severity of a log event.
type Severity int

const (
	// SeverityDebug is diagnostic output hidden by default.
	SeverityDebug Severity = iota

	// SeverityInfo is normal operational output.
	SeverityInfo

	// SeverityWarning signals a recoverable problem.
	SeverityWarning

	// SeverityError signals a failed operation.
	SeverityError
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// LogEvent is one structured log record emitted by the pipeline.
type LogEvent struct {
	Severity Severity

	// Sender is the hierarchical origin of the event, outermost first,
	// e.g. ["engine", "download"].
	Sender []string

	Message string
}

// LogFunc receives log events.
type LogFunc func(LogEvent)

// DefaultLogSink writes events through the global logrus logger, tagging
// each entry with its sender path.
func DefaultLogSink(e LogEvent) {
	entry := log.WithField("sender", e.SenderPath())
	switch e.Severity {
	case SeverityDebug:
		entry.Debug(e.Message)
	case SeverityInfo:
		entry.Info(e.Message)
	case SeverityWarning:
		entry.Warning(e.Message)
	case SeverityError:
		entry.Error(e.Message)
	}
}

// SenderPath joins the sender hierarchy with dots.
func (e LogEvent) SenderPath() string {
	path := ""
	for i, s := range e.Sender {
		if i > 0 {
			path += "."
		}
		path += s
	}
	return path
}
