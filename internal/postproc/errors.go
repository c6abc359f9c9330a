package postproc

import "fmt"

// ToolError reports a failed external tool invocation together with the tail
// of its diagnostic output.
type ToolError struct {
	// Tool is the executable name, "ffmpeg" or "ffprobe".
	Tool string

	// Output is the captured tail of the tool's stderr.
	Output string

	// Err is the underlying process error.
	Err error
}

// Error implements error.
func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Output)
}

// Unwrap returns the process error.
func (e *ToolError) Unwrap() error { return e.Err }
