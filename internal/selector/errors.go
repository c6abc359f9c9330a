package selector

import "fmt"

// SpecError reports an invalid format specification or filter. It is fatal:
// a spec never becomes valid by retrying.
type SpecError struct {
	// Spec is the offending specification or filter fragment.
	Spec string

	// Reason describes what is wrong with it.
	Reason string
}

// Error implements error.
func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid format specification %q: %s", e.Spec, e.Reason)
}

// SelectionError reports that a structurally valid spec cannot be applied to
// the formats at hand, e.g. a merge whose sides have the wrong capabilities.
type SelectionError struct {
	Reason string
}

// Error implements error.
func (e *SelectionError) Error() string {
	return e.Reason
}
