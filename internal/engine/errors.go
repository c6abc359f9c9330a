package engine

import "errors"

// ErrMaxDownloads aborts a run once the configured download count is
// reached. It is a signal, not a failure.
var ErrMaxDownloads = errors.New("maximum number of downloads reached")
