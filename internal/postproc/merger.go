package postproc

import (
	"context"
	"fmt"
	"os"

	"github.com/ytget/vidgrab/internal/model"
)

// Merger combines the separately downloaded constituents of a composite
// format into one container with stream copies.
type Merger struct {
	Runner *Runner

	// KeepParts leaves the constituent files on disk after a merge.
	KeepParts bool
}

// NewMerger returns a merger over the given runner.
func NewMerger(runner *Runner) *Merger {
	return &Merger{Runner: runner}
}

// Name implements PostProcessor.
func (m *Merger) Name() string { return "merger" }

// Applies implements PostProcessor.
func (m *Merger) Applies(f model.Format) bool { return f.IsComposite() }

// Run merges the video and audio constituent files into path. The
// constituents must have been downloaded already, with their locations
// recorded in their FileName fields.
func (m *Merger) Run(ctx context.Context, f model.Format, path string) (string, error) {
	composite, ok := f.(*model.CompositeFormat)
	if !ok {
		return path, fmt.Errorf("format %s is not a composite", f.Common().FormatID)
	}
	videoPath := composite.Video.Common().FileName
	audioPath := composite.Audio.Common().FileName
	if videoPath == "" || audioPath == "" {
		return path, fmt.Errorf("constituents of %s are not downloaded", composite.FormatID)
	}

	args := []string{"-c", "copy", "-map", "0:v:0", "-map", "1:a:0"}
	if err := m.Runner.Run(ctx, []string{videoPath, audioPath}, args, path); err != nil {
		return path, err
	}

	if !m.KeepParts {
		os.Remove(videoPath)
		os.Remove(audioPath)
	}
	return path, nil
}
