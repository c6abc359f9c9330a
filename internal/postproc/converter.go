package postproc

import (
	"context"
	"fmt"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
)

// Converter remuxes or transcodes a file into another container.
type Converter struct {
	Runner *Runner

	// TargetExtension is the container to convert into, e.g. "mkv".
	TargetExtension string
}

// NewConverter returns a converter targeting ext.
func NewConverter(runner *Runner, ext string) *Converter {
	return &Converter{Runner: runner, TargetExtension: ext}
}

// Name implements PostProcessor.
func (c *Converter) Name() string { return "converter" }

// Applies implements PostProcessor.
func (c *Converter) Applies(f model.Format) bool { return c.TargetExtension != "" }

// Run converts path into the target container next to the original file.
func (c *Converter) Run(ctx context.Context, f model.Format, path string) (string, error) {
	if platform.DetermineExt(path) == c.TargetExtension {
		return path, fmt.Errorf("%s is already in the %s container", path, c.TargetExtension)
	}

	output := platform.ChangeExtension(path, c.TargetExtension)
	if err := c.Runner.Run(ctx, []string{path}, nil, output); err != nil {
		return path, err
	}
	f.Common().Extension = c.TargetExtension
	return output, nil
}
