package postproc

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
)

// FixupStretched rewrites the display aspect ratio of files whose container
// advertises a ratio differing from the encoded one.
type FixupStretched struct {
	Runner *Runner
}

// Name implements PostProcessor.
func (p *FixupStretched) Name() string { return "fixup-stretched" }

// Applies implements PostProcessor.
func (p *FixupStretched) Applies(f model.Format) bool {
	return stretchedRatio(f) != 0
}

// Run rewrites the aspect ratio in place with a stream copy.
func (p *FixupStretched) Run(ctx context.Context, f model.Format, path string) (string, error) {
	ratio := stretchedRatio(f)
	args := []string{"-c", "copy", "-aspect", strconv.FormatFloat(ratio, 'f', -1, 64)}
	return rewriteInPlace(ctx, p.Runner, path, args)
}

// stretchedRatio returns the format's stretched display ratio, or 0 when the
// container needs no repair.
func stretchedRatio(f model.Format) float64 {
	value, ok := f.Field("stretched_ratio")
	if !ok {
		return 0
	}
	ratio, ok := value.(float64)
	if !ok || ratio == 0 || ratio == 1 {
		return 0
	}
	return ratio
}

// FixupM4A moves DASH audio segments into a proper mp4 container; players
// refuse the raw segment concatenation.
type FixupM4A struct {
	Runner *Runner
}

// Name implements PostProcessor.
func (p *FixupM4A) Name() string { return "fixup-m4a" }

// Applies implements PostProcessor.
func (p *FixupM4A) Applies(f model.Format) bool {
	return f.Common().Extension == "m4a" && f.Common().Container == "m4a_dash"
}

// Run remuxes the file in place.
func (p *FixupM4A) Run(ctx context.Context, f model.Format, path string) (string, error) {
	return rewriteInPlace(ctx, p.Runner, path, []string{"-c", "copy", "-f", "mp4"})
}

// FixupM3U8 remuxes HLS downloads whose MPEG-TS audio needs the ADTS-to-ASC
// bitstream conversion before it plays in an mp4 container.
type FixupM3U8 struct {
	Runner *Runner
}

// Name implements PostProcessor.
func (p *FixupM3U8) Name() string { return "fixup-m3u8" }

// Applies implements PostProcessor.
func (p *FixupM3U8) Applies(f model.Format) bool {
	c := f.Common()
	return c.Protocol() == "m3u8" && c.Extension == "mp4"
}

// Run remuxes the file in place.
func (p *FixupM3U8) Run(ctx context.Context, f model.Format, path string) (string, error) {
	args := []string{"-c", "copy", "-f", "mp4", "-bsf:a", "aac_adtstoasc"}
	return rewriteInPlace(ctx, p.Runner, path, args)
}

// rewriteInPlace runs ffmpeg into a temporary sibling and renames it over
// the original on success.
func rewriteInPlace(ctx context.Context, runner *Runner, path string, args []string) (string, error) {
	ext := platform.DetermineExt(path)
	temp := platform.ChangeExtension(path, "temp."+ext)

	if err := runner.Run(ctx, []string{path}, args, temp); err != nil {
		os.Remove(temp)
		return path, err
	}
	if err := os.Rename(temp, path); err != nil {
		return path, fmt.Errorf("rename %s: %w", temp, err)
	}
	return path, nil
}
