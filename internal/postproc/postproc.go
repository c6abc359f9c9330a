package postproc

import (
	"context"
	"fmt"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/progress"
)

// PostProcessor transforms a downloaded file. Applies decides, from the
// format's capabilities, whether the processor has work to do; Run performs
// it and returns the path of the resulting file, which may differ from the
// input when the container changed.
type PostProcessor interface {
	Name() string
	Applies(f model.Format) bool
	Run(ctx context.Context, f model.Format, path string) (string, error)
}

// Chain runs post-processors in order, feeding each one's output path to the
// next and recording the final path on the format.
type Chain struct {
	processors []PostProcessor
	log        progress.LogFunc
}

// NewChain builds a chain over the given processors.
func NewChain(log progress.LogFunc, processors ...PostProcessor) *Chain {
	return &Chain{processors: processors, log: log}
}

// Run applies every applicable processor to the format's file.
func (c *Chain) Run(ctx context.Context, f model.Format, path string) (string, error) {
	for _, p := range c.processors {
		if !p.Applies(f) {
			c.logf(progress.SeverityDebug, "%s: not applicable to format %s, skipping",
				p.Name(), f.Common().FormatID)
			continue
		}
		c.logf(progress.SeverityInfo, "%s: processing %s", p.Name(), path)

		next, err := p.Run(ctx, f, path)
		if err != nil {
			return path, fmt.Errorf("%s: %w", p.Name(), err)
		}
		path = next
		f.Common().FileName = path
	}
	return path, nil
}

func (c *Chain) logf(sev progress.Severity, format string, args ...any) {
	if c.log != nil {
		c.log(progress.LogEvent{
			Severity: sev,
			Sender:   []string{"postproc"},
			Message:  fmt.Sprintf(format, args...),
		})
	}
}
