package postproc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/ytget/vidgrab/internal/platform"
	"github.com/ytget/vidgrab/internal/progress"
)

// Executable and probe constants.
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"

	// stderrTailLines is how much tool output an error report keeps.
	stderrTailLines = 20
)

var (
	durationRe = regexp.MustCompile(`Duration: ([^,]*), `)
	timeRe     = regexp.MustCompile(`time=\s*([^ ]*)`)
)

// Runner invokes ffmpeg and ffprobe, parsing progress from ffmpeg's stderr.
type Runner struct {
	// FFmpegPath and FFprobePath override the executables found on PATH.
	FFmpegPath  string
	FFprobePath string

	// Progress receives transcode position events in milliseconds. May be nil.
	Progress progress.Func

	// Log receives diagnostic events. May be nil.
	Log progress.LogFunc
}

// NewRunner returns a runner using the executables on PATH.
func NewRunner() *Runner {
	return &Runner{FFmpegPath: FFmpegCommand, FFprobePath: FFprobeCommand}
}

// Available reports whether the ffmpeg executable can be found.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.FFmpegPath)
	return err == nil
}

// Run executes ffmpeg over the inputs with the given extra arguments and a
// single trailing output path. Output files are overwritten.
func (r *Runner) Run(ctx context.Context, inputs []string, extraArgs []string, output string) error {
	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args, extraArgs...)
	args = append(args, output)

	r.logf(progress.SeverityDebug, "%s %s", r.FFmpegPath, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.FFmpegPath, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", r.FFmpegPath, err)
	}

	tail := r.scanStderr(stderr)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ToolError{Tool: FFmpegCommand, Output: tail, Err: err}
	}
	return nil
}

// scanStderr consumes ffmpeg's stderr, emitting progress events from the
// "Duration:" and "time=" markers and collecting the output tail for error
// reports. ffmpeg separates status updates with carriage returns.
func (r *Runner) scanStderr(stderr io.Reader) string {
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanCRLines)

	var (
		totalMs int64 = -1
		started       = time.Now()
		tail    []string
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		tail = append(tail, line)
		if len(tail) > stderrTailLines {
			tail = tail[1:]
		}

		if m := durationRe.FindStringSubmatch(line); m != nil {
			if d, ok := platform.ParseFFmpegTime(m[1]); ok {
				totalMs = d.Milliseconds()
			}
		}
		if m := timeRe.FindStringSubmatch(line); m != nil {
			if pos, ok := platform.ParseFFmpegTime(m[1]); ok && r.Progress != nil {
				r.Progress(progress.NewEvent(pos.Milliseconds(), totalMs, "ms", started))
			}
		}
	}
	return strings.Join(tail, "\n")
}

// scanCRLines splits on both newlines and the carriage returns ffmpeg uses
// for in-place status updates.
func scanCRLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ProbeAudioCodec returns the codec name of the first audio stream.
func (r *Runner) ProbeAudioCodec(ctx context.Context, path string) (string, error) {
	out, err := r.probe(ctx,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name",
		"-of", "csv=p=0",
		path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ProbeDuration returns the container duration.
func (r *Runner) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	out, err := r.probe(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path)
	if err != nil {
		return 0, err
	}
	seconds := strings.TrimSpace(out)
	var value float64
	if _, err := fmt.Sscanf(seconds, "%f", &value); err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", seconds, err)
	}
	return time.Duration(value * float64(time.Second)), nil
}

func (r *Runner) probe(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.FFprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ToolError{Tool: FFprobeCommand, Output: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}

func (r *Runner) logf(sev progress.Severity, format string, args ...any) {
	if r.Log != nil {
		r.Log(progress.LogEvent{
			Severity: sev,
			Sender:   []string{"postproc"},
			Message:  fmt.Sprintf(format, args...),
		})
	}
}
