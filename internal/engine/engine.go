package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/download"
	"github.com/ytget/vidgrab/internal/extractor"
	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/postproc"
	"github.com/ytget/vidgrab/internal/progress"
	"github.com/ytget/vidgrab/internal/selector"
)

// Engine drives the pipeline from URL to finished file.
type Engine struct {
	opts     config.Options
	registry *extractor.Registry
	dl       *download.Downloader
	runner   *postproc.Runner
	chain    *postproc.Chain
	selectFn selector.SelectorFunc

	log      progress.LogFunc
	progress progress.Func
	out      io.Writer

	mu           sync.Mutex
	numDownloads int
	jobs         []*Job
}

// Job tracks one top-level URL through the run.
type Job struct {
	ID        string
	URL       string
	Status    model.TaskStatus
	LastError string
	StartedAt time.Time
}

// New builds an engine from options and an extractor registry.
func New(opts config.Options, registry *extractor.Registry) (*Engine, error) {
	selectFn, err := selector.Build(opts.Format, opts.MergeOutputFormat)
	if err != nil {
		return nil, err
	}

	dl := download.New()
	if opts.Threads > 1 {
		dl.Threads = opts.Threads
	}
	if opts.ChunkSize > 0 {
		dl.ChunkSize = opts.ChunkSize
	}
	dl.RateLimit = opts.RateLimitBytes()
	dl.DoubleBuffer = opts.DoubleBuffer

	e := &Engine{
		opts:     opts,
		registry: registry,
		dl:       dl,
		runner:   postproc.NewRunner(),
		selectFn: selectFn,
		log:      progress.DefaultLogSink,
		out:      os.Stdout,
	}
	e.chain = e.buildChain()
	e.dl.Log = e.emitLog
	e.runner.Log = e.emitLog
	return e, nil
}

// SetLogFunc replaces the log sink.
func (e *Engine) SetLogFunc(fn progress.LogFunc) {
	e.log = fn
	e.dl.Log = e.emitLog
	e.runner.Log = e.emitLog
}

// SetProgressFunc installs a progress sink for downloads and transcodes.
func (e *Engine) SetProgressFunc(fn progress.Func) {
	e.progress = fn
	e.dl.Progress = fn
	e.runner.Progress = fn
}

// SetOutput redirects forced printings, which default to stdout.
func (e *Engine) SetOutput(w io.Writer) { e.out = w }

// Download resolves and downloads every URL. Processing continues past
// per-URL failures; reaching the configured download limit stops the run.
func (e *Engine) Download(ctx context.Context, urls ...string) error {
	var lastErr error
	for _, url := range urls {
		job := e.newJob(url)

		_, err := e.Extract(ctx, url, true)
		if err != nil {
			if errors.Is(err, ErrMaxDownloads) {
				e.finishJob(job, model.TaskStatusStopped, err)
				e.logf(progress.SeverityInfo, "%v", err)
				return nil
			}
			e.finishJob(job, model.TaskStatusError, err)
			e.logf(progress.SeverityError, "%s: %v", url, err)
			lastErr = err
			continue
		}
		e.finishJob(job, model.TaskStatusCompleted, nil)
	}
	return lastErr
}

// Extract resolves a URL into a fully processed record. With download set,
// selected formats are fetched and post-processed along the way.
func (e *Engine) Extract(ctx context.Context, url string, doDownload bool) (model.Record, error) {
	res := e.registry.Dispatch(ctx, url)
	switch res.Status {
	case extractor.StatusNotSuitable:
		return nil, fmt.Errorf("no suitable extractor for %s", url)
	case extractor.StatusFailed:
		return nil, res.Err
	}
	return e.ProcessResult(ctx, res.Record, nil, doDownload)
}

// ProcessResult walks one metadata record: videos are selected and
// downloaded, playlists fan out over their entries, URL records are resolved
// through the registry and reprocessed.
func (e *Engine) ProcessResult(ctx context.Context, record model.Record, extra map[string]any, dl bool) (model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch record.Kind() {
	case model.KindVideo:
		video := record.(*model.Video)
		if extra != nil {
			model.AddExtraInfo(video, extra, false)
		}
		return video, e.processVideo(ctx, video, dl)

	case model.KindPlaylist:
		playlist := record.(*model.Playlist)
		if extra != nil {
			model.AddExtraInfo(playlist, extra, false)
		}
		return playlist, e.processPlaylist(ctx, playlist, dl)

	case model.KindURL:
		ref := record.(*model.ContentURL)
		res := e.resolveURL(ctx, ref)
		if res.Status != extractor.StatusMatched {
			return nil, e.dispatchError(ref.URL, res)
		}
		return e.ProcessResult(ctx, res.Record, extra, dl)

	case model.KindURLTransparent:
		ref := record.(*model.TransparentURL)
		res := e.resolveURL(ctx, &ref.ContentURL)
		if res.Status != extractor.StatusMatched {
			return nil, e.dispatchError(ref.URL, res)
		}
		// Fields the referring extractor supplied override the fresh
		// extraction.
		overrides := map[string]any{}
		for k, v := range ref.Extras {
			overrides[k] = v
		}
		model.AddExtraInfo(res.Record, overrides, true)
		return e.ProcessResult(ctx, res.Record, extra, dl)
	}
	return nil, fmt.Errorf("cannot process %s records", record.Kind())
}

func (e *Engine) resolveURL(ctx context.Context, ref *model.ContentURL) extractor.Result {
	if ref.IEKey != "" {
		return e.registry.DispatchTo(ctx, ref.IEKey, ref.URL)
	}
	return e.registry.Dispatch(ctx, ref.URL)
}

func (e *Engine) dispatchError(url string, res extractor.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return fmt.Errorf("no suitable extractor for %s", url)
}

// reserveDownload enforces the download limit. Callers must not download
// when it errors.
func (e *Engine) reserveDownload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opts.MaxDownloads > 0 && e.numDownloads >= e.opts.MaxDownloads {
		return ErrMaxDownloads
	}
	e.numDownloads++
	return nil
}

// NumDownloads returns how many videos the run has downloaded so far.
func (e *Engine) NumDownloads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.numDownloads
}

// buildChain assembles the post-processing chain from the options.
func (e *Engine) buildChain() *postproc.Chain {
	var processors []postproc.PostProcessor
	processors = append(processors, postproc.NewMerger(e.runner))

	fixups := []postproc.PostProcessor{
		&postproc.FixupStretched{Runner: e.runner},
		&postproc.FixupM4A{Runner: e.runner},
		&postproc.FixupM3U8{Runner: e.runner},
	}
	switch e.opts.Fixup {
	case config.FixupDetectOrWarn:
		processors = append(processors, fixups...)
	case config.FixupWarn:
		for _, p := range fixups {
			processors = append(processors, &warnOnly{p: p, log: e.emitLog})
		}
	}

	if e.opts.RecodeFormat != "" {
		processors = append(processors, postproc.NewConverter(e.runner, e.opts.RecodeFormat))
	}
	if e.opts.ExtractAudio {
		a := postproc.NewAudioExtractor(e.runner, e.opts.AudioFormat, e.opts.AudioQuality)
		a.KeepOriginal = e.opts.KeepVideo
		processors = append(processors, a)
	}
	return postproc.NewChain(e.emitLog, processors...)
}

// warnOnly reports that a file needs repair without touching it.
type warnOnly struct {
	p   postproc.PostProcessor
	log progress.LogFunc
}

func (w *warnOnly) Name() string { return w.p.Name() }

func (w *warnOnly) Applies(f model.Format) bool { return w.p.Applies(f) }

func (w *warnOnly) Run(ctx context.Context, f model.Format, path string) (string, error) {
	w.log(progress.LogEvent{
		Severity: progress.SeverityWarning,
		Sender:   []string{"engine"},
		Message:  fmt.Sprintf("%s: %s needs repair, pass fixup policy %q to repair it", w.p.Name(), path, config.FixupDetectOrWarn),
	})
	return path, nil
}

func (e *Engine) newJob(url string) *Job {
	job := &Job{
		ID:        jobID(),
		URL:       url,
		Status:    model.TaskStatusDownloading,
		StartedAt: time.Now(),
	}
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	e.mu.Unlock()
	return job
}

func (e *Engine) finishJob(job *Job, status model.TaskStatus, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job.Status = status
	if err != nil {
		job.LastError = err.Error()
	}
}

// Jobs returns the run's top-level jobs in submission order.
func (e *Engine) Jobs() []*Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	jobs := make([]*Job, len(e.jobs))
	copy(jobs, e.jobs)
	return jobs
}

func jobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("job-%d", time.Now().UnixNano())
	}
	return "job-" + id.String()
}

func (e *Engine) emitLog(ev progress.LogEvent) {
	if e.log != nil {
		e.log(ev)
	}
}

func (e *Engine) logf(sev progress.Severity, format string, args ...any) {
	e.emitLog(progress.LogEvent{
		Severity: sev,
		Sender:   []string{"engine"},
		Message:  fmt.Sprintf(format, args...),
	})
}
