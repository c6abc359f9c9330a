package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ytget/vidgrab/internal/cache"
	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/engine"
	"github.com/ytget/vidgrab/internal/extractor"
	"github.com/ytget/vidgrab/internal/progress"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run() error {
	opts, urls, err := parseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	logSetup(opts.Verbose)

	if len(urls) == 0 {
		return fmt.Errorf("no URLs given, see -h for usage")
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	var store *cache.Cache
	if opts.CachePath != "" {
		store, err = cache.Open(opts.CachePath)
		if err != nil {
			log.Warnf("extractor cache disabled: %v", err)
		} else {
			defer store.Close()
		}
	}

	registry := extractor.NewRegistry(store, progress.DefaultLogSink)
	// The direct extractor claims every HTTP(S) URL, so it goes last.
	registry.Register(extractor.Direct{})

	eng, err := engine.New(opts, registry)
	if err != nil {
		return err
	}
	eng.SetProgressFunc(newProgressPrinter().print)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return eng.Download(ctx, urls...)
}

// parseArgs reads flags over the config file and environment. Precedence is
// flags > VIDGRAB_* environment > config file > defaults.
func parseArgs(args []string) (config.Options, []string, error) {
	fs := flag.NewFlagSet("vidgrab", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "vidgrab %s - media downloader\n\n", version)
		fmt.Fprintf(fs.Output(), "usage: vidgrab [options] URL [URL...]\n\n")
		fs.PrintDefaults()
	}

	defaults := config.Default()
	var (
		configPath    = fs.String("config", "", "path to a YAML config file")
		playlistItems = fs.String("playlist-items", "", "comma-separated 0-based playlist entry indexes to download")
		subLangs      = fs.String("sub-langs", "", "comma-separated subtitle languages, empty means all")
		showVersion   = fs.Bool("version", false, "print the version and exit")
	)

	opts := defaults
	fs.StringVar(&opts.Format, "f", defaults.Format, "format selection spec")
	fs.StringVar(&opts.MergeOutputFormat, "merge-output-format", "", "container for merged formats, e.g. mkv")
	fs.StringVar(&opts.OutputTemplate, "o", defaults.OutputTemplate, "output filename template")
	fs.StringVar(&opts.DownloadDir, "dir", "", "directory for downloaded files")
	fs.BoolVar(&opts.RestrictFilenames, "restrict-filenames", false, "limit filenames to a portable character set")
	fs.BoolVar(&opts.NoOverwrites, "w", false, "do not overwrite existing files")
	fs.BoolVar(&opts.Simulate, "s", false, "simulate, do not write anything to disk")
	fs.BoolVar(&opts.SkipDownload, "skip-download", false, "do not download the video")
	fs.IntVar(&opts.MaxDownloads, "max-downloads", 0, "abort after this many downloads")
	fs.IntVar(&opts.MaxParallel, "max-parallel", defaults.MaxParallel, "concurrent playlist entry downloads")
	fs.IntVar(&opts.PlaylistStart, "playlist-start", defaults.PlaylistStart, "playlist position to start at")
	fs.IntVar(&opts.PlaylistEnd, "playlist-end", 0, "playlist position to end at, 0 means last")
	fs.BoolVar(&opts.PlaylistReverse, "playlist-reverse", false, "process playlist entries in reverse order")
	fs.BoolVar(&opts.PlaylistRandom, "playlist-random", false, "process playlist entries in random order")
	fs.StringVar(&opts.MatchTitle, "match-title", "", "only download entries whose title matches the regex")
	fs.StringVar(&opts.RejectTitle, "reject-title", "", "skip entries whose title matches the regex")
	fs.Int64Var(&opts.MinViews, "min-views", 0, "skip entries with fewer views")
	fs.Int64Var(&opts.MaxViews, "max-views", 0, "skip entries with more views")
	fs.StringVar(&opts.DateAfter, "date-after", "", "skip entries uploaded before this YYYYMMDD date")
	fs.StringVar(&opts.DateBefore, "date-before", "", "skip entries uploaded after this YYYYMMDD date")
	fs.StringVar(&opts.RateLimit, "r", "", "download rate limit, e.g. 500K or 4.2MiB")
	fs.Int64Var(&opts.ChunkSize, "chunk-size", 0, "ranged-request size in bytes")
	fs.IntVar(&opts.Threads, "threads", defaults.Threads, "connections per download")
	fs.BoolVar(&opts.DoubleBuffer, "double-buffer", false, "overlap network reads with disk writes")
	fs.BoolVar(&opts.PrintID, "get-id", false, "print the video id")
	fs.BoolVar(&opts.PrintTitle, "get-title", false, "print the video title")
	fs.BoolVar(&opts.PrintURL, "g", false, "print the media URLs of the selected formats")
	fs.BoolVar(&opts.PrintThumbnail, "get-thumbnail", false, "print the preferred thumbnail URL")
	fs.BoolVar(&opts.PrintDescription, "get-description", false, "print the video description")
	fs.BoolVar(&opts.PrintDuration, "get-duration", false, "print the duration in seconds")
	fs.BoolVar(&opts.PrintFilename, "get-filename", false, "print the templated output filename")
	fs.BoolVar(&opts.PrintFormat, "get-format", false, "print the selected format ids")
	fs.BoolVar(&opts.PrintJSON, "j", false, "print the video metadata as JSON")
	fs.BoolVar(&opts.ListFormats, "F", false, "list available formats and exit")
	fs.BoolVar(&opts.ListThumbnails, "list-thumbnails", false, "list available thumbnails and exit")
	fs.BoolVar(&opts.ListSubtitles, "list-subs", false, "list available subtitles and exit")
	fs.BoolVar(&opts.WriteDescription, "write-description", false, "write the description to a sidecar file")
	fs.BoolVar(&opts.WriteAnnotations, "write-annotations", false, "write annotations to a sidecar file")
	fs.BoolVar(&opts.WriteInfoJSON, "write-info-json", false, "write the metadata to a sidecar json file")
	fs.BoolVar(&opts.WriteSubtitles, "write-subs", false, "download subtitles")
	fs.BoolVar(&opts.WriteAutoSubtitles, "write-auto-subs", false, "download automatic captions")
	fs.StringVar(&opts.SubtitleFormat, "sub-format", defaults.SubtitleFormat, "preferred subtitle container")
	fs.BoolVar(&opts.ExtractAudio, "x", false, "extract audio after downloading")
	fs.StringVar(&opts.AudioFormat, "audio-format", "", "audio container for -x, e.g. mp3 or m4a")
	fs.IntVar(&opts.AudioQuality, "audio-quality", defaults.AudioQuality, "audio quality: 0-9 for VBR or a bitrate in kbit/s")
	fs.StringVar(&opts.RecodeFormat, "recode-video", "", "re-encode the video into this container")
	fs.BoolVar(&opts.KeepVideo, "k", false, "keep the video file after audio extraction")
	fs.StringVar(&opts.Fixup, "fixup", defaults.Fixup, "container defect policy: never, warn or detect_or_warn")
	fs.StringVar(&opts.CachePath, "cache", defaults.CachePath, "extractor cache database, empty disables")
	fs.BoolVar(&opts.Verbose, "v", false, "verbose output")

	if err := fs.Parse(args); err != nil {
		return opts, nil, err
	}
	if *showVersion {
		fmt.Println("vidgrab " + version)
		os.Exit(0)
	}

	// A config file and the environment supply values under the flags, so
	// explicitly-set flags are replayed on top.
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return opts, nil, err
		}
		opts = loaded
	}
	opts.ApplyEnv()
	fs.Visit(func(f *flag.Flag) {
		applyFlag(&opts, f)
	})

	if *playlistItems != "" {
		items, err := parseIntList(*playlistItems)
		if err != nil {
			return opts, nil, fmt.Errorf("playlist-items: %w", err)
		}
		opts.PlaylistItems = items
	}
	if *subLangs != "" {
		opts.SubtitleLangs = splitList(*subLangs)
	}
	return opts, fs.Args(), nil
}

// applyFlag copies one explicitly-set flag value into the options.
func applyFlag(o *config.Options, f *flag.Flag) {
	v := f.Value.String()
	switch f.Name {
	case "f":
		o.Format = v
	case "merge-output-format":
		o.MergeOutputFormat = v
	case "o":
		o.OutputTemplate = v
	case "dir":
		o.DownloadDir = v
	case "restrict-filenames":
		o.RestrictFilenames = v == "true"
	case "w":
		o.NoOverwrites = v == "true"
	case "s":
		o.Simulate = v == "true"
	case "skip-download":
		o.SkipDownload = v == "true"
	case "max-downloads":
		o.MaxDownloads = atoi(v)
	case "max-parallel":
		o.MaxParallel = atoi(v)
	case "playlist-start":
		o.PlaylistStart = atoi(v)
	case "playlist-end":
		o.PlaylistEnd = atoi(v)
	case "playlist-reverse":
		o.PlaylistReverse = v == "true"
	case "playlist-random":
		o.PlaylistRandom = v == "true"
	case "match-title":
		o.MatchTitle = v
	case "reject-title":
		o.RejectTitle = v
	case "min-views":
		o.MinViews = int64(atoi(v))
	case "max-views":
		o.MaxViews = int64(atoi(v))
	case "date-after":
		o.DateAfter = v
	case "date-before":
		o.DateBefore = v
	case "r":
		o.RateLimit = v
	case "chunk-size":
		o.ChunkSize = int64(atoi(v))
	case "threads":
		o.Threads = atoi(v)
	case "double-buffer":
		o.DoubleBuffer = v == "true"
	case "get-id":
		o.PrintID = v == "true"
	case "get-title":
		o.PrintTitle = v == "true"
	case "g":
		o.PrintURL = v == "true"
	case "get-thumbnail":
		o.PrintThumbnail = v == "true"
	case "get-description":
		o.PrintDescription = v == "true"
	case "get-duration":
		o.PrintDuration = v == "true"
	case "get-filename":
		o.PrintFilename = v == "true"
	case "get-format":
		o.PrintFormat = v == "true"
	case "j":
		o.PrintJSON = v == "true"
	case "F":
		o.ListFormats = v == "true"
	case "list-thumbnails":
		o.ListThumbnails = v == "true"
	case "list-subs":
		o.ListSubtitles = v == "true"
	case "write-description":
		o.WriteDescription = v == "true"
	case "write-annotations":
		o.WriteAnnotations = v == "true"
	case "write-info-json":
		o.WriteInfoJSON = v == "true"
	case "write-subs":
		o.WriteSubtitles = v == "true"
	case "write-auto-subs":
		o.WriteAutoSubtitles = v == "true"
	case "sub-format":
		o.SubtitleFormat = v
	case "x":
		o.ExtractAudio = v == "true"
	case "audio-format":
		o.AudioFormat = v
	case "audio-quality":
		o.AudioQuality = atoi(v)
	case "recode-video":
		o.RecodeFormat = v
	case "k":
		o.KeepVideo = v == "true"
	case "fixup":
		o.Fixup = v
	case "cache":
		o.CachePath = v
	case "v":
		o.Verbose = v == "true"
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseIntList(s string) ([]int, error) {
	var items []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad position %q", part)
		}
		items = append(items, n)
	}
	return items, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func logSetup(verbose bool) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// progressPrinter renders download and transcode progress on one terminal
// line, rate-limited to avoid flooding slow terminals.
type progressPrinter struct {
	mu   sync.Mutex
	last time.Time
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{}
}

func (p *progressPrinter) print(e progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	done := e.HasTotal() && e.Value >= e.Total
	if !done && time.Since(p.last) < 250*time.Millisecond {
		return
	}
	p.last = time.Now()

	if !e.HasTotal() {
		fmt.Fprintf(os.Stderr, "\r%12d %s at %s ", e.Value, e.Unit, e.SpeedString())
		return
	}
	fmt.Fprintf(os.Stderr, "\r%6.1f%% of %d %s at %s ETA %s ",
		e.Percent(), e.Total, e.Unit, e.SpeedString(), formatETA(e.ETA()))
	if done {
		fmt.Fprintln(os.Stderr)
	}
}

func formatETA(d time.Duration) string {
	if d < 0 {
		return "--:--"
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
