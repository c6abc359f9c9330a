// Package config holds the options controlling extraction, format selection,
// downloading and post-processing, loadable from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ytget/vidgrab/internal/platform"
)

// DateLayout is the YYYYMMDD form used by the date_after/date_before bounds.
const DateLayout = "20060102"

// Fixup policies for known container defects.
const (
	FixupNever        = "never"
	FixupWarn         = "warn"
	FixupDetectOrWarn = "detect_or_warn"
)

// Default values.
const (
	DefaultFormatSpec     = "bestvideo+bestaudio/best"
	DefaultOutputTemplate = "{title}-{id}-{format_id}.{ext}"
	DefaultMaxParallel    = 2
	DefaultSubtitleFormat = "best"
	DefaultAudioQuality   = 5
	DefaultFixup          = FixupDetectOrWarn
	DefaultCacheFile      = "vidgrab-cache.db"
)

// Environment variable names honored by ApplyEnv.
const (
	EnvFormat      = "VIDGRAB_FORMAT"
	EnvOutput      = "VIDGRAB_OUTPUT"
	EnvDownloadDir = "VIDGRAB_DOWNLOAD_DIR"
	EnvMaxParallel = "VIDGRAB_MAX_PARALLEL"
	EnvRateLimit   = "VIDGRAB_RATE_LIMIT"
	EnvVerbose     = "VIDGRAB_VERBOSE"
)

// Options configures a processing run. The zero value is not usable;
// start from Default.
type Options struct {
	// Format is the format selection spec.
	Format string `yaml:"format"`

	// MergeOutputFormat overrides the container of merged composite
	// formats, e.g. "mkv".
	MergeOutputFormat string `yaml:"merge_output_format"`

	// OutputTemplate names downloaded files; {field} and {field:fmt}
	// references are expanded from the video's metadata.
	OutputTemplate string `yaml:"output_template"`

	// DownloadDir is prepended to relative output paths.
	DownloadDir string `yaml:"download_dir"`

	// RestrictFilenames limits output names to a portable character set.
	RestrictFilenames bool `yaml:"restrict_filenames"`

	// NoOverwrites skips downloads whose target file already exists.
	NoOverwrites bool `yaml:"no_overwrites"`

	// Simulate suppresses all filesystem writes.
	Simulate bool `yaml:"simulate"`

	// SkipDownload extracts and post-checks but does not download.
	SkipDownload bool `yaml:"skip_download"`

	// MaxDownloads aborts the run after this many downloads. Zero means
	// unlimited.
	MaxDownloads int `yaml:"max_downloads"`

	// MaxParallel bounds concurrent entry processing within a playlist.
	MaxParallel int `yaml:"max_parallel"`

	// Playlist windowing: 1-based inclusive start/end positions, an
	// explicit list of 0-based entry indexes (which wins over start/end),
	// and entry ordering.
	PlaylistStart   int   `yaml:"playlist_start"`
	PlaylistEnd     int   `yaml:"playlist_end"`
	PlaylistItems   []int `yaml:"playlist_items"`
	PlaylistReverse bool  `yaml:"playlist_reverse"`
	PlaylistRandom  bool  `yaml:"playlist_random"`

	// MatchTitle and RejectTitle filter entries by title regex.
	MatchTitle  string `yaml:"match_title"`
	RejectTitle string `yaml:"reject_title"`

	// MinViews and MaxViews filter entries by view count. Zero disables.
	MinViews int64 `yaml:"min_views"`
	MaxViews int64 `yaml:"max_views"`

	// DateAfter and DateBefore keep entries uploaded inside the inclusive
	// range, as YYYYMMDD dates. Empty disables the bound.
	DateAfter  string `yaml:"date_after"`
	DateBefore string `yaml:"date_before"`

	// RateLimit caps download bandwidth, e.g. "500K" or "4.2MiB".
	RateLimit string `yaml:"rate_limit"`

	// ChunkSize overrides the ranged-request size in bytes.
	ChunkSize int64 `yaml:"chunk_size"`

	// Threads is the connection count per download; values above 1 enable
	// the multi-connection downloader.
	Threads int `yaml:"threads"`

	// DoubleBuffer overlaps network reads with disk writes.
	DoubleBuffer bool `yaml:"double_buffer"`

	// Forced printings to stdout before downloading.
	PrintID          bool `yaml:"print_id"`
	PrintTitle       bool `yaml:"print_title"`
	PrintURL         bool `yaml:"print_url"`
	PrintThumbnail   bool `yaml:"print_thumbnail"`
	PrintDescription bool `yaml:"print_description"`
	PrintDuration    bool `yaml:"print_duration"`
	PrintFilename    bool `yaml:"print_filename"`
	PrintFormat      bool `yaml:"print_format"`
	PrintJSON        bool `yaml:"print_json"`
	ListFormats      bool `yaml:"list_formats"`
	ListThumbnails   bool `yaml:"list_thumbnails"`
	ListSubtitles    bool `yaml:"list_subtitles"`

	// Sidecar files written next to the download.
	WriteDescription bool `yaml:"write_description"`
	WriteAnnotations bool `yaml:"write_annotations"`
	WriteInfoJSON    bool `yaml:"write_info_json"`

	// Subtitle selection.
	WriteSubtitles     bool     `yaml:"write_subtitles"`
	WriteAutoSubtitles bool     `yaml:"write_auto_subtitles"`
	SubtitleLangs      []string `yaml:"subtitle_langs"`
	SubtitleFormat     string   `yaml:"subtitle_format"`

	// Post-processing.
	ExtractAudio bool   `yaml:"extract_audio"`
	AudioFormat  string `yaml:"audio_format"`
	AudioQuality int    `yaml:"audio_quality"`
	RecodeFormat string `yaml:"recode_format"`
	KeepVideo    bool   `yaml:"keep_video"`
	Fixup        string `yaml:"fixup"`

	// CachePath locates the extractor cache database. Empty disables
	// caching.
	CachePath string `yaml:"cache_path"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		Format:         DefaultFormatSpec,
		OutputTemplate: DefaultOutputTemplate,
		MaxParallel:    DefaultMaxParallel,
		PlaylistStart:  1,
		SubtitleFormat: DefaultSubtitleFormat,
		AudioQuality:   DefaultAudioQuality,
		Fixup:          DefaultFixup,
		Threads:        1,
		CachePath:      DefaultCacheFile,
	}
}

// Load reads a YAML options file over the defaults.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config %s: %w", path, err)
	}
	return opts, opts.Validate()
}

// ApplyEnv overrides options from VIDGRAB_* environment variables.
func (o *Options) ApplyEnv() {
	if v := os.Getenv(EnvFormat); v != "" {
		o.Format = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		o.OutputTemplate = v
	}
	if v := os.Getenv(EnvDownloadDir); v != "" {
		o.DownloadDir = v
	}
	if v := os.Getenv(EnvMaxParallel); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			o.MaxParallel = n
		}
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		o.RateLimit = v
	}
	if v := os.Getenv(EnvVerbose); v == "1" || v == "true" {
		o.Verbose = true
	}
}

// Validate reports structurally invalid option combinations.
func (o *Options) Validate() error {
	if o.PlaylistStart < 1 {
		return fmt.Errorf("playlist_start must be at least 1, got %d", o.PlaylistStart)
	}
	if o.PlaylistEnd != 0 && o.PlaylistEnd < o.PlaylistStart {
		return fmt.Errorf("playlist_end %d precedes playlist_start %d", o.PlaylistEnd, o.PlaylistStart)
	}
	if o.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be at least 1, got %d", o.MaxParallel)
	}
	switch o.Fixup {
	case FixupNever, FixupWarn, FixupDetectOrWarn:
	default:
		return fmt.Errorf("unknown fixup policy %q", o.Fixup)
	}
	if o.RateLimit != "" {
		if _, ok := parseByteSize(o.RateLimit); !ok {
			return fmt.Errorf("unparsable rate_limit %q", o.RateLimit)
		}
	}
	for _, date := range []string{o.DateAfter, o.DateBefore} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("unparsable date %q, want YYYYMMDD", date)
		}
	}
	return nil
}

// parseByteSize reads a size with an optional unit; a bare "500K" gets an
// implicit byte suffix.
func parseByteSize(s string) (int64, bool) {
	if n, ok := platform.ParseFilesize(s); ok {
		return n, true
	}
	return platform.ParseFilesize(s + "B")
}

// RateLimitBytes returns the configured bandwidth cap in bytes per second,
// or zero when unlimited.
func (o *Options) RateLimitBytes() int64 {
	if o.RateLimit == "" {
		return 0
	}
	n, ok := parseByteSize(o.RateLimit)
	if !ok {
		return 0
	}
	return n
}
