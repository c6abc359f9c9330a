package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	opts := Default()

	if opts.Format != DefaultFormatSpec {
		t.Errorf("Format = %q, want %q", opts.Format, DefaultFormatSpec)
	}
	if opts.OutputTemplate != DefaultOutputTemplate {
		t.Errorf("OutputTemplate = %q, want %q", opts.OutputTemplate, DefaultOutputTemplate)
	}
	if opts.PlaylistStart != 1 {
		t.Errorf("PlaylistStart = %d, want 1", opts.PlaylistStart)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	content := `
format: "bestaudio/best"
output_template: "{title}.{ext}"
max_parallel: 4
playlist_start: 3
playlist_end: 10
rate_limit: "500K"
extract_audio: true
audio_format: mp3
subtitle_langs: [en, de]
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if opts.Format != "bestaudio/best" {
		t.Errorf("Format = %q", opts.Format)
	}
	if opts.MaxParallel != 4 {
		t.Errorf("MaxParallel = %d, want 4", opts.MaxParallel)
	}
	if opts.PlaylistStart != 3 || opts.PlaylistEnd != 10 {
		t.Errorf("playlist window = %d..%d, want 3..10", opts.PlaylistStart, opts.PlaylistEnd)
	}
	if len(opts.SubtitleLangs) != 2 || opts.SubtitleLangs[0] != "en" {
		t.Errorf("SubtitleLangs = %v", opts.SubtitleLangs)
	}
	// Unset keys keep their defaults.
	if opts.Fixup != DefaultFixup {
		t.Errorf("Fixup = %q, want default %q", opts.Fixup, DefaultFixup)
	}
	if got := opts.RateLimitBytes(); got != 500_000 {
		t.Errorf("RateLimitBytes = %d, want 500000", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero playlist start", func(o *Options) { o.PlaylistStart = 0 }},
		{"end before start", func(o *Options) { o.PlaylistStart = 5; o.PlaylistEnd = 2 }},
		{"zero parallelism", func(o *Options) { o.MaxParallel = 0 }},
		{"bad fixup", func(o *Options) { o.Fixup = "sometimes" }},
		{"bad rate limit", func(o *Options) { o.RateLimit = "fast" }},
		{"bad date bound", func(o *Options) { o.DateAfter = "2023-06-15" }},
	}

	for _, tt := range tests {
		opts := Default()
		tt.mutate(&opts)
		if err := opts.Validate(); err == nil {
			t.Errorf("%s: Validate returned nil", tt.name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvFormat, "worst")
	t.Setenv(EnvMaxParallel, "8")
	t.Setenv(EnvVerbose, "1")

	opts := Default()
	opts.ApplyEnv()

	if opts.Format != "worst" {
		t.Errorf("Format = %q, want worst", opts.Format)
	}
	if opts.MaxParallel != 8 {
		t.Errorf("MaxParallel = %d, want 8", opts.MaxParallel)
	}
	if !opts.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestRateLimitBytesUnlimited(t *testing.T) {
	opts := Default()
	if got := opts.RateLimitBytes(); got != 0 {
		t.Errorf("RateLimitBytes = %d, want 0", got)
	}
}
