package postproc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/progress"
)

// fakeFFmpeg writes a shell script that records its arguments and creates
// the output file named by the last argument.
func fakeFFmpeg(t *testing.T, exitCode int) (path, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > " + argsFile + "\n" +
		"for last; do :; done\n" +
		": > \"$last\"\n" +
		"exit " + map[int]string{0: "0", 1: "1"}[exitCode] + "\n"
	path = filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path, argsFile
}

func recordedArgs(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRunnerArgumentOrder(t *testing.T) {
	ffmpeg, argsFile := fakeFFmpeg(t, 0)
	r := NewRunner()
	r.FFmpegPath = ffmpeg

	out := filepath.Join(t.TempDir(), "out.mp4")
	err := r.Run(context.Background(), []string{"a.mp4", "b.m4a"}, []string{"-c", "copy"}, out)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	got := recordedArgs(t, argsFile)
	want := []string{"-y", "-i", "a.mp4", "-i", "b.m4a", "-c", "copy", out}
	if len(got) != len(want) {
		t.Fatalf("got %d args %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunnerReportsToolError(t *testing.T) {
	ffmpeg, _ := fakeFFmpeg(t, 1)
	r := NewRunner()
	r.FFmpegPath = ffmpeg

	err := r.Run(context.Background(), []string{"in.mp4"}, nil, filepath.Join(t.TempDir(), "out.mp4"))
	if err == nil {
		t.Fatal("expected error from failing ffmpeg")
	}
	if _, ok := err.(*ToolError); !ok {
		t.Errorf("error type = %T, want *ToolError", err)
	}
}

func TestScanStderrProgress(t *testing.T) {
	stderr := "Input #0, mov,mp4\n" +
		"  Duration: 00:01:40.00, start: 0.0, bitrate: 1000 kb/s\n" +
		"frame=  100 time=00:00:25.00 bitrate= 900kbits/s\r" +
		"frame=  200 time=00:00:50.00 bitrate= 900kbits/s\r" +
		"frame=  400 time=00:01:40.00 bitrate= 900kbits/s\n"

	var events []progress.Event
	r := NewRunner()
	r.Progress = func(e progress.Event) { events = append(events, e) }

	r.scanStderr(strings.NewReader(stderr))

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Total != 100_000 {
		t.Errorf("total = %d ms, want 100000", events[0].Total)
	}
	if events[0].Value != 25_000 {
		t.Errorf("first value = %d ms, want 25000", events[0].Value)
	}
	if events[2].Value != 100_000 {
		t.Errorf("last value = %d ms, want 100000", events[2].Value)
	}
	if events[2].Percent() != 100 {
		t.Errorf("last percent = %v, want 100", events[2].Percent())
	}
}

func TestScanStderrWithoutDuration(t *testing.T) {
	var events []progress.Event
	r := NewRunner()
	r.Progress = func(e progress.Event) { events = append(events, e) }

	r.scanStderr(strings.NewReader("frame=1 time=00:00:05.00 x\n"))

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].HasTotal() {
		t.Error("expected unknown total before a Duration line")
	}
}

func TestProcessorApplies(t *testing.T) {
	muxed := &model.MuxedFormat{}
	muxed.Extension = "mp4"

	videoOnly := &model.VideoFormat{}
	videoOnly.Extension = "mp4"

	stretched := &model.MuxedFormat{}
	stretched.StretchedRatio = 1.78

	dashAudio := &model.AudioFormat{}
	dashAudio.Extension = "m4a"
	dashAudio.Container = "m4a_dash"

	hls := &model.MuxedFormat{}
	hls.Extension = "mp4"
	hls.SetProtocol("m3u8")

	composite := model.NewCompositeFormat(videoOnly, dashAudio)

	tests := []struct {
		name string
		p    PostProcessor
		f    model.Format
		want bool
	}{
		{"merger on composite", &Merger{}, composite, true},
		{"merger on muxed", &Merger{}, muxed, false},
		{"audio on muxed", &AudioExtractor{}, muxed, true},
		{"audio on video-only", &AudioExtractor{}, videoOnly, false},
		{"stretched fixup", &FixupStretched{}, stretched, true},
		{"stretched fixup on normal", &FixupStretched{}, muxed, false},
		{"m4a fixup", &FixupM4A{}, dashAudio, true},
		{"m4a fixup on mp4", &FixupM4A{}, muxed, false},
		{"m3u8 fixup", &FixupM3U8{}, hls, true},
		{"m3u8 fixup on http", &FixupM3U8{}, videoOnly, false},
		{"converter with target", &Converter{TargetExtension: "mkv"}, muxed, true},
		{"converter without target", &Converter{}, muxed, false},
	}

	for _, tt := range tests {
		if got := tt.p.Applies(tt.f); got != tt.want {
			t.Errorf("%s: Applies = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestChainLogsSkippedProcessors(t *testing.T) {
	muxed := &model.MuxedFormat{}
	muxed.FormatID = "22"
	muxed.Extension = "mp4"

	var events []progress.LogEvent
	chain := NewChain(func(e progress.LogEvent) { events = append(events, e) }, &Merger{})

	path, err := chain.Run(context.Background(), muxed, "clip.mp4")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if path != "clip.mp4" {
		t.Errorf("path = %q, want clip.mp4", path)
	}

	var skipped bool
	for _, e := range events {
		if strings.Contains(e.Message, "not applicable") && strings.Contains(e.Message, "22") {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("no skip event logged, got %+v", events)
	}
}

func TestMergerArgs(t *testing.T) {
	ffmpeg, argsFile := fakeFFmpeg(t, 0)
	r := NewRunner()
	r.FFmpegPath = ffmpeg

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "v.f137.mp4")
	audioPath := filepath.Join(dir, "a.f251.webm")
	os.WriteFile(videoPath, []byte("v"), 0o644)
	os.WriteFile(audioPath, []byte("a"), 0o644)

	video := &model.VideoFormat{}
	video.FormatID = "137"
	video.FileName = videoPath
	audio := &model.AudioFormat{}
	audio.FormatID = "251"
	audio.FileName = audioPath
	composite := model.NewCompositeFormat(video, audio)

	m := NewMerger(r)
	out := filepath.Join(dir, "merged.mp4")
	got, err := m.Run(context.Background(), composite, out)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got != out {
		t.Errorf("output = %q, want %q", got, out)
	}

	args := strings.Join(recordedArgs(t, argsFile), " ")
	if !strings.Contains(args, "-c copy -map 0:v:0 -map 1:a:0") {
		t.Errorf("args %q missing stream-copy mapping", args)
	}
	if _, err := os.Stat(videoPath); !os.IsNotExist(err) {
		t.Error("video constituent not removed after merge")
	}
}

func TestMergerRequiresDownloadedConstituents(t *testing.T) {
	video := &model.VideoFormat{}
	audio := &model.AudioFormat{}
	composite := model.NewCompositeFormat(video, audio)

	m := NewMerger(NewRunner())
	if _, err := m.Run(context.Background(), composite, "out.mp4"); err == nil {
		t.Fatal("expected error for missing constituent files")
	}
}

func TestConverterRejectsSameContainer(t *testing.T) {
	c := NewConverter(NewRunner(), "mp4")
	f := &model.MuxedFormat{}
	f.Extension = "mp4"
	if _, err := c.Run(context.Background(), f, "/tmp/x.mp4"); err == nil {
		t.Fatal("expected error converting mp4 to mp4")
	}
}

func TestConverterChangesExtension(t *testing.T) {
	ffmpeg, _ := fakeFFmpeg(t, 0)
	r := NewRunner()
	r.FFmpegPath = ffmpeg

	f := &model.MuxedFormat{}
	f.Extension = "mp4"
	in := filepath.Join(t.TempDir(), "video.mp4")
	os.WriteFile(in, []byte("x"), 0o644)

	c := NewConverter(r, "mkv")
	out, err := c.Run(context.Background(), f, in)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !strings.HasSuffix(out, "video.mkv") {
		t.Errorf("output = %q, want video.mkv suffix", out)
	}
	if f.Extension != "mkv" {
		t.Errorf("format extension = %q, want mkv", f.Extension)
	}
}

func TestAudioExtractorEncodeArgs(t *testing.T) {
	tests := []struct {
		codec   string
		quality int
		want    []string
		exclude []string
	}{
		{"mp3", 3, []string{"-vn", "-acodec", "libmp3lame", "-q:a", "3"}, []string{"-b:a"}},
		{"mp3", 192, []string{"-acodec", "libmp3lame", "-b:a", "192k"}, []string{"-q:a"}},
		{"vorbis", 5, []string{"-acodec", "libvorbis", "-q:a", "5"}, nil},
		{"flac", 5, []string{"-acodec", "flac"}, []string{"-q:a", "-b:a"}},
		{"m4a", 5, []string{"-acodec", "aac", "-bsf:a", "aac_adtstoasc"}, nil},
		{"wav", 5, []string{"-f", "wav"}, []string{"-acodec", "-q:a"}},
	}

	for _, tt := range tests {
		ffmpeg, argsFile := fakeFFmpeg(t, 0)
		r := NewRunner()
		r.FFmpegPath = ffmpeg

		in := filepath.Join(t.TempDir(), "video.mp4")
		os.WriteFile(in, []byte("x"), 0o644)

		f := &model.MuxedFormat{}
		f.Extension = "mp4"
		a := NewAudioExtractor(r, tt.codec, tt.quality)
		a.KeepOriginal = true

		out, err := a.Run(context.Background(), f, in)
		if err != nil {
			t.Errorf("%s: Run error: %v", tt.codec, err)
			continue
		}
		if wantExt := audioExtensions[tt.codec]; !strings.HasSuffix(out, "."+wantExt) {
			t.Errorf("%s: output = %q, want .%s suffix", tt.codec, out, wantExt)
		}

		args := strings.Join(recordedArgs(t, argsFile), " ")
		for _, w := range tt.want {
			if !strings.Contains(args, w) {
				t.Errorf("%s: args %q missing %q", tt.codec, args, w)
			}
		}
		for _, e := range tt.exclude {
			if strings.Contains(args, e) {
				t.Errorf("%s: args %q should not contain %q", tt.codec, args, e)
			}
		}
	}
}

func TestFixupStretchedRewritesInPlace(t *testing.T) {
	ffmpeg, argsFile := fakeFFmpeg(t, 0)
	r := NewRunner()
	r.FFmpegPath = ffmpeg

	in := filepath.Join(t.TempDir(), "video.mp4")
	os.WriteFile(in, []byte("x"), 0o644)

	f := &model.MuxedFormat{}
	f.StretchedRatio = 1.5
	p := &FixupStretched{Runner: r}

	out, err := p.Run(context.Background(), f, in)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != in {
		t.Errorf("output = %q, want in-place %q", out, in)
	}

	args := strings.Join(recordedArgs(t, argsFile), " ")
	if !strings.Contains(args, "-aspect 1.5") {
		t.Errorf("args %q missing -aspect 1.5", args)
	}
	if _, err := os.Stat(in); err != nil {
		t.Errorf("rewritten file missing: %v", err)
	}
}

type renameProcessor struct {
	name string
	ext  string
}

func (p *renameProcessor) Name() string                 { return p.name }
func (p *renameProcessor) Applies(f model.Format) bool  { return true }
func (p *renameProcessor) Run(ctx context.Context, f model.Format, path string) (string, error) {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + p.ext, nil
}

func TestChainFeedsPathsForward(t *testing.T) {
	f := &model.MuxedFormat{}
	chain := NewChain(nil,
		&renameProcessor{name: "a", ext: "mkv"},
		&renameProcessor{name: "b", ext: "webm"},
	)

	out, err := chain.Run(context.Background(), f, "/tmp/video.mp4")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != "/tmp/video.webm" {
		t.Errorf("output = %q, want /tmp/video.webm", out)
	}
	if f.FileName != "/tmp/video.webm" {
		t.Errorf("format FileName = %q, want /tmp/video.webm", f.FileName)
	}
}
