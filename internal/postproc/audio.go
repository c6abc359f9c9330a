package postproc

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
)

// CodecBest asks the extractor to keep the source audio codec, copying the
// stream instead of re-encoding when possible.
const CodecBest = "best"

// DefaultAudioQuality is the VBR quality used when none is configured.
const DefaultAudioQuality = 5

// audioEncoders maps a target codec to its ffmpeg encoder. An empty encoder
// means the default for the output container.
var audioEncoders = map[string]string{
	"mp3":    "libmp3lame",
	"aac":    "aac",
	"flac":   "flac",
	"m4a":    "aac",
	"opus":   "libopus",
	"vorbis": "libvorbis",
	"wav":    "",
}

// audioExtensions maps a target codec to its output container extension.
var audioExtensions = map[string]string{
	"mp3":    "mp3",
	"aac":    "aac",
	"flac":   "flac",
	"m4a":    "m4a",
	"opus":   "opus",
	"vorbis": "ogg",
	"wav":    "wav",
}

// copyExtensions maps a probed source codec to the container a stream copy
// goes into.
var copyExtensions = map[string]string{
	"aac":    "m4a",
	"mp3":    "mp3",
	"flac":   "flac",
	"opus":   "opus",
	"vorbis": "ogg",
}

// AudioExtractor drops the video streams of a file, keeping the audio in a
// standalone container.
type AudioExtractor struct {
	Runner *Runner

	// Codec is the target audio codec, or CodecBest to keep the source
	// codec with a stream copy.
	Codec string

	// Quality selects VBR quality below 10 and a bitrate in kbit/s from 10
	// up. Negative means DefaultAudioQuality.
	Quality int

	// KeepOriginal leaves the input file on disk.
	KeepOriginal bool
}

// NewAudioExtractor returns an extractor targeting codec.
func NewAudioExtractor(runner *Runner, codec string, quality int) *AudioExtractor {
	return &AudioExtractor{Runner: runner, Codec: codec, Quality: quality}
}

// Name implements PostProcessor.
func (a *AudioExtractor) Name() string { return "audio-extractor" }

// Applies implements PostProcessor.
func (a *AudioExtractor) Applies(f model.Format) bool { return f.HasAudio() }

// Run extracts the audio track of path into its own file.
func (a *AudioExtractor) Run(ctx context.Context, f model.Format, path string) (string, error) {
	target := a.Codec
	if target == "" {
		target = CodecBest
	}

	args := []string{"-vn"}
	var ext string

	if target == CodecBest {
		source, err := a.Runner.ProbeAudioCodec(ctx, path)
		if err != nil {
			return path, err
		}
		copyExt, ok := copyExtensions[source]
		if !ok {
			// Unknown source codec: re-encode into the mp4 audio family.
			return a.encode(ctx, f, path, "m4a")
		}
		ext = copyExt
		args = append(args, "-acodec", "copy")
		if source == "aac" {
			args = append(args, "-bsf:a", "aac_adtstoasc")
		}
		return a.invoke(ctx, f, path, ext, args)
	}

	if _, ok := audioEncoders[target]; !ok {
		return path, fmt.Errorf("unsupported audio codec %q", target)
	}
	return a.encode(ctx, f, path, target)
}

// encode re-encodes the audio track into the target codec.
func (a *AudioExtractor) encode(ctx context.Context, f model.Format, path, target string) (string, error) {
	args := []string{"-vn"}
	if encoder := audioEncoders[target]; encoder != "" {
		args = append(args, "-acodec", encoder)
	}

	quality := a.Quality
	if quality < 0 {
		quality = DefaultAudioQuality
	}
	switch target {
	case "flac", "wav":
		// Lossless targets take no quality arguments.
	default:
		if quality < 10 {
			args = append(args, "-q:a", strconv.Itoa(quality))
		} else {
			args = append(args, "-b:a", strconv.Itoa(quality)+"k")
		}
	}
	if target == "m4a" {
		args = append(args, "-bsf:a", "aac_adtstoasc")
	}
	if target == "wav" {
		args = append(args, "-f", "wav")
	}

	return a.invoke(ctx, f, path, audioExtensions[target], args)
}

// invoke runs ffmpeg into the changed-extension output and removes the
// original unless asked to keep it.
func (a *AudioExtractor) invoke(ctx context.Context, f model.Format, path, ext string, args []string) (string, error) {
	output := platform.ChangeExtension(path, ext)
	if output == path {
		return path, fmt.Errorf("%s already has the target audio container", path)
	}
	if err := a.Runner.Run(ctx, []string{path}, args, output); err != nil {
		return path, err
	}
	if !a.KeepOriginal {
		os.Remove(path)
	}
	f.Common().Extension = ext
	return output, nil
}
