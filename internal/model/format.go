package model

import (
	"github.com/ytget/vidgrab/internal/platform"
)

// Format is one downloadable rendition of a video. Concrete variants are
// *AudioFormat, *VideoFormat, *MuxedFormat and *CompositeFormat; capability
// methods replace runtime type inspection.
type Format interface {
	Record

	// Common returns the fields shared by every variant.
	Common() *FormatCommon

	// HasAudio reports whether the rendition carries an audio stream.
	HasAudio() bool

	// HasVideo reports whether the rendition carries a video stream.
	HasVideo() bool

	// IsComposite reports whether the rendition was synthesized by the
	// "+" selector operator.
	IsComposite() bool
}

// IsMuxed reports whether the format carries both audio and video.
func IsMuxed(f Format) bool {
	return f.HasAudio() && f.HasVideo()
}

// FormatCommon holds the fields shared by all format variants.
type FormatCommon struct {
	Info `json:"-"`

	FormatID   string `json:"format_id"`
	FormatName string `json:"format"`
	URL        string `json:"url"`
	Extension  string `json:"ext"`
	Note       string `json:"format_note,omitempty"`
	Quality    string `json:"quality,omitempty"`
	Container  string `json:"container,omitempty"`

	// Filesize is the exact byte size when the extractor knows it.
	Filesize int64 `json:"filesize,omitempty"`

	// FilesizeApprox is an estimated byte size.
	FilesizeApprox int64 `json:"filesize_approx,omitempty"`

	// HTTPHeaders are sent with every download request for this format.
	HTTPHeaders map[string]string `json:"http_headers,omitempty"`

	// ChunkSize overrides the downloader's ranged-request chunk size.
	ChunkSize int64 `json:"-"`

	protocol string

	// Downloaded and FileName are set by the orchestrator after a
	// successful download.
	Downloaded bool   `json:"-"`
	FileName   string `json:"-"`
}

// Kind returns KindFormat for every variant.
func (f *FormatCommon) Kind() Kind { return KindFormat }

// Common returns the receiver so variants satisfy Format.
func (f *FormatCommon) Common() *FormatCommon { return f }

// Protocol returns the download protocol, deriving it from the URL on first
// use if the extractor did not set one.
func (f *FormatCommon) Protocol() string {
	if f.protocol == "" {
		f.protocol = platform.DetermineProtocol(f.URL)
	}
	return f.protocol
}

// SetProtocol overrides the derived protocol.
func (f *FormatCommon) SetProtocol(p string) { f.protocol = p }

func (f *FormatCommon) commonField(key string) (any, bool) {
	switch key {
	case "format_id", "FormatID":
		return f.FormatID, true
	case "format", "FormatName":
		return f.FormatName, true
	case "url", "URL":
		return f.URL, true
	case "ext", "Extension":
		return f.Extension, true
	case "format_note", "Note":
		return f.Note, true
	case "quality", "Quality":
		return f.Quality, true
	case "container", "Container":
		return f.Container, true
	case "filesize", "Filesize":
		return f.Filesize, true
	case "filesize_approx", "FilesizeApprox":
		return f.FilesizeApprox, true
	case "protocol", "Protocol":
		return f.Protocol(), true
	}
	return f.infoField(key)
}

func (f *FormatCommon) setCommonField(key string, value any) bool {
	switch key {
	case "format_id":
		f.FormatID = asString(value)
	case "format":
		f.FormatName = asString(value)
	case "url":
		f.URL = platform.SanitizeURL(asString(value))
	case "ext":
		f.Extension = asString(value)
	case "format_note":
		f.Note = asString(value)
	case "quality":
		f.Quality = asString(value)
	case "container":
		f.Container = asString(value)
	case "filesize":
		f.Filesize = asInt64(value)
	case "filesize_approx":
		f.FilesizeApprox = asInt64(value)
	case "protocol":
		f.protocol = asString(value)
	default:
		return f.setInfoField(key, value)
	}
	return true
}

// AudioFormat is an audio-only rendition.
type AudioFormat struct {
	FormatCommon

	AudioCodec      string `json:"acodec"`
	AudioBitrate    int    `json:"abr,omitempty"`
	AudioSampleRate int    `json:"asr,omitempty"`
}

// HasAudio implements Format.
func (f *AudioFormat) HasAudio() bool { return true }

// HasVideo implements Format.
func (f *AudioFormat) HasVideo() bool { return false }

// IsComposite implements Format.
func (f *AudioFormat) IsComposite() bool { return false }

// Field implements Record.
func (f *AudioFormat) Field(key string) (any, bool) {
	switch key {
	case "acodec", "AudioCodec":
		return f.AudioCodec, true
	case "abr", "AudioBitrate":
		return f.AudioBitrate, true
	case "asr", "AudioSampleRate":
		return f.AudioSampleRate, true
	}
	return f.commonField(key)
}

// SetField implements Record.
func (f *AudioFormat) SetField(key string, value any) bool {
	switch key {
	case "acodec":
		f.AudioCodec = asString(value)
	case "abr":
		f.AudioBitrate = asInt(value)
	case "asr":
		f.AudioSampleRate = asInt(value)
	default:
		return f.setCommonField(key, value)
	}
	return true
}

// VideoFormat is a video-only rendition.
type VideoFormat struct {
	FormatCommon

	VideoCodec   string  `json:"vcodec"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	FPS          float64 `json:"fps,omitempty"`
	VideoBitrate int     `json:"vbr,omitempty"`

	// StretchedRatio is non-zero and not 1 when the container advertises a
	// display aspect ratio different from the encoded one.
	StretchedRatio float64 `json:"stretched_ratio,omitempty"`
}

// HasAudio implements Format.
func (f *VideoFormat) HasAudio() bool { return false }

// HasVideo implements Format.
func (f *VideoFormat) HasVideo() bool { return true }

// IsComposite implements Format.
func (f *VideoFormat) IsComposite() bool { return false }

// Field implements Record.
func (f *VideoFormat) Field(key string) (any, bool) {
	switch key {
	case "vcodec", "VideoCodec":
		return f.VideoCodec, true
	case "width", "Width":
		return f.Width, true
	case "height", "Height":
		return f.Height, true
	case "fps", "FPS":
		return f.FPS, true
	case "vbr", "VideoBitrate":
		return f.VideoBitrate, true
	case "stretched_ratio", "StretchedRatio":
		return f.StretchedRatio, true
	}
	return f.commonField(key)
}

// SetField implements Record.
func (f *VideoFormat) SetField(key string, value any) bool {
	switch key {
	case "vcodec":
		f.VideoCodec = asString(value)
	case "width":
		f.Width = asInt(value)
	case "height":
		f.Height = asInt(value)
	case "fps":
		f.FPS = asFloat(value)
	case "vbr":
		f.VideoBitrate = asInt(value)
	case "stretched_ratio":
		f.StretchedRatio = asFloat(value)
	default:
		return f.setCommonField(key, value)
	}
	return true
}

// MuxedFormat carries both audio and video in one stream.
type MuxedFormat struct {
	FormatCommon

	AudioCodec      string `json:"acodec"`
	AudioBitrate    int    `json:"abr,omitempty"`
	AudioSampleRate int    `json:"asr,omitempty"`

	VideoCodec     string  `json:"vcodec"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	FPS            float64 `json:"fps,omitempty"`
	VideoBitrate   int     `json:"vbr,omitempty"`
	StretchedRatio float64 `json:"stretched_ratio,omitempty"`

	TotalBitrate float64 `json:"tbr,omitempty"`
}

// HasAudio implements Format.
func (f *MuxedFormat) HasAudio() bool { return true }

// HasVideo implements Format.
func (f *MuxedFormat) HasVideo() bool { return true }

// IsComposite implements Format.
func (f *MuxedFormat) IsComposite() bool { return false }

// Field implements Record.
func (f *MuxedFormat) Field(key string) (any, bool) {
	switch key {
	case "acodec", "AudioCodec":
		return f.AudioCodec, true
	case "abr", "AudioBitrate":
		return f.AudioBitrate, true
	case "asr", "AudioSampleRate":
		return f.AudioSampleRate, true
	case "vcodec", "VideoCodec":
		return f.VideoCodec, true
	case "width", "Width":
		return f.Width, true
	case "height", "Height":
		return f.Height, true
	case "fps", "FPS":
		return f.FPS, true
	case "vbr", "VideoBitrate":
		return f.VideoBitrate, true
	case "stretched_ratio", "StretchedRatio":
		return f.StretchedRatio, true
	case "tbr", "TotalBitrate":
		return f.TotalBitrate, true
	}
	return f.commonField(key)
}

// SetField implements Record.
func (f *MuxedFormat) SetField(key string, value any) bool {
	switch key {
	case "acodec":
		f.AudioCodec = asString(value)
	case "abr":
		f.AudioBitrate = asInt(value)
	case "asr":
		f.AudioSampleRate = asInt(value)
	case "vcodec":
		f.VideoCodec = asString(value)
	case "width":
		f.Width = asInt(value)
	case "height":
		f.Height = asInt(value)
	case "fps":
		f.FPS = asFloat(value)
	case "vbr":
		f.VideoBitrate = asInt(value)
	case "stretched_ratio":
		f.StretchedRatio = asFloat(value)
	case "tbr":
		f.TotalBitrate = asFloat(value)
	default:
		return f.setCommonField(key, value)
	}
	return true
}

// CompositeFormat pairs one video-capable and one audio-capable rendition,
// produced by the "+" selector operator. It never appears in raw extractor
// output; the downloader fetches both constituents and the merger combines
// them into the composite's file.
type CompositeFormat struct {
	MuxedFormat

	// Video is the video-side constituent.
	Video Format

	// Audio is the audio-side constituent.
	Audio Format
}

// NewCompositeFormat synthesizes a MuxedFormat-shaped record from the two
// constituents, copying the video geometry from the video side and the audio
// parameters from the audio side. The extension follows the video side.
func NewCompositeFormat(video, audio Format) *CompositeFormat {
	c := &CompositeFormat{Video: video, Audio: audio}
	vc, ac := video.Common(), audio.Common()

	c.FormatID = vc.FormatID + "+" + ac.FormatID
	c.FormatName = vc.FormatName + "+" + ac.FormatName
	c.Extension = vc.Extension

	if w, ok := video.Field("width"); ok {
		c.Width = asInt(w)
	}
	if h, ok := video.Field("height"); ok {
		c.Height = asInt(h)
	}
	if fps, ok := video.Field("fps"); ok {
		c.FPS = asFloat(fps)
	}
	if vcodec, ok := video.Field("vcodec"); ok {
		c.VideoCodec = asString(vcodec)
	}
	if vbr, ok := video.Field("vbr"); ok {
		c.VideoBitrate = asInt(vbr)
	}
	if ratio, ok := video.Field("stretched_ratio"); ok {
		c.StretchedRatio = asFloat(ratio)
	}
	if acodec, ok := audio.Field("acodec"); ok {
		c.AudioCodec = asString(acodec)
	}
	if abr, ok := audio.Field("abr"); ok {
		c.AudioBitrate = asInt(abr)
	}
	return c
}

// IsComposite implements Format.
func (f *CompositeFormat) IsComposite() bool { return true }

// FormatFromDict decodes one format map, picking the variant from the
// acodec/vcodec fields: both present and not "none" gives a muxed format,
// exactly one gives the matching single-stream variant. Formats with neither
// are treated as video-only, matching extractors that omit codec data.
func FormatFromDict(dict map[string]any) Format {
	acodec := asString(dict["acodec"])
	vcodec := asString(dict["vcodec"])
	hasAudio := acodec != "" && acodec != "none"
	hasVideo := vcodec != "" && vcodec != "none"

	var f Format
	switch {
	case hasAudio && hasVideo:
		f = &MuxedFormat{}
	case hasAudio:
		f = &AudioFormat{}
	default:
		f = &VideoFormat{}
	}

	for key, value := range dict {
		if key == "_type" {
			continue
		}
		if key == "downloader_options" {
			if opts, ok := value.(map[string]any); ok {
				f.Common().ChunkSize = asInt64(opts["http_chunk_size"])
			}
			continue
		}
		if key == "http_headers" {
			f.Common().HTTPHeaders = asStringMap(value)
			continue
		}
		AddExtraInfo(f, map[string]any{key: value}, true)
	}
	return f
}

func asStringMap(v any) map[string]string {
	src, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	headers := make(map[string]string, len(src))
	for k, hv := range src {
		headers[k] = asString(hv)
	}
	return headers
}
