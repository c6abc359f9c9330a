package model

import (
	"testing"
	"time"
)

func TestFromDict_KindDispatch(t *testing.T) {
	tests := []struct {
		typeTag  string
		expected Kind
	}{
		{"video", KindVideo},
		{"", KindVideo},
		{"playlist", KindPlaylist},
		{"url", KindURL},
		{"url-transparent", KindURLTransparent},
		{"thumbnail", KindThumbnail},
		{"subtitleformat", KindSubtitleFormat},
	}

	for _, test := range tests {
		dict := map[string]any{"url": "https://example.com/x"}
		if test.typeTag != "" {
			dict["_type"] = test.typeTag
		}
		r := FromDict(dict)
		if r.Kind() != test.expected {
			t.Errorf("FromDict with _type=%q decoded kind %q, expected %q",
				test.typeTag, r.Kind(), test.expected)
		}
	}
}

func TestFromDict_FormatVariants(t *testing.T) {
	tests := []struct {
		acodec   string
		vcodec   string
		audio    bool
		video    bool
	}{
		{"mp4a.40.2", "avc1", true, true},
		{"mp4a.40.2", "none", true, false},
		{"none", "avc1", false, true},
		{"none", "none", false, true},
		{"", "", false, true},
	}

	for _, test := range tests {
		f := FormatFromDict(map[string]any{
			"format_id": "22",
			"acodec":    test.acodec,
			"vcodec":    test.vcodec,
		})
		if f.HasAudio() != test.audio || f.HasVideo() != test.video {
			t.Errorf("FormatFromDict(acodec=%q, vcodec=%q): HasAudio=%v HasVideo=%v, expected %v/%v",
				test.acodec, test.vcodec, f.HasAudio(), f.HasVideo(), test.audio, test.video)
		}
	}
}

func TestVideoDecode(t *testing.T) {
	dict := map[string]any{
		"id":        "abc123",
		"title":     "Test Video",
		"duration":  float64(90),
		"timestamp": float64(1600000000),
		"view_count": float64(1234),
		"formats": []any{
			map[string]any{"format_id": "140", "acodec": "mp4a", "vcodec": "none", "ext": "m4a", "url": "https://e/a"},
			map[string]any{"format_id": "137", "acodec": "none", "vcodec": "avc1", "ext": "mp4", "url": "https://e/v"},
		},
		"some_site_specific": "kept",
	}

	r := FromDict(dict)
	v, ok := r.(*Video)
	if !ok {
		t.Fatalf("FromDict decoded %T, expected *Video", r)
	}
	if v.ID != "abc123" || v.Title != "Test Video" {
		t.Errorf("decoded id/title = %q/%q", v.ID, v.Title)
	}
	if v.Duration != 90*time.Second {
		t.Errorf("Duration = %v, expected 90s", v.Duration)
	}
	if v.UploadedAt.Unix() != 1600000000 {
		t.Errorf("UploadedAt = %v", v.UploadedAt)
	}
	if v.Views != 1234 {
		t.Errorf("Views = %d, expected 1234", v.Views)
	}
	if len(v.Formats) != 2 {
		t.Fatalf("decoded %d formats, expected 2", len(v.Formats))
	}
	if v.Formats[0].Common().FormatID != "140" {
		t.Errorf("format order not preserved: first id = %s", v.Formats[0].Common().FormatID)
	}
	if v.Extras["some_site_specific"] != "kept" {
		t.Errorf("unknown key not retained in extras bag: %v", v.Extras)
	}
}

func TestVideoDecode_BareFormatVideo(t *testing.T) {
	// A video without a formats list is itself the single format.
	r := FromDict(map[string]any{
		"id":    "x",
		"title": "t",
		"url":   "https://example.com/v.mp4",
		"ext":   "mp4",
	})
	v := r.(*Video)
	if len(v.Formats) != 1 {
		t.Fatalf("decoded %d formats, expected 1", len(v.Formats))
	}
	if v.Formats[0].Common().URL != "https://example.com/v.mp4" {
		t.Errorf("format url = %q", v.Formats[0].Common().URL)
	}
}

func TestVideoDecode_ThumbnailsSortedAndNumbered(t *testing.T) {
	r := FromDict(map[string]any{
		"id":    "x",
		"title": "t",
		"url":   "https://e/v.mp4",
		"thumbnails": []any{
			map[string]any{"url": "https://e/big.jpg", "width": float64(1920), "height": float64(1080)},
			map[string]any{"url": "https://e/small.jpg", "width": float64(120), "height": float64(90)},
		},
	})
	v := r.(*Video)
	if len(v.Thumbnails) != 2 {
		t.Fatalf("decoded %d thumbnails, expected 2", len(v.Thumbnails))
	}
	if v.Thumbnails[0].Width != 120 || v.Thumbnails[1].Width != 1920 {
		t.Errorf("thumbnails not sorted ascending: %d, %d", v.Thumbnails[0].Width, v.Thumbnails[1].Width)
	}
	if v.Thumbnails[0].ID != "0" || v.Thumbnails[1].ID != "1" {
		t.Errorf("missing index-derived ids: %q, %q", v.Thumbnails[0].ID, v.Thumbnails[1].ID)
	}
}

func TestVideoDecode_Subtitles(t *testing.T) {
	r := FromDict(map[string]any{
		"id":    "x",
		"title": "t",
		"url":   "https://e/v.mp4",
		"subtitles": map[string]any{
			"en": []any{
				map[string]any{"url": "https://e/en.vtt", "ext": "vtt"},
				map[string]any{"url": "https://e/en.srt", "ext": "srt"},
			},
			"de": []any{
				map[string]any{"url": "https://e/de.vtt", "ext": "vtt"},
			},
		},
	})
	v := r.(*Video)
	if len(v.Subtitles) != 2 {
		t.Fatalf("decoded %d subtitle languages, expected 2", len(v.Subtitles))
	}
	// Languages are sorted for deterministic order.
	if v.Subtitles[0].Lang != "de" || v.Subtitles[1].Lang != "en" {
		t.Errorf("subtitle langs = %q, %q", v.Subtitles[0].Lang, v.Subtitles[1].Lang)
	}
	if len(v.Subtitles[1].Formats) != 2 {
		t.Errorf("en subtitle has %d formats, expected 2", len(v.Subtitles[1].Formats))
	}
}

func TestPlaylistDecode(t *testing.T) {
	r := FromDict(map[string]any{
		"_type": "playlist",
		"id":    "pl1",
		"title": "My List",
		"entries": []any{
			map[string]any{"_type": "url", "url": "https://e/1", "ie_key": "Direct"},
			map[string]any{"id": "v2", "title": "second", "url": "https://e/2.mp4"},
		},
	})
	p, ok := r.(*Playlist)
	if !ok {
		t.Fatalf("FromDict decoded %T, expected *Playlist", r)
	}
	if len(p.Entries) != 2 {
		t.Fatalf("decoded %d entries, expected 2", len(p.Entries))
	}
	if p.Entries[0].Kind() != KindURL {
		t.Errorf("first entry kind = %q, expected url", p.Entries[0].Kind())
	}
	if p.Entries[1].Kind() != KindVideo {
		t.Errorf("second entry kind = %q, expected video", p.Entries[1].Kind())
	}
}

func TestAddExtraInfo_OverwriteSemantics(t *testing.T) {
	v := &Video{ID: "orig"}

	AddExtraInfo(v, map[string]any{"id": "new", "uploader": "someone"}, false)
	if v.ID != "orig" {
		t.Errorf("overwrite=false replaced existing id: %q", v.ID)
	}
	if v.Uploader != "someone" {
		t.Errorf("overwrite=false did not fill empty field: %q", v.Uploader)
	}

	AddExtraInfo(v, map[string]any{"id": "new"}, true)
	if v.ID != "new" {
		t.Errorf("overwrite=true kept old id: %q", v.ID)
	}
}

func TestCompositeFormat(t *testing.T) {
	video := &VideoFormat{VideoCodec: "avc1", Width: 1920, Height: 1080, FPS: 30}
	video.FormatID = "137"
	video.Extension = "mp4"
	audio := &AudioFormat{AudioCodec: "mp4a", AudioBitrate: 128}
	audio.FormatID = "140"
	audio.Extension = "m4a"

	c := NewCompositeFormat(video, audio)
	if c.FormatID != "137+140" {
		t.Errorf("composite id = %q, expected 137+140", c.FormatID)
	}
	if c.Extension != "mp4" {
		t.Errorf("composite extension = %q, expected video side mp4", c.Extension)
	}
	if c.Width != 1920 || c.Height != 1080 || c.AudioBitrate != 128 {
		t.Errorf("constituent fields not copied: %dx%d abr=%d", c.Width, c.Height, c.AudioBitrate)
	}
	if !c.IsComposite() || !c.HasAudio() || !c.HasVideo() {
		t.Error("composite capability flags wrong")
	}
	if c.Video != Format(video) || c.Audio != Format(audio) {
		t.Error("constituent references lost")
	}
}

func TestFormatProtocolDerived(t *testing.T) {
	f := FormatFromDict(map[string]any{"format_id": "1", "url": "https://e/x.m3u8"})
	if got := f.Common().Protocol(); got != "m3u8" {
		t.Errorf("Protocol() = %q, expected m3u8", got)
	}

	explicit := FormatFromDict(map[string]any{"format_id": "1", "url": "https://e/x.mp4", "protocol": "https"})
	if got := explicit.Common().Protocol(); got != "https" {
		t.Errorf("explicit Protocol() = %q, expected https", got)
	}
}
