package selector

import (
	"testing"
)

func TestNumericFilters(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"all[height>720]", "137"},
		{"all[height>=720]", "136,137,22"},
		{"all[height<720]", "18"},
		{"all[height=1080]", "137"},
		{"all[height!=720]", "18,137"},
		{"bestvideo[height<=720]", "136"},
		// The audio-only formats have no height; "?" keeps them.
		{"all[height>720?]", "140,251,137"},
		{"all[abr>140]", "251"},
		{"all[tbr>1000]", "22"},
		// Unit suffixes parse through the filesize table.
		{"all[tbr>1.5K]", "22"},
	}

	for _, tt := range tests {
		got, err := SelectFormats(sampleFormats(), tt.spec, "")
		if err != nil {
			t.Errorf("SelectFormats(%q) error: %v", tt.spec, err)
			continue
		}
		if ids(got) != tt.want {
			t.Errorf("SelectFormats(%q) = %s, want %s", tt.spec, ids(got), tt.want)
		}
	}
}

func TestStringFilters(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"all[ext=webm]", "251"},
		{"all[ext!=mp4]", "140,251"},
		{"all[acodec^=mp4a]", "18,140,22"},
		{"all[vcodec$=001E]", "18"},
		{"all[vcodec*=4d40]", "136"},
		{"all[acodec=opus]", "251"},
		// Video-only formats have no acodec; "?" keeps them.
		{"all[acodec=opus?]", "251,136,137"},
		{"bestaudio[ext=m4a]", "140"},
	}

	for _, tt := range tests {
		got, err := SelectFormats(sampleFormats(), tt.spec, "")
		if err != nil {
			t.Errorf("SelectFormats(%q) error: %v", tt.spec, err)
			continue
		}
		if ids(got) != tt.want {
			t.Errorf("SelectFormats(%q) = %s, want %s", tt.spec, ids(got), tt.want)
		}
	}
}

func TestStackedFilters(t *testing.T) {
	got, err := SelectFormats(sampleFormats(), "all[ext=mp4][height>=720]", "")
	if err != nil {
		t.Fatalf("SelectFormats error: %v", err)
	}
	if ids(got) != "136,137,22" {
		t.Errorf("got %s, want 136,137,22", ids(got))
	}
}

func TestBareFilterDefaultsToBest(t *testing.T) {
	got, err := SelectFormats(sampleFormats(), "[height<=480]", "")
	if err != nil {
		t.Fatalf("SelectFormats error: %v", err)
	}
	if ids(got) != "18" {
		t.Errorf("got %s, want 18", ids(got))
	}
}

func TestFilterOnMerge(t *testing.T) {
	got, err := SelectFormats(sampleFormats(), "bestvideo[height<=720]+bestaudio", "")
	if err != nil {
		t.Fatalf("SelectFormats error: %v", err)
	}
	if len(got) != 1 || got[0].Common().FormatID != "136+251" {
		t.Fatalf("got %s, want 136+251", ids(got))
	}
}
