package engine

import (
	"testing"
	"time"

	"github.com/ytget/vidgrab/internal/config"
	"github.com/ytget/vidgrab/internal/model"
)

func playlistEntries(ids ...string) []model.Record {
	var entries []model.Record
	for _, id := range ids {
		v := &model.Video{}
		v.ID = id
		entries = append(entries, v)
	}
	return entries
}

func entryIDs(entries []model.Record) []string {
	var ids []string
	for _, entry := range entries {
		v := entry.(*model.Video)
		ids = append(ids, v.ID)
	}
	return ids
}

func TestSelectPlaylistEntries(t *testing.T) {
	all := playlistEntries("a", "b", "c", "d", "e")

	tests := []struct {
		name string
		mod  func(*config.Options)
		want []string
	}{
		{"all", func(o *config.Options) {}, []string{"a", "b", "c", "d", "e"}},
		{"start", func(o *config.Options) { o.PlaylistStart = 3 }, []string{"c", "d", "e"}},
		{"end", func(o *config.Options) { o.PlaylistEnd = 2 }, []string{"a", "b"}},
		{"window", func(o *config.Options) {
			o.PlaylistStart = 2
			o.PlaylistEnd = 4
		}, []string{"b", "c", "d"}},
		{"end past length", func(o *config.Options) { o.PlaylistEnd = 99 }, []string{"a", "b", "c", "d", "e"}},
		{"start past length", func(o *config.Options) { o.PlaylistStart = 9 }, nil},
		// An explicit item list wins over the start/end window and keeps
		// its own order; items are raw 0-based entry indexes and
		// out-of-range ones are dropped.
		{"items", func(o *config.Options) {
			o.PlaylistItems = []int{4, 1, 9}
			o.PlaylistStart = 2
		}, []string{"e", "b"}},
		{"items first and last", func(o *config.Options) {
			o.PlaylistItems = []int{0, 4}
		}, []string{"a", "e"}},
		{"reverse", func(o *config.Options) { o.PlaylistReverse = true }, []string{"e", "d", "c", "b", "a"}},
		{"reverse window", func(o *config.Options) {
			o.PlaylistStart = 2
			o.PlaylistEnd = 4
			o.PlaylistReverse = true
		}, []string{"d", "c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := config.Default()
			tt.mod(&opts)
			e := newTestEngine(t, opts)

			got := entryIDs(e.selectPlaylistEntries(all))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSelectPlaylistEntriesRandomKeepsAll(t *testing.T) {
	opts := config.Default()
	opts.PlaylistRandom = true
	e := newTestEngine(t, opts)

	got := e.selectPlaylistEntries(playlistEntries("a", "b", "c", "d"))
	if len(got) != 4 {
		t.Fatalf("got %d entries, want 4", len(got))
	}
	seen := map[string]bool{}
	for _, id := range entryIDs(got) {
		seen[id] = true
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if !seen[id] {
			t.Errorf("entry %s missing after shuffle", id)
		}
	}
}

func TestMatchEntry(t *testing.T) {
	tests := []struct {
		name     string
		mod      func(*config.Options)
		title    string
		views    int
		wantSkip bool
	}{
		{"no filters", func(o *config.Options) {}, "anything", 0, false},
		{"match title hit", func(o *config.Options) { o.MatchTitle = "(?i)cats" }, "Funny Cats", 0, false},
		{"match title miss", func(o *config.Options) { o.MatchTitle = "(?i)cats" }, "Funny Dogs", 0, true},
		{"reject title hit", func(o *config.Options) { o.RejectTitle = "spoiler" }, "finale spoiler recap", 0, true},
		{"reject title miss", func(o *config.Options) { o.RejectTitle = "spoiler" }, "finale recap", 0, false},
		{"min views below", func(o *config.Options) { o.MinViews = 100 }, "t", 50, true},
		{"min views met", func(o *config.Options) { o.MinViews = 100 }, "t", 100, false},
		{"max views above", func(o *config.Options) { o.MaxViews = 100 }, "t", 101, true},
		{"max views met", func(o *config.Options) { o.MaxViews = 100 }, "t", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := config.Default()
			tt.mod(&opts)
			e := newTestEngine(t, opts)

			v := &model.Video{}
			v.Title = tt.title
			v.Views = tt.views

			reason := e.matchEntry(v)
			if (reason != "") != tt.wantSkip {
				t.Errorf("matchEntry = %q, wantSkip=%v", reason, tt.wantSkip)
			}
		})
	}
}

func TestMatchEntryDates(t *testing.T) {
	uploaded := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		after    string
		before   string
		uploaded time.Time
		wantSkip bool
	}{
		{"inside range", "20230101", "20231231", uploaded, false},
		{"before after-cutoff", "20230701", "", uploaded, true},
		{"after before-cutoff", "", "20230101", uploaded, true},
		{"on the boundary day", "20230615", "20230615", uploaded, false},
		{"unknown upload date passes", "20230101", "20231231", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := config.Default()
			opts.DateAfter = tt.after
			opts.DateBefore = tt.before
			e := newTestEngine(t, opts)

			v := &model.Video{}
			v.Title = "t"
			v.UploadedAt = tt.uploaded

			reason := e.matchEntry(v)
			if (reason != "") != tt.wantSkip {
				t.Errorf("matchEntry = %q, wantSkip=%v", reason, tt.wantSkip)
			}
		})
	}
}
