package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/ytget/vidgrab/internal/extractor"
	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/progress"
)

// processPlaylist windows, orders and processes the playlist's entries,
// fanning out over a bounded number of workers. A per-entry failure does not
// stop the other entries; reaching the download limit cancels the rest.
func (e *Engine) processPlaylist(ctx context.Context, p *model.Playlist, dl bool) error {
	entries := e.selectPlaylistEntries(p.Entries)
	e.logf(progress.SeverityInfo, "playlist %s: processing %d of %d entries",
		p.Title, len(entries), len(p.Entries))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg         sync.WaitGroup
		sem        = make(chan struct{}, e.maxParallel())
		mu         sync.Mutex
		failed     int
		maxReached bool
	)

	for i, entry := range entries {
		extra := map[string]any{
			"playlist":             p.Title,
			"playlist_id":          p.ID,
			"playlist_title":       p.Title,
			"playlist_uploader":    p.Uploader,
			"playlist_uploader_id": p.UploaderID,
			"playlist_index":       i + 1,
			"n_entries":            len(entries),
			"extractor":            p.Extractor,
			"extractor_key":        p.ExtractorKey,
			"webpage_url":          p.WebpageURL,
			"webpage_url_basename": p.WebpageURLBasename,
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(index int, entry model.Record) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := e.ProcessResult(ctx, entry, extra, dl)
			if err == nil {
				return
			}
			if errors.Is(err, ErrMaxDownloads) {
				mu.Lock()
				maxReached = true
				mu.Unlock()
				cancel()
				return
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			e.logf(progress.SeverityError, "playlist %s entry %d: %v", p.Title, index, err)
			mu.Lock()
			failed++
			mu.Unlock()
		}(i+1, entry)
	}
	wg.Wait()

	if maxReached {
		return ErrMaxDownloads
	}
	if failed == len(entries) && failed > 0 {
		return fmt.Errorf("all %d entries of playlist %s failed", failed, p.Title)
	}
	if failed > 0 {
		e.logf(progress.SeverityWarning, "playlist %s: %d of %d entries failed",
			p.Title, failed, len(entries))
	}
	return nil
}

func (e *Engine) maxParallel() int {
	if e.opts.MaxParallel > 0 {
		return e.opts.MaxParallel
	}
	return 1
}

// selectPlaylistEntries applies the configured window and ordering. An
// explicit item list wins over the start/end window; items are raw 0-based
// entry indexes and out-of-range items are ignored.
func (e *Engine) selectPlaylistEntries(entries []model.Record) []model.Record {
	var selected []model.Record

	if len(e.opts.PlaylistItems) > 0 {
		for _, pos := range e.opts.PlaylistItems {
			if pos >= 0 && pos < len(entries) {
				selected = append(selected, entries[pos])
			}
		}
	} else {
		start := e.opts.PlaylistStart
		if start < 1 {
			start = 1
		}
		end := e.opts.PlaylistEnd
		if end <= 0 || end > len(entries) {
			end = len(entries)
		}
		if start > len(entries) {
			return nil
		}
		selected = append(selected, entries[start-1:end]...)
	}

	switch {
	case e.opts.PlaylistRandom:
		rand.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	case e.opts.PlaylistReverse:
		for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
			selected[i], selected[j] = selected[j], selected[i]
		}
	}
	return selected
}

// GetSearchResults routes a search query to the named extractor and resolves
// up to limit entries of the resulting playlist without downloading them.
func (e *Engine) GetSearchResults(ctx context.Context, ieKey, query string, limit int) ([]*model.Video, error) {
	res := e.registry.DispatchTo(ctx, ieKey, query)
	if res.Status != extractor.StatusMatched {
		if res.Err != nil {
			return nil, res.Err
		}
		return nil, fmt.Errorf("search with %s failed", ieKey)
	}

	playlist, ok := res.Record.(*model.Playlist)
	if !ok {
		if v, ok := res.Record.(*model.Video); ok {
			return []*model.Video{v}, nil
		}
		return nil, fmt.Errorf("%s returned no result list for %q", ieKey, query)
	}

	var videos []*model.Video
	for _, entry := range playlist.Entries {
		if limit > 0 && len(videos) >= limit {
			break
		}
		record, err := e.ProcessResult(ctx, entry, nil, false)
		if err != nil {
			e.logf(progress.SeverityWarning, "search result skipped: %v", err)
			continue
		}
		if v, ok := record.(*model.Video); ok {
			videos = append(videos, v)
		}
	}
	return videos, nil
}
