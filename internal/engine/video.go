package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
	"github.com/ytget/vidgrab/internal/progress"
)

// processVideo selects the video's formats and, when downloading, fetches
// and post-processes each selected one. Per-format failures are reported and
// isolated; only the download limit stops the run.
func (e *Engine) processVideo(ctx context.Context, v *model.Video, dl bool) error {
	if v.ID == "" || v.Title == "" {
		return fmt.Errorf("extraction returned an incomplete video record (id %q, title %q)", v.ID, v.Title)
	}
	if len(v.Formats) == 0 {
		return fmt.Errorf("no formats found for %s", v.ID)
	}
	for i, f := range v.Formats {
		if f.Common().FormatID == "" {
			f.Common().FormatID = strconv.Itoa(i)
		}
	}

	e.forcedPrintings(v)
	if e.opts.ListFormats {
		e.listFormats(v)
		return nil
	}
	if e.opts.ListThumbnails {
		e.listThumbnails(v)
		return nil
	}
	if e.opts.ListSubtitles {
		e.listSubtitles(v)
		return nil
	}

	selected, err := e.selectFn(v.Formats)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("requested format not available for %s", v.ID)
	}
	e.selectionPrintings(v, selected)
	if !dl {
		return nil
	}

	if reason := e.matchEntry(v); reason != "" {
		e.logf(progress.SeverityInfo, "skipping %s: %s", v.ID, reason)
		return nil
	}
	if err := e.reserveDownload(); err != nil {
		return err
	}

	base := e.PrepareFilename(v, selected[0])
	if !e.opts.Simulate {
		if err := platform.CreateDirectoryIfNotExists(filepath.Dir(base)); err != nil {
			return err
		}
		if err := e.writeSidecars(v, base); err != nil {
			return err
		}
		if err := e.processSubtitles(ctx, v, base); err != nil {
			e.logf(progress.SeverityWarning, "subtitles for %s: %v", v.ID, err)
		}
	}
	if e.opts.Simulate || e.opts.SkipDownload {
		e.logf(progress.SeverityInfo, "skipping download of %s", v.ID)
		return nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		lastErr error
	)
	for _, f := range selected {
		wg.Add(1)
		go func(f model.Format) {
			defer wg.Done()
			err := e.downloadFormat(ctx, v, f)
			if err == nil {
				return
			}
			if !errors.Is(err, context.Canceled) {
				e.logf(progress.SeverityError, "download of %s format %s failed: %v",
					v.ID, f.Common().FormatID, err)
			}
			mu.Lock()
			lastErr = err
			mu.Unlock()
		}(f)
	}
	wg.Wait()

	if errors.Is(lastErr, context.Canceled) {
		return lastErr
	}
	if lastErr != nil && allFailed(selected) {
		return lastErr
	}
	return nil
}

func allFailed(formats []model.Format) bool {
	for _, f := range formats {
		if f.Common().Downloaded {
			return false
		}
	}
	return true
}

// downloadFormat fetches one selected format to its templated filename and
// runs the post-processing chain on the result.
func (e *Engine) downloadFormat(ctx context.Context, v *model.Video, f model.Format) error {
	filename := e.PrepareFilename(v, f)

	if e.opts.NoOverwrites {
		if _, err := os.Stat(filename); err == nil {
			e.logf(progress.SeverityInfo, "%s has already been downloaded", filename)
			f.Common().FileName = filename
			f.Common().Downloaded = true
			return nil
		}
	}

	if composite, ok := f.(*model.CompositeFormat); ok {
		if err := e.downloadConstituents(ctx, composite, filename); err != nil {
			return err
		}
	} else {
		part := filename + ".part"
		if err := e.dl.Download(ctx, f, part); err != nil {
			return err
		}
		if err := os.Rename(part, filename); err != nil {
			return fmt.Errorf("rename %s: %w", part, err)
		}
	}

	f.Common().FileName = filename
	f.Common().Downloaded = true

	final, err := e.chain.Run(ctx, f, filename)
	if err != nil {
		return err
	}
	f.Common().FileName = final
	return nil
}

// downloadConstituents fetches both sides of a composite format into sibling
// part files concurrently; the merger combines them afterwards.
func (e *Engine) downloadConstituents(ctx context.Context, composite *model.CompositeFormat, filename string) error {
	sides := []model.Format{composite.Video, composite.Audio}
	errs := make([]error, len(sides))

	var wg sync.WaitGroup
	for i, side := range sides {
		wg.Add(1)
		go func(i int, side model.Format) {
			defer wg.Done()
			c := side.Common()
			part := platform.ChangeExtension(filename,
				fmt.Sprintf("f%s.%s", c.FormatID, c.Extension))
			if err := e.dl.Download(ctx, side, part); err != nil {
				errs[i] = err
				return
			}
			c.FileName = part
			c.Downloaded = true
		}(i, side)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// DownloadFormatTo fetches a specific format through a temporary file and
// streams the result into w, bypassing templating and post-processing.
func (e *Engine) DownloadFormatTo(ctx context.Context, f model.Format, w io.Writer) error {
	tmp, err := os.CreateTemp("", "vidgrab-*.part")
	if err != nil {
		return err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := e.dl.Download(ctx, f, path); err != nil {
		return err
	}
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(w, in)
	return err
}

// forcedPrintings writes the requested metadata lines to the output writer.
// Lines that depend on the selected formats are printed by
// selectionPrintings instead.
func (e *Engine) forcedPrintings(v *model.Video) {
	if e.opts.PrintID {
		fmt.Fprintln(e.out, v.ID)
	}
	if e.opts.PrintTitle {
		fmt.Fprintln(e.out, v.Title)
	}
	if e.opts.PrintThumbnail {
		if t := bestThumbnail(v.Thumbnails); t != nil {
			fmt.Fprintln(e.out, t.URL)
		}
	}
	if e.opts.PrintDescription {
		fmt.Fprintln(e.out, v.Description)
	}
	if e.opts.PrintDuration {
		fmt.Fprintln(e.out, int64(v.Duration.Seconds()))
	}
	if e.opts.PrintJSON {
		if data, err := json.Marshal(v); err == nil {
			fmt.Fprintln(e.out, string(data))
		}
	}
}

func (e *Engine) selectionPrintings(v *model.Video, selected []model.Format) {
	if e.opts.PrintURL {
		for _, f := range selected {
			fmt.Fprintln(e.out, f.Common().URL)
		}
	}
	if e.opts.PrintFilename {
		fmt.Fprintln(e.out, e.PrepareFilename(v, selected[0]))
	}
	if e.opts.PrintFormat {
		for _, f := range selected {
			fmt.Fprintln(e.out, f.Common().FormatID)
		}
	}
}

// bestThumbnail returns the preferred thumbnail: the greatest by
// (preference, width, height, id, url) ordering.
func bestThumbnail(thumbnails []*model.Thumbnail) *model.Thumbnail {
	var best *model.Thumbnail
	for _, t := range thumbnails {
		if best == nil || best.Less(t) {
			best = t
		}
	}
	return best
}

func (e *Engine) listFormats(v *model.Video) {
	fmt.Fprintf(e.out, "Available formats for %s:\n", v.ID)
	fmt.Fprintf(e.out, "%-12s %-6s %s\n", "format id", "ext", "note")
	for _, f := range v.Formats {
		c := f.Common()
		note := c.Note
		switch {
		case f.IsComposite():
		case !f.HasVideo():
			note += " (audio only)"
		case !f.HasAudio():
			note += " (video only)"
		}
		fmt.Fprintf(e.out, "%-12s %-6s %s\n", c.FormatID, c.Extension, note)
	}
}

func (e *Engine) listThumbnails(v *model.Video) {
	fmt.Fprintf(e.out, "Thumbnails for %s:\n", v.ID)
	for _, t := range v.Thumbnails {
		fmt.Fprintf(e.out, "%-8s %4dx%-4d %s\n", t.ID, t.Width, t.Height, t.URL)
	}
}

func (e *Engine) listSubtitles(v *model.Video) {
	fmt.Fprintf(e.out, "Subtitles for %s:\n", v.ID)
	printTracks := func(label string, subs []*model.Subtitle) {
		for _, sub := range subs {
			exts := make([]string, 0, len(sub.Formats))
			for _, sf := range sub.Formats {
				exts = append(exts, sf.Extension)
			}
			fmt.Fprintf(e.out, "%-8s %-9s %s\n", sub.Lang, label, strings.Join(exts, ", "))
		}
	}
	printTracks("manual", v.Subtitles)
	printTracks("automatic", v.AutomaticSubtitles)
}

// writeSidecars writes the requested metadata files next to the download.
func (e *Engine) writeSidecars(v *model.Video, base string) error {
	if e.opts.WriteDescription && v.Description != "" {
		path := platform.ChangeExtension(base, "description")
		if err := e.writeSidecar(path, []byte(v.Description)); err != nil {
			return err
		}
	}
	if e.opts.WriteAnnotations && v.Annotations != "" {
		path := platform.ChangeExtension(base, "annotations.xml")
		if err := e.writeSidecar(path, []byte(v.Annotations)); err != nil {
			return err
		}
	}
	if e.opts.WriteInfoJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode info json for %s: %w", v.ID, err)
		}
		path := platform.ChangeExtension(base, "info.json")
		if err := e.writeSidecar(path, data); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) writeSidecar(path string, data []byte) error {
	if e.opts.NoOverwrites {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	e.logf(progress.SeverityInfo, "writing %s", path)
	return os.WriteFile(path, data, 0o644)
}

// processSubtitles downloads the selected subtitle tracks next to the video
// file as <base>.<lang>.<ext>.
func (e *Engine) processSubtitles(ctx context.Context, v *model.Video, base string) error {
	if !e.opts.WriteSubtitles && !e.opts.WriteAutoSubtitles {
		return nil
	}

	var candidates []*model.Subtitle
	if e.opts.WriteSubtitles {
		candidates = append(candidates, v.Subtitles...)
	}
	if e.opts.WriteAutoSubtitles {
		candidates = append(candidates, v.AutomaticSubtitles...)
	}

	seen := make(map[string]bool)
	for _, sub := range candidates {
		if seen[sub.Lang] || !e.subtitleLangWanted(sub.Lang) {
			continue
		}
		sf := pickSubtitleFormat(sub, e.opts.SubtitleFormat)
		if sf == nil {
			continue
		}
		seen[sub.Lang] = true

		path := platform.ChangeExtension(base, sub.Lang+"."+sf.Extension)
		if err := e.fetchFile(ctx, sf.URL, path); err != nil {
			return fmt.Errorf("subtitle %s: %w", sub.Lang, err)
		}
		e.logf(progress.SeverityInfo, "wrote subtitles %s", path)
	}
	return nil
}

func (e *Engine) subtitleLangWanted(lang string) bool {
	if len(e.opts.SubtitleLangs) == 0 {
		return true
	}
	for _, l := range e.opts.SubtitleLangs {
		if l == lang {
			return true
		}
	}
	return false
}

// pickSubtitleFormat resolves a preference chain like "srt/best" against the
// track's available containers, falling back to the first available one.
func pickSubtitleFormat(sub *model.Subtitle, preferred string) *model.SubtitleFormat {
	if len(sub.Formats) == 0 {
		return nil
	}
	for _, want := range strings.Split(preferred, "/") {
		if want == "" || want == "best" {
			return sub.Formats[0]
		}
		for _, sf := range sub.Formats {
			if sf.Extension == want {
				return sf
			}
		}
	}
	return sub.Formats[0]
}

// fetchFile performs a plain GET for small auxiliary payloads.
func (e *Engine) fetchFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := e.dl.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}
