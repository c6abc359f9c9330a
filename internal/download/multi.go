package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ytget/vidgrab/internal/progress"
)

// byteRange is one inclusive chunk of the payload.
type byteRange struct {
	start, end int64
}

// downloadMulti probes the payload size, splits it into disjoint chunks and
// fetches them over Threads concurrent connections writing into a pre-sized
// file. Servers that do not advertise a size or do not honor ranges fall
// back to the single-connection path. A partial file from an earlier run is
// discarded: chunk completion state is not tracked across runs.
func (d *Downloader) downloadMulti(ctx context.Context, url string, headers map[string]string, path string, chunkSize int64) error {
	total, ok, err := d.probeSize(ctx, url, headers)
	if err != nil {
		return err
	}
	if !ok {
		d.logf(progress.SeverityInfo, "size unknown for %s, using single connection", url)
		return d.downloadSingle(ctx, url, headers, path, chunkSize)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	if err := out.Truncate(total); err != nil {
		return fmt.Errorf("truncate %s: %w", path, err)
	}

	var ranges []byteRange
	for start := int64(0); start < total; start += chunkSize {
		end := start + chunkSize - 1
		if end >= total {
			end = total - 1
		}
		ranges = append(ranges, byteRange{start: start, end: end})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		received atomic.Int64
		started  = time.Now()
		limiter  = d.limiter()
		work     = make(chan byteRange)
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < d.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range work {
				if err := d.fetchRange(ctx, out, url, headers, r, limiter, func(written int) {
					d.report(received.Add(int64(written)), total, started)
				}); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

	for _, r := range ranges {
		select {
		case work <- r:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// fetchRange downloads one chunk into its file offset. addBytes receives the
// size of each completed write for the shared progress counter.
func (d *Downloader) fetchRange(ctx context.Context, out *os.File, url string, headers map[string]string, r byteRange, limiter *rate.Limiter, addBytes func(int)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	applyHeaders(req, headers)
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", r.start, r.end))

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("request %s: range not honored, status %s", url, resp.Status)
	}

	writer := io.NewOffsetWriter(out, r.start)
	src := io.Reader(resp.Body)
	if limiter != nil {
		src = &throttledReader{ctx: ctx, r: src, limiter: limiter}
	}

	buf := make([]byte, d.bufferSize())
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := writer.Write(buf[:n]); werr != nil {
				return werr
			}
			addBytes(n)
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("read %s: %w", url, rerr)
		}
	}
}

// probeSize asks the server for the payload size with a HEAD request. The
// second return value is false when the size is unknown or ranges are not
// accepted.
func (d *Downloader) probeSize(ctx context.Context, url string, headers map[string]string) (int64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, false, err
	}
	applyHeaders(req, headers)

	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("probe %s: unexpected status %s", url, resp.Status)
	}
	if resp.ContentLength <= 0 {
		return 0, false, nil
	}
	if resp.Header.Get("Accept-Ranges") == "none" {
		return 0, false, nil
	}
	return resp.ContentLength, true, nil
}
