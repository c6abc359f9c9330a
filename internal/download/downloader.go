package download

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/progress"
)

const (
	// DefaultChunkSize is the ranged-request size used when neither the
	// downloader nor the format overrides it.
	DefaultChunkSize int64 = 8_000_000

	// DefaultBufferSize is the copy buffer size.
	DefaultBufferSize = 256 * 1024
)

// Downloader fetches HTTP and HTTPS format payloads to local files. The zero
// value is not usable; construct with New.
type Downloader struct {
	// Client issues all requests.
	Client *http.Client

	// ChunkSize is the ranged-request size. Formats carrying their own
	// chunk size override it per download.
	ChunkSize int64

	// Threads is the connection count for multi-connection downloads.
	// Values below 2 select the single-connection path.
	Threads int

	// RateLimit caps the aggregate download speed in bytes per second.
	// Zero means unlimited.
	RateLimit int64

	// BufferSize is the copy buffer size.
	BufferSize int

	// DoubleBuffer overlaps reading and writing with a second buffer.
	DoubleBuffer bool

	// Progress receives byte-count events during the transfer. May be nil.
	Progress progress.Func

	// Log receives diagnostic events. May be nil.
	Log progress.LogFunc
}

// New returns a downloader with default settings and a single connection.
func New() *Downloader {
	return &Downloader{
		Client:     &http.Client{},
		ChunkSize:  DefaultChunkSize,
		Threads:    1,
		BufferSize: DefaultBufferSize,
	}
}

// MultiThreaded returns a downloader that opens one connection per CPU.
func MultiThreaded() *Downloader {
	d := New()
	d.Threads = runtime.NumCPU()
	return d
}

// Download fetches the format's payload into path. An existing partial file
// is resumed on the single-connection path and restarted on the
// multi-connection path.
func (d *Downloader) Download(ctx context.Context, f model.Format, path string) error {
	common := f.Common()
	proto := common.Protocol()
	if proto != "http" && proto != "https" {
		return fmt.Errorf("download %s: unsupported protocol %q", common.FormatID, proto)
	}

	chunkSize := d.ChunkSize
	if common.ChunkSize > 0 {
		chunkSize = common.ChunkSize
	}

	if d.Threads > 1 {
		return d.downloadMulti(ctx, common.URL, common.HTTPHeaders, path, chunkSize)
	}
	return d.downloadSingle(ctx, common.URL, common.HTTPHeaders, path, chunkSize)
}

// downloadSingle fetches the payload over one connection, requesting one
// ranged chunk at a time and appending to any existing partial file. A server
// that answers 200 to a ranged request gets its whole body copied in one
// pass; with chunked transfer encoding the total stays unknown and progress
// events carry a negative total.
func (d *Downloader) downloadSingle(ctx context.Context, url string, headers map[string]string, path string, chunkSize int64) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer out.Close()

	stat, err := out.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	received := stat.Size()
	if received > 0 {
		d.logf(progress.SeverityInfo, "resuming %s at byte %d", path, received)
	}

	total := int64(-1)
	started := time.Now()
	limiter := d.limiter()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		applyHeaders(req, headers)
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", received, received+chunkSize-1))

		resp, err := d.Client.Do(req)
		if err != nil {
			return fmt.Errorf("request %s: %w", url, err)
		}

		wholeBody := false
		switch resp.StatusCode {
		case http.StatusPartialContent:
			if t, ok := contentRangeTotal(resp.Header.Get("Content-Range")); ok {
				total = t
			}
		case http.StatusOK:
			// Server ignored the range; its body is the whole payload.
			if received > 0 {
				if err := out.Truncate(0); err != nil {
					resp.Body.Close()
					return fmt.Errorf("truncate %s: %w", path, err)
				}
				received = 0
			}
			total = resp.ContentLength
			wholeBody = true
		case http.StatusRequestedRangeNotSatisfiable:
			// Nothing past the resume point: the file is complete.
			resp.Body.Close()
			return nil
		default:
			resp.Body.Close()
			return fmt.Errorf("request %s: unexpected status %s", url, resp.Status)
		}

		n, err := d.copyBody(ctx, out, resp.Body, limiter, func(written int) {
			d.report(received+int64(written), total, started)
		})
		resp.Body.Close()
		received += n
		if err != nil {
			return fmt.Errorf("read %s: %w", url, err)
		}

		if wholeBody || (total >= 0 && received >= total) || n == 0 {
			return nil
		}
	}
}

// report emits one progress event if a callback is set.
func (d *Downloader) report(value, total int64, started time.Time) {
	if d.Progress != nil {
		d.Progress(progress.NewEvent(value, total, "B", started))
	}
}

func (d *Downloader) logf(sev progress.Severity, format string, args ...any) {
	if d.Log != nil {
		d.Log(progress.LogEvent{
			Severity: sev,
			Sender:   []string{"download"},
			Message:  fmt.Sprintf(format, args...),
		})
	}
}

func (d *Downloader) limiter() *rate.Limiter {
	if d.RateLimit <= 0 {
		return nil
	}
	burst := d.bufferSize()
	if int64(burst) < d.RateLimit {
		burst = int(d.RateLimit)
	}
	return rate.NewLimiter(rate.Limit(d.RateLimit), burst)
}

func (d *Downloader) bufferSize() int {
	if d.BufferSize > 0 {
		return d.BufferSize
	}
	return DefaultBufferSize
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// contentRangeTotal extracts the total size from a "bytes 0-99/1234" header.
func contentRangeTotal(header string) (int64, bool) {
	i := strings.LastIndexByte(header, '/')
	if i < 0 {
		return 0, false
	}
	total, err := strconv.ParseInt(header[i+1:], 10, 64)
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}
