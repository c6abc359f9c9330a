package download

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// copyBody drains src into dst using the configured copy strategy, invoking
// onProgress with the running byte count after every write.
func (d *Downloader) copyBody(ctx context.Context, dst io.Writer, src io.Reader, limiter *rate.Limiter, onProgress func(written int)) (int64, error) {
	if limiter != nil {
		src = &throttledReader{ctx: ctx, r: src, limiter: limiter}
	}
	if d.DoubleBuffer {
		return copyDoubleBuffered(ctx, dst, src, d.bufferSize(), onProgress)
	}
	return copyPlain(ctx, dst, src, d.bufferSize(), onProgress)
}

// throttledReader delays reads so the aggregate rate stays under the limit.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if burst := t.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// copyPlain is a sequential read-then-write loop.
func copyPlain(ctx context.Context, dst io.Writer, src io.Reader, bufSize int, onProgress func(int)) (int64, error) {
	buf := make([]byte, bufSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if onProgress != nil {
				onProgress(int(written))
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// copyDoubleBuffered overlaps network reads with disk writes: a reader
// goroutine fills one buffer while the caller's goroutine writes the other.
type filledBuffer struct {
	buf []byte
	n   int
	err error
}

func copyDoubleBuffered(ctx context.Context, dst io.Writer, src io.Reader, bufSize int, onProgress func(int)) (int64, error) {
	free := make(chan []byte, 2)
	filled := make(chan filledBuffer, 2)
	free <- make([]byte, bufSize)
	free <- make([]byte, bufSize)

	go func() {
		for buf := range free {
			n, err := src.Read(buf)
			filled <- filledBuffer{buf: buf, n: n, err: err}
			if err != nil {
				close(filled)
				return
			}
		}
	}()
	defer close(free)

	var written int64
	for fb := range filled {
		if fb.n > 0 {
			wn, werr := dst.Write(fb.buf[:fb.n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if onProgress != nil {
				onProgress(int(written))
			}
		}
		if fb.err == io.EOF {
			return written, nil
		}
		if fb.err != nil {
			return written, fb.err
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		free <- fb.buf
	}
	return written, nil
}
