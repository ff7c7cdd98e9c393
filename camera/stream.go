package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// streamBoundary delimits multipart preview frames.
const streamBoundary = "frame"

// MultipartContentType is the Content-Type an HTTP adaptor sends along
// with WriteMultipart output.
const MultipartContentType = "multipart/x-mixed-replace; boundary=" + streamBoundary

// StreamOptions bound a preview stream. A zero value leaves the
// corresponding bound unset; a stream with no bounds runs until its
// consumer stops pulling.
type StreamOptions struct {
	// MaxFPS caps the frame rate.
	MaxFPS float64
	// MaxDuration caps the wall-clock lifetime of the stream.
	MaxDuration time.Duration
	// MaxFrames caps the number of frames produced.
	MaxFrames int
}

// FrameSource produces JPEG preview frames. *Session satisfies it;
// higher layers can wrap other producers.
type FrameSource interface {
	CapturePreview() ([]byte, error)
}

// Stream is a lazy sequence of JPEG preview frames. It is not
// restartable; create a new one per consumer. A Stream is meant for a
// single goroutine.
type Stream struct {
	src     FrameSource
	opts    StreamOptions
	limiter *rate.Limiter
	started time.Time
	frames  int
	done    bool
}

// NewStream builds a preview stream over a frame source, typically a
// session. Frames are pulled lazily and each pull locks the session
// independently, so a stream shares the device with a running capture
// protocol at frame granularity.
func NewStream(src FrameSource, opts StreamOptions) *Stream {
	st := &Stream{src: src, opts: opts}
	if opts.MaxFPS > 0 {
		st.limiter = rate.NewLimiter(rate.Limit(opts.MaxFPS), 1)
	}
	return st
}

// Next returns the next frame, pacing to MaxFPS by sleeping only the
// remainder since the last frame. Frames the device is not ready to
// produce are skipped. Next returns ErrStreamDone once any configured
// bound is reached and every call after that.
func (st *Stream) Next(ctx context.Context) ([]byte, error) {
	if st.done {
		return nil, ErrStreamDone
	}
	if st.started.IsZero() {
		st.started = time.Now()
	}
	for {
		if err := ctx.Err(); err != nil {
			st.done = true
			return nil, err
		}
		if st.opts.MaxFrames > 0 && st.frames >= st.opts.MaxFrames {
			st.done = true
			return nil, ErrStreamDone
		}
		if st.opts.MaxDuration > 0 && time.Since(st.started) >= st.opts.MaxDuration {
			st.done = true
			return nil, ErrStreamDone
		}
		if st.limiter != nil {
			if err := st.limiter.Wait(ctx); err != nil {
				st.done = true
				return nil, err
			}
		}
		frame, err := st.src.CapturePreview()
		if errors.Is(err, ErrNotReady) {
			if st.limiter == nil {
				// Unpaced stream; avoid a hot loop while the device warms up.
				time.Sleep(10 * time.Millisecond)
			}
			continue
		}
		if err != nil {
			st.done = true
			return nil, err
		}
		if len(frame) == 0 {
			continue
		}
		st.frames++
		return frame, nil
	}
}

// NextImage returns the next frame decoded into an image buffer.
func (st *Stream) NextImage(ctx context.Context) (image.Image, error) {
	frame, err := st.Next(ctx)
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to decode preview frame: %w", err)
	}
	return img, nil
}

// WriteMultipart pumps the stream into w, one boundary-delimited JPEG
// part per frame, flushing after each when w supports it. It returns
// nil once the stream ends on its own bounds.
func (st *Stream) WriteMultipart(ctx context.Context, w io.Writer) error {
	flusher, _ := w.(http.Flusher)
	for {
		frame, err := st.Next(ctx)
		if errors.Is(err, ErrStreamDone) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", streamBoundary); err != nil {
			return err
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
