package camera_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Zahlii/godslr/camera"
)

func TestStreamHonorsMaxFrames(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{})
	st := camera.NewStream(sess, camera.StreamOptions{MaxFrames: 5})
	ctx := context.Background()

	var frames int
	for {
		data, err := st.Next(ctx)
		if errors.Is(err, camera.ErrStreamDone) {
			break
		}
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		if len(data) == 0 {
			t.Fatal("Expected non-empty frames")
		}
		frames++
		if frames > 5 {
			t.Fatal("stream produced more frames than its bound")
		}
	}
	if frames != 5 {
		t.Errorf("Expected exactly 5 frames, got %d", frames)
	}
	if _, err := st.Next(ctx); !errors.Is(err, camera.ErrStreamDone) {
		t.Errorf("Expected a finished stream to stay finished, got %v", err)
	}
}

func TestStreamSkipsNotReadyFrames(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{PreviewNotReadyEvery: 2})
	st := camera.NewStream(sess, camera.StreamOptions{MaxFrames: 4})
	ctx := context.Background()

	var frames int
	for {
		_, err := st.Next(ctx)
		if errors.Is(err, camera.ErrStreamDone) {
			break
		}
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		frames++
	}
	if frames != 4 {
		t.Errorf("Expected not-ready reads skipped without counting, got %d frames", frames)
	}
}

func TestStreamStopsAfterMaxDuration(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{})
	st := camera.NewStream(sess, camera.StreamOptions{
		MaxFPS:      100,
		MaxDuration: 100 * time.Millisecond,
	})
	ctx := context.Background()

	start := time.Now()
	var frames int
	for {
		_, err := st.Next(ctx)
		if errors.Is(err, camera.ErrStreamDone) {
			break
		}
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		frames++
		if frames > 50 {
			t.Fatal("stream did not stop at its duration bound")
		}
	}
	if frames == 0 {
		t.Error("Expected at least one frame before the deadline")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("Expected the stream to run out its duration, stopped after %s", elapsed)
	}
}

func TestStreamPacesToMaxFPS(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{})
	st := camera.NewStream(sess, camera.StreamOptions{MaxFPS: 20, MaxFrames: 3})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := st.Next(ctx); err != nil {
			t.Fatalf("stream failed on frame %d: %v", i, err)
		}
	}
	// First frame is immediate, the next two wait 50ms each.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("Expected 3 frames at 20fps to take at least ~100ms, took %s", elapsed)
	}
}

func TestStreamNextImageDecodes(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{})
	st := camera.NewStream(sess, camera.StreamOptions{MaxFrames: 1})
	img, err := st.NextImage(context.Background())
	if err != nil {
		t.Fatalf("failed to decode preview frame: %v", err)
	}
	if img.Bounds().Empty() {
		t.Error("Expected a non-empty preview image")
	}
}

func TestWriteMultipartFraming(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{})
	st := camera.NewStream(sess, camera.StreamOptions{MaxFrames: 2})

	var buf bytes.Buffer
	if err := st.WriteMultipart(context.Background(), &buf); err != nil {
		t.Fatalf("multipart pump failed: %v", err)
	}
	out := buf.String()
	header := "--frame\r\nContent-Type: image/jpeg\r\n\r\n"
	if got := strings.Count(out, header); got != 2 {
		t.Errorf("Expected 2 framed parts, got %d", got)
	}
	if !strings.HasPrefix(out, header) {
		t.Error("Expected the output to open with a boundary header")
	}
	if !strings.HasSuffix(out, "\r\n") {
		t.Error("Expected each part terminated by CRLF")
	}
	if !strings.Contains(camera.MultipartContentType, "boundary=frame") {
		t.Errorf("Expected the advertised content type to carry the boundary, got %s", camera.MultipartContentType)
	}
}

func TestStreamSurfacesSessionErrors(t *testing.T) {
	sess, _ := newOpenSession(t, camera.SimOptions{})
	st := camera.NewStream(sess, camera.StreamOptions{})
	if err := sess.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := st.Next(context.Background()); !errors.Is(err, camera.ErrClosed) {
		t.Fatalf("Expected ErrClosed from a closed session, got %v", err)
	}
	if _, err := st.Next(context.Background()); !errors.Is(err, camera.ErrStreamDone) {
		t.Errorf("Expected the stream to stay finished after a hard error, got %v", err)
	}
}
