package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/tool"
	"github.com/gin-gonic/gin"
)

const (
	// streamMaxFPS is the hard ceiling a client may request per stream.
	streamMaxFPS = 60
	// streamMaxTime ends every stream after this long so an abandoned
	// browser tab cannot hold the camera in preview mode forever.
	streamMaxTime = 35 * time.Second
)

// deviceFrames adapts the active capture device to a camera.FrameSource
// so the stream shows overlays and mirroring, not the raw sensor feed.
type deviceFrames struct {
	dev interface {
		Preview() ([]byte, error)
	}
}

func (d deviceFrames) CapturePreview() ([]byte, error) {
	return d.dev.Preview()
}

// HandleStream serves the live preview as multipart/x-mixed-replace.
// GET /api/stream?fps=<n>
func HandleStream(c *gin.Context) {
	dev := models.GetCaptureDevice()
	if dev == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No capture device attached"))
		return
	}

	opts := models.GetStreamOptions()
	if fpsStr := c.Query("fps"); fpsStr != "" {
		if fps, err := strconv.ParseFloat(fpsStr, 64); err == nil && fps > 0 {
			opts.MaxFPS = fps
		}
	}
	if opts.MaxFPS <= 0 || opts.MaxFPS > streamMaxFPS {
		opts.MaxFPS = streamMaxFPS
	}
	if opts.MaxDuration <= 0 || opts.MaxDuration > streamMaxTime {
		opts.MaxDuration = streamMaxTime
	}

	st := camera.NewStream(deviceFrames{dev: dev}, opts)
	c.Header("Content-Type", camera.MultipartContentType)
	c.Header("Cache-Control", "no-cache")
	if err := st.WriteMultipart(c.Request.Context(), c.Writer); err != nil {
		// The usual cause is the client closing the tab mid-frame.
		tool.DefaultLogger.Debugf("preview stream ended: %v", err)
	}
}
