package controllers

import (
	"net/http"
	"os"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/device"
	"github.com/Zahlii/godslr/notify"
	"github.com/Zahlii/godslr/tool"
	"github.com/gin-gonic/gin"
)

// HandleBoothConfig returns the booth settings the frontend drives its
// countdown and idle screens with.
// GET /api/config
func HandleBoothConfig(c *gin.Context) {
	c.JSON(http.StatusOK, tool.GetCurrentConfig().Booth)
}

// HandleLastImage returns the most recent composited frame, used as the
// idle-screen background. Responds null until the first capture.
// GET /api/last
func HandleLastImage(c *gin.Context) {
	if overlay, ok := models.GetCaptureDevice().(*device.Overlay); ok {
		if ph := overlay.Placeholder(); ph != nil {
			c.Data(http.StatusOK, "image/jpeg", ph)
			return
		}
	}
	c.JSON(http.StatusOK, nil)
}

// HandleSnapshot runs one capture through the booth pipeline and returns
// the rendered result.
// GET /api/snapshot
func HandleSnapshot(c *gin.Context) {
	engine := models.GetBoothEngine()
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No booth engine attached"))
		return
	}

	notify.SendCaptureStart("api")
	snap, err := engine.Take()
	if err != nil {
		notify.SendCaptureError(err)
		tool.DefaultLogger.Errorf("Capture failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to capture: "+err.Error()))
		return
	}
	notify.SendCaptureDone(map[string]any{"image_path": snap.ImagePath})
	c.JSON(http.StatusOK, snap)
}

// HandleImageDownload serves a stored capture by name. Guests reach it
// from their phones through the QR code, so it sits outside the
// local-only admin group.
// GET /api/image/:name
func HandleImageDownload(c *gin.Context) {
	engine := models.GetBoothEngine()
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No booth engine attached"))
		return
	}

	full, err := engine.ImagePath(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	if _, err := os.Stat(full); err != nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Image not found"))
		return
	}
	c.File(full)
}

// HandleDeleteSnapshots removes the named images and their raw siblings.
// The body is a plain JSON array of image names relative to the image
// folder.
// DELETE /api/snapshots
func HandleDeleteSnapshots(c *gin.Context) {
	engine := models.GetBoothEngine()
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No booth engine attached"))
		return
	}

	var names []string
	if err := c.ShouldBindJSON(&names); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if err := engine.Delete(names); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, true)
}
