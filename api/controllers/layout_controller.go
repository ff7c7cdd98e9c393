package controllers

import (
	"net/http"
	"os"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/booth"
	"github.com/Zahlii/godslr/notify"
	"github.com/Zahlii/godslr/tool"
	"github.com/Zahlii/godslr/types"
	"github.com/gin-gonic/gin"
)

// HandleAvailableLayouts lists the layouts the frontend can offer.
// GET /api/available_layouts
func HandleAvailableLayouts(c *gin.Context) {
	engine := models.GetBoothEngine()
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No booth engine attached"))
		return
	}
	layouts, err := engine.AvailableLayouts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to load layouts: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, layouts)
}

// HandleLayoutImage serves a layout overlay image for the selection UI.
// GET /api/layout/image/:filename
func HandleLayoutImage(c *gin.Context) {
	engine := models.GetBoothEngine()
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No booth engine attached"))
		return
	}
	path, err := engine.LayoutImagePath(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Layout image not found"))
		return
	}
	c.File(path)
}

// HandleSetLayout activates a layout for upcoming captures.
// POST /api/layout
func HandleSetLayout(c *gin.Context) {
	engine := models.GetBoothEngine()
	if engine == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No booth engine attached"))
		return
	}

	var layout booth.Layout
	if err := c.ShouldBindJSON(&layout); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if err := engine.SetLayout(layout); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	notify.Send(&types.Notification{
		Type:    types.NotifyLayoutChange,
		Title:   "Layout changed",
		Message: layout.Name,
	})
	c.JSON(http.StatusOK, true)
}

// HandleRenderLayout composites already captured images with the active
// layout. The body is a plain JSON array of image names.
// POST /api/layout/render
func HandleRenderLayout(c *gin.Context) {
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
	snap, err := engine.Render(names)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, snap)
}
