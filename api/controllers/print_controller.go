package controllers

import (
	"net/http"
	"os"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/notify"
	"github.com/Zahlii/godslr/printer"
	"github.com/Zahlii/godslr/tool"
	"github.com/gin-gonic/gin"
)

// printRequest uses pointers for the optional fields so an omitted
// value falls back to the configured default instead of the zero value.
type printRequest struct {
	ImagePath   string `json:"image_path" binding:"required"`
	Copies      *int   `json:"copies"`
	Landscape   *bool  `json:"landscape"`
	PrinterName string `json:"printer_name"`
}

// HandlePrint sends a stored image to the booth printer.
// POST /api/print
func HandlePrint(c *gin.Context) {
	engine := models.GetBoothEngine()
	svc := models.GetPrinterService()
	if engine == nil || svc == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No printer attached"))
		return
	}

	var body printRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}

	full, err := engine.ImagePath(body.ImagePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	if _, err := os.Stat(full); err != nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Image not found: "+body.ImagePath))
		return
	}

	cfg := tool.GetCurrentConfig()
	req := printer.Request{
		ImagePath:   full,
		Copies:      1,
		Landscape:   cfg.Printer.Landscape,
		PrinterName: body.PrinterName,
	}
	if body.Copies != nil && *body.Copies > 0 {
		req.Copies = *body.Copies
	}
	if body.Landscape != nil {
		req.Landscape = *body.Landscape
	}
	if req.PrinterName == "" {
		req.PrinterName = cfg.Booth.DefaultPrinter
	}

	if err := svc.Print(req); err != nil {
		tool.DefaultLogger.Errorf("Print failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to print: "+err.Error()))
		return
	}
	notify.SendPrintDone(req.PrinterName)
	c.JSON(http.StatusOK, true)
}
