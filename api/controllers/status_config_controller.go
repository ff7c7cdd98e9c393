package controllers

import (
	"net/http"
	"sort"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/notify"
	"github.com/Zahlii/godslr/tool"
	"github.com/Zahlii/godslr/types"
	"github.com/gin-gonic/gin"
)

// UserStatus returns server status for the web UI.
// GET /api/self/v1/status
func UserStatus(c *gin.Context) {
	resp := gin.H{
		"running":           true,
		"notify_ws_enabled": notify.Enabled(),
	}
	if self := models.GetSelfDevice(); self != nil {
		resp["alias"] = self.Alias
		resp["version"] = self.Version
		resp["deviceModel"] = self.DeviceModel
	}
	if dev := models.GetCaptureDevice(); dev != nil {
		resp["device"] = dev.Name()
	}
	addresses := make([]string, 0, 4)
	for ip := range tool.GetLocalIPv4Set() {
		addresses = append(addresses, ip)
	}
	sort.Strings(addresses)
	resp["addresses"] = addresses
	c.JSON(http.StatusOK, resp)
}

// UserConfigGet returns full config from config.yaml.
// GET /api/self/v1/config
func UserConfigGet(c *gin.Context) {
	c.JSON(http.StatusOK, tool.GetCurrentConfig())
}

// UserConfigPatch accepts full or partial config and persists to config.yaml.
// PATCH /api/self/v1/config
func UserConfigPatch(c *gin.Context) {
	var body types.ConfigPatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := *tool.GetCurrentConfig()

	if body.Alias != nil {
		cfg.Alias = *body.Alias
	}
	if body.Port != nil {
		cfg.Port = *body.Port
	}
	if body.CountdownCaptureSeconds != nil {
		cfg.Booth.CountdownCaptureSeconds = *body.CountdownCaptureSeconds
	}
	if body.InactivityReturnSeconds != nil {
		cfg.Booth.InactivityReturnSeconds = *body.InactivityReturnSeconds
	}
	if body.BoothTitle != nil {
		cfg.Booth.BoothTitle = *body.BoothTitle
	}
	if body.DefaultPrinter != nil {
		cfg.Booth.DefaultPrinter = *body.DefaultPrinter
	}
	if body.FolderName != nil {
		cfg.Booth.FolderName = *body.FolderName
	}
	if body.MirrorImage != nil {
		cfg.Booth.MirrorImage = *body.MirrorImage
	}
	if body.PrintBorder != nil {
		cfg.Printer.Border = *body.PrintBorder
	}
	if body.PrintLandscape != nil {
		cfg.Printer.Landscape = *body.PrintLandscape
	}

	tool.PersistAppConfig(&cfg)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
