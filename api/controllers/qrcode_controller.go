package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/tool"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// GenerateQRCode returns a PNG QR code image. Compatible with api.qrserver.com create-qr-code API:
// GET ?size=200x200&data=<url-encoded-content>
// With image=<name> it encodes the download URL of that capture, so the
// kiosk can show a take-your-picture-home code. With neither parameter
// it encodes the booth's own URL.
func GenerateQRCode(c *gin.Context) {
	data := c.Query("data")
	if image := c.Query("image"); image != "" {
		var err error
		data, err = imageDownloadURL(image)
		if err != nil {
			c.JSON(http.StatusNotFound, tool.FastReturnError(err.Error()))
			return
		}
	}
	if data == "" {
		data = boothURL()
	}
	if data == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: data"))
		return
	}

	sizeStr := c.Query("size")
	size := parseSize(sizeStr)
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// imageDownloadURL builds the phone-reachable URL of a stored capture.
func imageDownloadURL(name string) (string, error) {
	engine := models.GetBoothEngine()
	if engine == nil {
		return "", fmt.Errorf("no booth engine attached")
	}
	full, err := engine.ImagePath(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("image not found: %s", name)
	}
	base := boothURL()
	if base == "" {
		return "", fmt.Errorf("server address unknown")
	}
	return base + "api/image/" + url.PathEscape(name), nil
}

// boothURL picks the lowest local IPv4 so repeated calls encode the
// same address. Empty when the server address is unknown.
func boothURL() string {
	self := models.GetSelfDevice()
	if self == nil {
		return ""
	}
	ips := make([]string, 0, 4)
	for ip := range tool.GetLocalIPv4Set() {
		ips = append(ips, ip)
	}
	if len(ips) == 0 {
		return ""
	}
	sort.Strings(ips)
	return fmt.Sprintf("%s://%s:%d/", self.Protocol, ips[0], self.Port)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
