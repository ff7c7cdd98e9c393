package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/tool"
	"github.com/gin-gonic/gin"
)

// HandleCameraConfig reads the live config tree and returns it decoded
// into the typed profile. Responds null when the capture device has no
// camera session behind it (netcam setups).
// GET /api/camera_config
func HandleCameraConfig(c *gin.Context) {
	sess, newProfile := models.GetCameraSession()
	if sess == nil || newProfile == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	tree, err := sess.ReadConfigTree(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read camera config: "+err.Error()))
		return
	}
	profile := newProfile()
	if err := camera.Decode(tree, profile); err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to decode camera config: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandleCameraTree returns the raw widget tree the device reports,
// including fields the typed profile does not map. refresh=true forces
// a fresh hardware read past the cache.
// GET /api/self/v1/camera-tree
func HandleCameraTree(c *gin.Context) {
	sess, _ := models.GetCameraSession()
	if sess == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No tethered camera attached"))
		return
	}
	tree, err := sess.ReadConfigTree(c.Query("refresh") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read camera config: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(tree))
}

// HandleCameraConfigPatch applies a partial typed configuration to the
// device. Only fields present in the body participate; only those
// differing from the live value are written. The response lists the
// fields that actually changed.
// PATCH /api/self/v1/camera-config
func HandleCameraConfigPatch(c *gin.Context) {
	sess, newProfile := models.GetCameraSession()
	sy, _ := models.GetCameraControl()
	if sess == nil || sy == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No tethered camera attached"))
		return
	}

	desired := newProfile()
	if err := c.ShouldBindJSON(desired); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	changed, err := sy.Apply(desired, camera.ApplyOptions{})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, camera.ErrChoice) || errors.Is(err, camera.ErrFieldUnknown) || errors.Is(err, camera.ErrDecode) {
			status = http.StatusBadRequest
		}
		c.JSON(status, tool.FastReturnError("Failed to apply camera config: "+err.Error()))
		return
	}
	names := make([]string, 0, len(changed))
	for _, ref := range changed {
		names = append(names, ref.String())
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{"changed": names}))
}

// cameraCaptureRequest selects a capture protocol. Seconds is the
// shutter hold for bulb and burst; frames and step drive a focus stack.
type cameraCaptureRequest struct {
	Mode    string  `json:"mode" binding:"required"`
	Seconds float64 `json:"seconds"`
	Frames  int     `json:"frames"`
	Step    int     `json:"step"`
	Keep    bool    `json:"keep"`
	Name    string  `json:"name"`
}

// HandleCameraCapture runs one of the capture protocols against the
// tethered camera and downloads the results into the booth image folder.
// It responds when the protocol finishes; the booth's own countdown flow
// uses capture-async instead.
// POST /api/self/v1/capture
func HandleCameraCapture(c *gin.Context) {
	engine := models.GetBoothEngine()
	_, coord := models.GetCameraControl()
	if engine == nil || coord == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("No tethered camera attached"))
		return
	}

	var body cameraCaptureRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	opts := camera.CaptureOptions{KeepOnDevice: body.Keep}
	hold := time.Duration(body.Seconds * float64(time.Second))
	dir := engine.ImageDir()

	var res *camera.CaptureResult
	var err error
	switch body.Mode {
	case "single":
		if body.Name != "" {
			dest, perr := engine.ImagePath(body.Name)
			if perr != nil {
				c.JSON(http.StatusBadRequest, tool.FastReturnError(perr.Error()))
				return
			}
			res, err = coord.CaptureTo(dest, opts)
		} else {
			res, err = coord.CaptureToDir(dir, opts)
		}
	case "bulb":
		if hold <= 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Bulb capture needs seconds > 0"))
			return
		}
		res, err = coord.CaptureBulb(dir, hold, opts)
	case "burst":
		if hold <= 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Burst capture needs seconds > 0"))
			return
		}
		res, err = coord.CaptureBurst(dir, hold, opts)
	case "stack":
		if body.Frames <= 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Focus stack needs frames > 0"))
			return
		}
		step := body.Step
		if step == 0 {
			step = 1
		}
		res, err = coord.CaptureFocusStack(dir, body.Frames, step, opts)
	default:
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Unknown capture mode: "+body.Mode))
		return
	}
	if err != nil {
		tool.DefaultLogger.Errorf("Capture (%s) failed: %v", body.Mode, err)
		status := http.StatusInternalServerError
		if errors.Is(err, camera.ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, tool.FastReturnError("Failed to capture: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(res))
}
