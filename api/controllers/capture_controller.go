package controllers

import (
	"errors"
	"net/http"

	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/notify"
	"github.com/Zahlii/godslr/tool"
	"github.com/gin-gonic/gin"
)

// StartAsyncCapture registers a capture job and runs it on its own
// goroutine. The HTTP endpoint, the physical button and the MQTT
// trigger all start captures through here. source names the trigger in
// notifications.
func StartAsyncCapture(source string) (string, error) {
	engine := models.GetBoothEngine()
	if engine == nil {
		return "", errors.New("no booth engine attached")
	}

	job := models.NewCaptureJob()
	go func() {
		notify.SendCaptureStart(source)
		snap, err := engine.Take()
		if err != nil {
			notify.SendCaptureError(err)
			tool.DefaultLogger.Errorf("Capture failed: %v", err)
		} else {
			notify.SendCaptureDone(map[string]any{"image_path": snap.ImagePath, "job_id": job.ID})
		}
		models.CompleteCaptureJob(job.ID, snap, err)
	}()
	return job.ID, nil
}

// UserCaptureAsync starts a capture in the background and returns a job
// id to poll with capture-result. Remote triggers use this instead of
// /api/snapshot so they never block on the shutter.
// POST /api/self/v1/capture-async
func UserCaptureAsync(c *gin.Context) {
	jobID, err := StartAsyncCapture("async")
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{"jobId": jobID}))
}

// UserCaptureResult reports the state of an async capture job. Jobs
// expire a few minutes after creation.
// GET /api/self/v1/capture-result?jobId=<id>
func UserCaptureResult(c *gin.Context) {
	id := c.Query("jobId")
	if id == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: jobId"))
		return
	}
	job, ok := models.GetCaptureJob(id)
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Unknown or expired job: "+id))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(job))
}
