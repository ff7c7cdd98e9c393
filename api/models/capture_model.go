package models

import (
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/Zahlii/godslr/booth"
	"github.com/Zahlii/godslr/tool"
)

// CaptureJobTTL is how long finished jobs stay fetchable.
const CaptureJobTTL = 10 * time.Minute

// CaptureJob tracks one asynchronous snapshot request.
type CaptureJob struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"` // pending | done | error
	Error    string          `json:"error,omitempty"`
	Snapshot *booth.Snapshot `json:"snapshot,omitempty"`
	Started  time.Time       `json:"started"`
}

var captureJobs = ttlworker.NewCache[string, *CaptureJob](CaptureJobTTL)

// NewCaptureJob registers a pending job and returns it.
func NewCaptureJob() *CaptureJob {
	job := &CaptureJob{
		ID:      tool.GenerateShortSessionID(),
		Status:  "pending",
		Started: time.Now(),
	}
	captureJobs.Set(job.ID, job)
	return job
}

// CompleteCaptureJob stores the outcome under the job id.
func CompleteCaptureJob(id string, snap *booth.Snapshot, err error) {
	job := captureJobs.Get(id)
	if job == nil {
		// Expired before the capture finished; nothing to report to.
		tool.DefaultLogger.Warnf("capture job %s expired before completion", id)
		return
	}
	if err != nil {
		job.Status = "error"
		job.Error = err.Error()
	} else {
		job.Status = "done"
		job.Snapshot = snap
	}
	captureJobs.Set(id, job)
}

// GetCaptureJob returns a job by id.
func GetCaptureJob(id string) (*CaptureJob, bool) {
	job := captureJobs.Get(id)
	return job, job != nil
}
