package models

import (
	"errors"
	"testing"
	"time"

	ttlworker "github.com/FloatTech/ttl"
)

// TestCaptureJobLifecycle tests registering, completing and fetching a job
func TestCaptureJobLifecycle(t *testing.T) {
	job := NewCaptureJob()
	if job.ID == "" {
		t.Fatal("New job should carry an id")
	}
	if job.Status != "pending" {
		t.Errorf("Expected status pending, got %s", job.Status)
	}

	CompleteCaptureJob(job.ID, nil, errors.New("shutter jammed"))
	got, ok := GetCaptureJob(job.ID)
	if !ok {
		t.Fatal("Completed job should stay fetchable")
	}
	if got.Status != "error" {
		t.Errorf("Expected status error, got %s", got.Status)
	}
	if got.Error != "shutter jammed" {
		t.Errorf("Expected error message to survive, got %q", got.Error)
	}

	if _, ok := GetCaptureJob("never-started"); ok {
		t.Error("Unknown job id should not resolve")
	}
}

// TestCaptureJobExpiry tests that finished jobs fall out of the registry
func TestCaptureJobExpiry(t *testing.T) {
	saved := captureJobs
	captureJobs = ttlworker.NewCache[string, *CaptureJob](30 * time.Millisecond)
	defer func() { captureJobs = saved }()

	job := NewCaptureJob()
	if _, ok := GetCaptureJob(job.ID); !ok {
		t.Fatal("Fresh job should resolve")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := GetCaptureJob(job.ID); ok {
		t.Error("Expired job should not resolve")
	}

	// Completing after expiry must not panic, just warn.
	CompleteCaptureJob(job.ID, nil, nil)
}
