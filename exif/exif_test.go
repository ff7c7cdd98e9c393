package exif

import (
	"testing"
)

// Trimmed from real exiftool -j -G output of a Canon JPEG.
const sampleOutput = `[{
  "SourceFile": "IMG_0001.JPG",
  "File:FileName": "IMG_0001.JPG",
  "File:ImageWidth": 6000,
  "File:ImageHeight": 4000,
  "EXIF:Make": "Canon",
  "EXIF:ISO": 400,
  "EXIF:FNumber": 5.6,
  "EXIF:ExposureTime": "1/125"
}]`

func TestParseExiftoolOutput(t *testing.T) {
	meta, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if meta.ISO != 400 {
		t.Errorf("Expected ISO 400, got %d", meta.ISO)
	}
	if meta.FNumber != 5.6 {
		t.Errorf("Expected f/5.6, got %v", meta.FNumber)
	}
	if meta.ExposureTime != "1/125" {
		t.Errorf("Expected exposure 1/125, got %q", meta.ExposureTime)
	}
	if meta.Width != 6000 || meta.Height != 4000 {
		t.Errorf("Expected 6000x4000, got %dx%d", meta.Width, meta.Height)
	}
}

func TestParseToleratesStringNumbers(t *testing.T) {
	// Some tag sources report numbers as strings.
	out := `[{"EXIF:ISO": "1600", "EXIF:FNumber": "2.8", "File:ImageWidth": 6000, "File:ImageHeight": 4000}]`
	meta, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if meta.ISO != 1600 {
		t.Errorf("Expected ISO 1600, got %d", meta.ISO)
	}
	if meta.FNumber != 2.8 {
		t.Errorf("Expected f/2.8, got %v", meta.FNumber)
	}
}

func TestParseMissingFieldsStayZero(t *testing.T) {
	meta, err := Parse([]byte(`[{"File:ImageWidth": 100, "File:ImageHeight": 50}]`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if meta.ISO != 0 || meta.FNumber != 0 || meta.ExposureTime != "" {
		t.Errorf("Expected zero values for absent tags, got %+v", meta)
	}
}

func TestParseRejectsEmptyAndBroken(t *testing.T) {
	if _, err := Parse([]byte(`[]`)); err == nil {
		t.Error("Expected an error for an empty record list")
	}
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Error("Expected an error for malformed output")
	}
}
