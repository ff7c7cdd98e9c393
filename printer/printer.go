// Package printer drives the system print queue through lpstat and
// lpr, with an optional white border canvas for photo paper.
package printer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zahlii/godslr/tool"
)

// Request is one print job as submitted by the booth UI.
type Request struct {
	ImagePath   string `json:"image_path"`
	Copies      int    `json:"copies"`
	Landscape   bool   `json:"landscape"`
	PrinterName string `json:"printer_name,omitempty"`
}

// Service submits print jobs. Border is the white margin in pixels
// added around each image before printing; zero prints the file as-is.
type Service struct {
	Border int
}

// New builds a print service.
func New(border int) *Service {
	return &Service{Border: border}
}

// Printers lists the names of all configured printers.
func (s *Service) Printers() ([]string, error) {
	out, err := runCommand("lpstat", "-p")
	if err != nil {
		return nil, err
	}
	return parsePrinters(out), nil
}

// DefaultPrinter returns the system default destination, or an empty
// string when none is configured.
func (s *Service) DefaultPrinter() (string, error) {
	out, err := runCommand("lpstat", "-d")
	if err != nil {
		return "", err
	}
	return parseDefault(out), nil
}

// Print submits req to lpr. When no printer is named, the system
// default is resolved first.
func (s *Service) Print(req Request) error {
	if _, err := os.Stat(req.ImagePath); err != nil {
		return fmt.Errorf("image file does not exist: %s", req.ImagePath)
	}
	path := req.ImagePath
	if s.Border > 0 {
		bordered, err := writeBordered(path, s.Border)
		if err != nil {
			return err
		}
		defer os.Remove(bordered)
		path = bordered
	}
	printer := req.PrinterName
	if printer == "" {
		p, err := s.DefaultPrinter()
		if err != nil {
			return err
		}
		printer = p
	}
	args := lprArgs(printer, req.Copies, req.Landscape, path)
	if _, err := runCommand("lpr", args...); err != nil {
		return err
	}
	tool.DefaultLogger.Infof("submitted %s to printer %s", req.ImagePath, printer)
	return nil
}

func runCommand(name string, args ...string) (string, error) {
	tool.DefaultLogger.Debugf("running %s %s", name, strings.Join(args, " "))
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		if _, lookErr := exec.LookPath(name); lookErr != nil {
			return "", fmt.Errorf("printing system is not installed: %w", lookErr)
		}
		return "", fmt.Errorf("%s failed: %v\noutput:\n%s", name, err, string(out))
	}
	return string(out), nil
}

// parsePrinters extracts printer names from lpstat -p output. Lines
// look like "printer Canon_SELPHY_CP1500 is idle.  enabled since ...".
func parsePrinters(out string) []string {
	var printers []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "printer ") {
			continue
		}
		head, _, found := strings.Cut(line, " is ")
		if !found {
			continue
		}
		printers = append(printers, strings.TrimSpace(strings.TrimPrefix(head, "printer ")))
	}
	return printers
}

// parseDefault extracts the printer name from lpstat -d output, shaped
// like "system default destination: Canon_SELPHY_CP1500".
func parseDefault(out string) string {
	out = strings.TrimSpace(out)
	if strings.Contains(strings.ToLower(out), "no default destination") {
		return ""
	}
	_, name, found := strings.Cut(out, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(name)
}

func lprArgs(printer string, copies int, landscape bool, path string) []string {
	var args []string
	if printer != "" {
		args = append(args, "-P", printer)
	}
	if copies > 1 {
		args = append(args, "-#", strconv.Itoa(copies))
	}
	if landscape {
		args = append(args, "-o", "landscape")
	}
	return append(args, path)
}

// writeBordered renders the image centered on a white canvas grown by
// the border on the long edge, keeping the aspect ratio, and writes it
// to a temporary file the caller removes after printing.
func writeBordered(path string, border int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	canvas := borderCanvas(img, border)
	tmp, err := os.CreateTemp("", "print_*.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()
	if err := jpeg.Encode(tmp, canvas, &jpeg.Options{Quality: 95}); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to encode %s: %w", filepath.Base(tmp.Name()), err)
	}
	return tmp.Name(), nil
}

func borderCanvas(img image.Image, border int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var newW, newH int
	if w >= h {
		newW = w + 2*border
		newH = newW * h / w
		if newH%2 != 0 {
			newH++
		}
	} else {
		newH = h + 2*border
		newW = newH * w / h
		if newW%2 != 0 {
			newW++
		}
	}
	canvas := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	offset := image.Pt((newW-w)/2, (newH-h)/2)
	draw.Draw(canvas, b.Add(offset), img, b.Min, draw.Src)
	return canvas
}
