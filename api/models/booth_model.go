package models

import (
	"sync"

	"github.com/Zahlii/godslr/booth"
	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/device"
	"github.com/Zahlii/godslr/printer"
)

// The wired core objects. Main sets them once before the server starts;
// controllers only read.
var (
	boothMu     sync.RWMutex
	boothEngine *booth.Engine
	printerSvc  *printer.Service
	captureDev  device.Device
	session     *camera.Session
	newProfile  func() camera.Profile
	cameraSync  *camera.Synchronizer
	cameraCoord *camera.Coordinator
	streamOpts  camera.StreamOptions
)

// SetBoothEngine sets the layout engine backing the booth endpoints.
func SetBoothEngine(e *booth.Engine) {
	boothMu.Lock()
	defer boothMu.Unlock()
	boothEngine = e
}

func GetBoothEngine() *booth.Engine {
	boothMu.RLock()
	defer boothMu.RUnlock()
	return boothEngine
}

// SetPrinterService sets the print backend.
func SetPrinterService(p *printer.Service) {
	boothMu.Lock()
	defer boothMu.Unlock()
	printerSvc = p
}

func GetPrinterService() *printer.Service {
	boothMu.RLock()
	defer boothMu.RUnlock()
	return printerSvc
}

// SetCaptureDevice sets the device previews and captures come from.
func SetCaptureDevice(d device.Device) {
	boothMu.Lock()
	defer boothMu.Unlock()
	captureDev = d
}

func GetCaptureDevice() device.Device {
	boothMu.RLock()
	defer boothMu.RUnlock()
	return captureDev
}

// SetCameraSession exposes the raw camera session and its profile
// factory for the camera_config endpoint. Both stay nil when only a
// snapshot camera is attached.
func SetCameraSession(s *camera.Session, factory func() camera.Profile) {
	boothMu.Lock()
	defer boothMu.Unlock()
	session = s
	newProfile = factory
}

func GetCameraSession() (*camera.Session, func() camera.Profile) {
	boothMu.RLock()
	defer boothMu.RUnlock()
	return session, newProfile
}

// SetCameraControl exposes the config synchronizer and the capture
// coordinator for the camera admin endpoints. Both stay nil when only a
// snapshot camera is attached.
func SetCameraControl(sy *camera.Synchronizer, coord *camera.Coordinator) {
	boothMu.Lock()
	defer boothMu.Unlock()
	cameraSync = sy
	cameraCoord = coord
}

func GetCameraControl() (*camera.Synchronizer, *camera.Coordinator) {
	boothMu.RLock()
	defer boothMu.RUnlock()
	return cameraSync, cameraCoord
}

// SetStreamOptions sets the bounds applied to each preview stream.
func SetStreamOptions(o camera.StreamOptions) {
	boothMu.Lock()
	defer boothMu.Unlock()
	streamOpts = o
}

func GetStreamOptions() camera.StreamOptions {
	boothMu.RLock()
	defer boothMu.RUnlock()
	return streamOpts
}
