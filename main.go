package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Zahlii/godslr/announce"
	"github.com/Zahlii/godslr/api"
	"github.com/Zahlii/godslr/api/controllers"
	"github.com/Zahlii/godslr/api/models"
	"github.com/Zahlii/godslr/api/notifyhub"
	"github.com/Zahlii/godslr/booth"
	"github.com/Zahlii/godslr/camera"
	"github.com/Zahlii/godslr/device"
	"github.com/Zahlii/godslr/exif"
	"github.com/Zahlii/godslr/gphoto"
	"github.com/Zahlii/godslr/hw/button"
	"github.com/Zahlii/godslr/hw/gpio"
	"github.com/Zahlii/godslr/notify"
	"github.com/Zahlii/godslr/printer"
	"github.com/Zahlii/godslr/schema"
	"github.com/Zahlii/godslr/tool"
)

func main() {
	cfg := tool.SetFlags()
	if _, err := tool.LoadConfig(cfg.UseConfigPath); err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	appCfg := tool.GetCurrentConfig()
	tool.ApplyFlagOverrides(appCfg, cfg)
	tool.SetFlagOverrides(&cfg)

	if cfg.UseMulticastAddress != "" {
		announce.SetMulticastAddress(cfg.UseMulticastAddress)
	}
	if cfg.UseMulticastPort > 0 {
		announce.SetMulticastPort(cfg.UseMulticastPort)
	}
	if cfg.UseReferNetworkInterface != "" {
		announce.SetReferNetworkInterface(cfg.UseReferNetworkInterface)
	}
	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}

	// initialize logger
	tool.InitLogger()

	if cfg.Log == "" {
		tool.DefaultLogger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.Log) {
		case "dev":
			tool.DefaultLogger.SetLevel(log.DebugLevel)
		case "prod":
			tool.DefaultLogger.SetLevel(log.InfoLevel)
		case "none":
			tool.DefaultLogger.SetLevel(log.FatalLevel)
		default:
			tool.DefaultLogger.Warnf("Unknown log mode %q, using debug level", cfg.Log)
			tool.DefaultLogger.SetLevel(log.DebugLevel)
		}
	}

	if !exif.Available() {
		tool.DefaultLogger.Warnf("exiftool not found, captures will carry no metadata")
	}

	// Pick the capture backend: tethered camera by default, the HTTP
	// snapshot camera or the simulator when configured.
	var (
		sess        *camera.Session
		sy          *camera.Synchronizer
		coord       *camera.Coordinator
		inner       device.Device
		deviceModel string
	)
	if appCfg.Camera.NetcamURL != "" {
		netcam := device.NewNetcam("netcam", appCfg.Camera.NetcamURL)
		if err := netcam.Probe(5 * time.Second); err != nil {
			tool.DefaultLogger.Fatalf("Netcam not reachable: %v", err)
		}
		inner = netcam
		deviceModel = "Network camera"
	} else {
		var link camera.Link
		if appCfg.Camera.Simulated {
			link = camera.NewSimLink(camera.SimOptions{})
		} else {
			realLink, err := gphoto.NewLink()
			if err != nil {
				tool.DefaultLogger.Fatalf("%v", err)
			}
			link = realLink
		}
		sess = camera.NewSession(link)
		if err := sess.Open(); err != nil {
			tool.DefaultLogger.Fatalf("Failed to open camera: %v", err)
		}
		sy = camera.NewSynchronizer(sess, schema.NewR6M2)
		coord = camera.NewCoordinator(sess, sy, camera.DefaultPolicy())
		coord.ExtractMeta = exif.Extract
		deviceModel = cameraModel(sess, appCfg.Camera.Simulated)
		inner = device.NewDSLR(deviceModel, sess, coord,
			camera.CaptureOptions{KeepOnDevice: appCfg.Camera.KeepOnDevice})
	}
	tool.DefaultLogger.Infof("Capture device: %s", deviceModel)

	overlay := device.NewOverlay(inner, appCfg.Booth.MirrorImage)

	imageDir := filepath.Join(appCfg.ImageFolder, appCfg.Booth.FolderName)
	engine, err := booth.NewEngine(appCfg.LayoutFolder, imageDir, overlay)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	engine.ExtractMeta = exif.Extract

	message := tool.BuildAnnounceMessage(appCfg, deviceModel)
	models.SetSelfDevice(message)
	models.SetBoothEngine(engine)
	models.SetPrinterService(printer.New(appCfg.Printer.Border))
	models.SetCaptureDevice(overlay)
	if sess != nil {
		models.SetCameraSession(sess, schema.NewR6M2)
		models.SetCameraControl(sy, coord)
	}
	models.SetStreamOptions(camera.StreamOptions{
		MaxFPS:      appCfg.Camera.PreviewMaxFPS,
		MaxDuration: time.Duration(appCfg.Camera.PreviewMaxSeconds * float64(time.Second)),
	})

	hub := notifyhub.New()
	notify.AddSink(hub)

	var mdnsShutdown func()
	var mqttAnn *announce.MQTTAnnouncer
	if appCfg.Announce.Enabled && !cfg.SkipAnnounce {
		if appCfg.Announce.Multicast {
			go announce.ListenMulticastUsingUDP(message)
			go func() {
				if err := announce.SendMulticastUsingUDP(message); err != nil {
					tool.DefaultLogger.Warnf("UDP announce stopped: %v", err)
				}
			}()
		}
		if appCfg.Announce.MDNS {
			shutdown, err := announce.StartMDNS(message)
			if err != nil {
				tool.DefaultLogger.Warnf("Failed to register mDNS service: %v", err)
			} else {
				mdnsShutdown = shutdown
			}
		}
		if appCfg.Announce.MQTTBroker != "" {
			mqttAnn = announce.NewMQTTAnnouncer(appCfg.Announce, message, func() {
				if _, err := controllers.StartAsyncCapture("mqtt"); err != nil {
					tool.DefaultLogger.Warnf("MQTT capture not started: %v", err)
				}
			})
			if err := mqttAnn.Start(); err != nil {
				tool.DefaultLogger.Warnf("MQTT announcer not started: %v", err)
				mqttAnn = nil
			} else {
				notify.AddSink(mqttAnn)
			}
		}
	}

	// A physical shutter button short-presses into a capture. Long
	// presses only notify; the frontend decides what they mean.
	var watcher *button.Watcher
	if appCfg.Button.Enabled {
		drv, err := gpio.NewDriver(appCfg.Button.MockGPIO)
		if err != nil {
			tool.DefaultLogger.Fatalf("%v", err)
		}
		watcher, err = button.NewWatcher(drv, button.Config{Pin: appCfg.Button.Pin},
			func() {
				notify.SendButtonPress("short")
				if _, err := controllers.StartAsyncCapture("button"); err != nil {
					tool.DefaultLogger.Warnf("Button capture not started: %v", err)
				}
			},
			func() {
				notify.SendButtonPress("long")
			})
		if err != nil {
			tool.DefaultLogger.Fatalf("%v", err)
		}
		watcher.Start()
	}

	apiServer := api.NewServer(appCfg.Port, "", hub)
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	// Block until asked to stop, then release the camera. A tethered
	// device stays claimed on the USB bus when the session is not closed.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	tool.DefaultLogger.Info("Shutting down")
	if watcher != nil {
		watcher.Stop()
	}
	if mqttAnn != nil {
		mqttAnn.Stop()
	}
	if mdnsShutdown != nil {
		mdnsShutdown()
	}
	if sess != nil {
		if err := sess.Close(); err != nil {
			tool.DefaultLogger.Warnf("Failed to close camera session: %v", err)
		}
	}
}

// cameraModel reads the model name from the config tree, falling back
// to a generic label when the device does not expose one.
func cameraModel(sess *camera.Session, simulated bool) string {
	fallback := "Tethered camera"
	if simulated {
		fallback = "Simulated camera"
	}
	tree, err := sess.ReadConfigTree(false)
	if err != nil {
		return fallback
	}
	if w := tree.Find("cameramodel"); w != nil {
		if s, ok := w.Value.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
