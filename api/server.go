package api

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Zahlii/godslr/api/controllers"
	"github.com/Zahlii/godslr/api/middlewares"
	"github.com/Zahlii/godslr/api/notifyhub"
	"github.com/Zahlii/godslr/notify"
	"github.com/Zahlii/godslr/tool"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Server hosts the booth REST API and the static booth frontend.
type Server struct {
	port    int
	webRoot string
	hub     *notifyhub.Hub
	engine  *gin.Engine
	server  *http.Server
	mu      sync.RWMutex
}

// DefaultWebRoot is where the booth frontend build is expected.
var DefaultWebRoot = "web"

// NewServer creates an API server. hub may be nil when the WebSocket
// notify channel is disabled.
func NewServer(port int, webRoot string, hub *notifyhub.Hub) *Server {
	if webRoot == "" {
		webRoot = DefaultWebRoot
	}
	return &Server{
		port:    port,
		webRoot: webRoot,
		hub:     hub,
	}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.Default()
	engine.Use(middlewares.AllowAllCORS())
	engine.Use(gin.Recovery())

	// Booth endpoints the frontend drives the kiosk with.
	ui := engine.Group("/api")
	{
		ui.GET("/stream", controllers.HandleStream)
		ui.GET("/config", controllers.HandleBoothConfig)
		ui.GET("/last", controllers.HandleLastImage)
		ui.GET("/camera_config", controllers.HandleCameraConfig)
		ui.GET("/snapshot", controllers.HandleSnapshot)
		ui.DELETE("/snapshots", controllers.HandleDeleteSnapshots)
		ui.POST("/print", controllers.HandlePrint)
		ui.GET("/available_layouts", controllers.HandleAvailableLayouts)
		ui.GET("/layout/image/:filename", controllers.HandleLayoutImage)
		ui.POST("/layout", controllers.HandleSetLayout)
		ui.POST("/layout/render", controllers.HandleRenderLayout)
		ui.GET("/image/:name", controllers.HandleImageDownload) // download target of the QR code
	}
	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.GET("/status", controllers.UserStatus) // Running and notify_ws_enabled for web UI
		self.GET("/config", controllers.UserConfigGet)
		self.PATCH("/config", controllers.UserConfigPatch)
		self.GET("/create-qr-code", controllers.GenerateQRCode) // QR code PNG (same params as api.qrserver.com)
		self.POST("/capture-async", controllers.UserCaptureAsync)
		self.GET("/capture-result", controllers.UserCaptureResult)
		self.GET("/camera-tree", controllers.HandleCameraTree)
		self.PATCH("/camera-config", controllers.HandleCameraConfigPatch)
		self.POST("/capture", controllers.HandleCameraCapture)
		if s.hub != nil && notify.Enabled() {
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(s.hub))
		}
	}

	s.mountUI(engine)
	return engine
}

// mountUI serves the static frontend build. App routes fall back to
// index.html so opening a deep link directly works without a redirect.
func (s *Server) mountUI(engine *gin.Engine) {
	if _, err := os.Stat(filepath.Join(s.webRoot, "index.html")); err != nil {
		tool.DefaultLogger.Warnf("No booth UI at %s, serving the API only", s.webRoot)
		return
	}
	webFS := os.DirFS(s.webRoot)
	fileServer := http.FileServer(http.FS(webFS))
	engine.NoRoute(gin.WrapF(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		// Static assets (has extension like .js, .css, .png) are served
		// directly if they exist.
		if ext := filepath.Ext(path); ext != "" && ext != ".html" {
			if webPathExists(webFS, path) {
				fileServer.ServeHTTP(w, r)
				return
			}
			http.NotFound(w, r)
			return
		}

		// HTML routes always get index.html; the SPA handles the rest
		// client-side.
		data, err := fs.ReadFile(webFS, "index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}))
	tool.DefaultLogger.Infof("Serving booth UI from %s", s.webRoot)
}

// webPathExists returns true if name exists as file or as dir (with index.html) in the FS.
func webPathExists(f fs.FS, name string) bool {
	name = strings.TrimPrefix(name, "/")
	_, err := fs.Stat(f, name)
	if err == nil {
		return true
	}
	_, err = fs.Stat(f, name+"/index.html")
	return err == nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: engine,
	}
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://0.0.0.0:%d", s.port)
	return s.server.ListenAndServe()
}
