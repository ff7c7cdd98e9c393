package tool

import (
	"os"

	"github.com/charmbracelet/log"
)

// DefaultLogger is the shared logger every subsystem writes to. The
// level is selected in main once the flags are parsed.
var DefaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "godslr",
})

// InitLogger applies the log format: wall-clock timestamps and caller
// locations.
func InitLogger() {
	DefaultLogger.SetTimeFormat("2006-01-02 15:04:05")
	DefaultLogger.SetReportTimestamp(true)
	DefaultLogger.SetReportCaller(true)
}
