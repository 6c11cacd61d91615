// Package logging builds the process-wide charmbracelet logger.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/ermos/backupmanager/internal/constants"
)

// New returns a logger writing to w. Debug output is enabled when verbose is set.
func New(w io.Writer, verbose bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           lo.Ternary(verbose, log.DebugLevel, log.InfoLevel),
		ReportTimestamp: true,
		ReportCaller:    verbose,
		Prefix:          constants.ToolName,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
