package cli

import (
	"github.com/fatih/color"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/config"
)

// initLogging configures the process logger and color output from cfg.
// Logs go to stderr so json and yaml output on stdout stay parseable.
func initLogging(cfg *config.Config) {
	format := logger.FormatText
	if cfg.Settings.OutputFormat == "json" {
		format = logger.FormatJSON
	}
	logger.InitLogger(cfg.Settings.LogLevel, format)

	if cfg.Settings.NoColor {
		color.NoColor = true
	}
}
