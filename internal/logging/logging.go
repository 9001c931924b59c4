// Package logging builds the zap loggers used by the CLI and the TUI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger writing to the given paths ("stderr",
// "stdout" or files). verbose forces debug level over the configured one.
func New(level string, verbose bool, paths ...string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	if len(paths) > 0 {
		config.OutputPaths = paths
		config.ErrorOutputPaths = paths
	}

	return config.Build()
}

// NewFile builds a logger writing only to path, creating its directory.
// The TUI uses this so log lines never land on the alternate screen.
func NewFile(level string, verbose bool, path string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return New(level, verbose, path)
}
