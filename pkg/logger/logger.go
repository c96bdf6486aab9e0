package logger

import (
	"go.uber.org/zap"
)

// LoggerConfig controls how the application logger is built
type LoggerConfig struct {
	Debug bool
}

// NewLogger creates a zap logger; Debug switches to the human-readable
// development encoder with debug-level output enabled
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg != nil && cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
