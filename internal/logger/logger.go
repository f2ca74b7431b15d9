// Package logger builds the application's zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a logger for mode: "prod" or "production" selects JSON output
// at info level; anything else selects the console encoder at debug level.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// Must is New with a no-op fallback.
func Must(mode string) *zap.Logger {
	l, err := New(mode)
	if err != nil {
		return zap.NewNop()
	}
	return l
}
