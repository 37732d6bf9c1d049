package logger

import (
	"github.com/brandforge/gen-server/internal/config"

	"go.uber.org/zap"
)

// NewLogger builds the zap logger for the configured environment: sampled
// JSON in prod, a deterministic example logger under test, and the console
// development logger otherwise.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "prod" {
		return zap.NewProduction()
	}
	if cfg.Environment == "test" {
		return zap.NewExample(), nil
	}

	return zap.NewDevelopment()
}
