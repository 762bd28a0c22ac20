package logger_test

import (
	"errors"

	"github.com/wonny/aegis-nse/pkg/config"
	"github.com/wonny/aegis-nse/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Info("pipeline started")
	log.WithField("rows", 1200).Info("panel loaded")
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"})

	log.WithFields(map[string]interface{}{
		"horizon": "weekly",
		"cv_auc":  0.61,
	}).Info("model trained")

	log.WithError(errors.New("no model")).Warn("horizon skipped")
}
