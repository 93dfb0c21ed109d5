// Package main is the entry point for the interactive batch2d demo.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/batch2d/internal/config"
	"github.com/Faultbox/batch2d/internal/demo"
	"github.com/Faultbox/batch2d/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== batch2d demo ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	d, err := demo.New(cfg)
	if err != nil {
		logger.Error("failed to create demo", zap.Error(err))
		os.Exit(1)
	}

	runErr := d.Run()
	if err := d.Close(); err != nil {
		logger.Warn("cleanup failed", zap.Error(err))
	}
	if runErr != nil {
		logger.Error("demo error", zap.Error(runErr))
		os.Exit(1)
	}

	logger.Info("demo closed normally")
}
