package main

import (
	"fmt"

	"github.com/phrazzld/coach-api/internal/config"
)

// loadAppConfig loads .env files, then the config file and environment.
func loadAppConfig(opts *rootOptions) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
