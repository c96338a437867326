// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"

	"github.com/flowboard/flowboard/internal/config"
)

// Create builds the sqlite Data Source Name from the configuration.
func Create(cfg *config.Config) string {
	path := cfg.DB.Path
	if path == "" {
		path = "flowboard.db"
	}

	if cfg.DB.Extras == "" {
		return path
	}

	return fmt.Sprintf("%s?%s", path, cfg.DB.Extras)
}
