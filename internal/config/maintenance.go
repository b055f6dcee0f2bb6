package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MaintenanceConfig schedules the refresh token janitor.
type MaintenanceConfig struct {
	JanitorSpec    string        `env:"JANITOR_SPEC"    envDefault:"10 * * * *"`
	TokenRetention time.Duration `env:"TOKEN_RETENTION" envDefault:"24h"`
}

// LoadMaintenance parses the maintenance section from the environment.
func LoadMaintenance() (MaintenanceConfig, error) {
	var cfg MaintenanceConfig
	if err := env.Parse(&cfg); err != nil {
		return MaintenanceConfig{}, fmt.Errorf("parse maintenance env: %w", err)
	}
	return cfg, nil
}
