package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// startLayout is the wall-clock format of FESTIVAL_START, read in
// FESTIVAL_TIMEZONE.
const startLayout = "2006-01-02T15:04:05"

// FestivalConfig describes the event itself: when it opens, where the
// programme comes from and how screens are routed.
type FestivalConfig struct {
	Name         string        `env:"FESTIVAL_NAME"          envDefault:"WestFest"`
	Start        string        `env:"FESTIVAL_START"         envDefault:"2025-04-25T14:00:00"`
	Timezone     string        `env:"FESTIVAL_TIMEZONE"      envDefault:"Europe/Dublin"`
	SchedulePath string        `env:"FESTIVAL_SCHEDULE_PATH"`
	TickInterval time.Duration `env:"FESTIVAL_TICK_INTERVAL" envDefault:"1s"`
	MainRoute    string        `env:"FESTIVAL_MAIN_ROUTE"    envDefault:"/MainContainer"`
	LoginRoute   string        `env:"FESTIVAL_LOGIN_ROUTE"   envDefault:"/"`
}

// LoadFestival parses the festival section from the environment.
func LoadFestival() (FestivalConfig, error) {
	var cfg FestivalConfig
	if err := env.Parse(&cfg); err != nil {
		return FestivalConfig{}, fmt.Errorf("parse festival env: %w", err)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return cfg, nil
}

// Location loads the festival time zone.
func (c FestivalConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("festival timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// StartTime returns the countdown target in the festival time zone.
func (c FestivalConfig) StartTime() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(startLayout, c.Start, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("festival start %q: %w", c.Start, err)
	}
	return t, nil
}
