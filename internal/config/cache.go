package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig drives the Redis response cache in front of the programme
// endpoints.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED"        envDefault:"true"`
	MethodList   []string      `env:"CACHE_METHODS"        envDefault:"GET" envSeparator:","`
	TTL          time.Duration `env:"CACHE_TTL"            envDefault:"10m"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY"   envDefault:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX"         envDefault:"westfest:cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

	// Methods is MethodList upper-cased into a set.
	Methods map[string]bool `env:"-"`
}

// LoadCacheConfig parses the cache section from the environment.
func LoadCacheConfig() (CacheConfig, error) {
	var cfg CacheConfig
	if err := env.Parse(&cfg); err != nil {
		return CacheConfig{}, fmt.Errorf("parse cache env: %w", err)
	}
	cfg.Methods = map[string]bool{}
	for _, m := range cfg.MethodList {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			cfg.Methods[m] = true
		}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return cfg, nil
}
