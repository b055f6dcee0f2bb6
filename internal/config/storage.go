package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// StorageConfig controls where uploaded objects live and how profile
// pictures are processed before upload.
type StorageConfig struct {
	MediaRoot      string `env:"MEDIA_ROOT"               envDefault:"./media"`
	PublicBaseURL  string `env:"MEDIA_PUBLIC_BASE_URL"    envDefault:"http://localhost:8080/media"`
	ImageWidth     int    `env:"PROFILE_IMAGE_WIDTH"      envDefault:"600"`
	JPEGQuality    int    `env:"PROFILE_IMAGE_QUALITY"    envDefault:"50"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES"         envDefault:"10485760"`
	MaxImagePixels int    `env:"PROFILE_IMAGE_MAX_PIXELS" envDefault:"24000000"`
}

// LoadStorage parses the storage section from the environment.
func LoadStorage() (StorageConfig, error) {
	var cfg StorageConfig
	if err := env.Parse(&cfg); err != nil {
		return StorageConfig{}, fmt.Errorf("parse storage env: %w", err)
	}
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = 600
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 50
	}
	if cfg.MaxImagePixels <= 0 {
		cfg.MaxImagePixels = 24000000
	}
	return cfg, nil
}
