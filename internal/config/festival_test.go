package config

import (
	"testing"
	"time"
)

func TestLoadFestivalDefaults(t *testing.T) {
	cfg, err := LoadFestival()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "WestFest" || cfg.MainRoute != "/MainContainer" || cfg.LoginRoute != "/" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TickInterval != time.Second {
		t.Fatalf("TickInterval = %v, want 1s", cfg.TickInterval)
	}
}

func TestFestivalStartTime(t *testing.T) {
	t.Setenv("FESTIVAL_START", "2025-04-25T14:00:00")
	t.Setenv("FESTIVAL_TIMEZONE", "UTC")
	cfg, err := LoadFestival()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := cfg.StartTime()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	want := time.Date(2025, time.April, 25, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("StartTime = %v, want %v", got, want)
	}
}

func TestFestivalStartTimeErrors(t *testing.T) {
	cfg := FestivalConfig{Start: "2025-04-25T14:00:00", Timezone: "Mars/Olympus"}
	if _, err := cfg.StartTime(); err == nil {
		t.Fatal("expected timezone error")
	}
	cfg = FestivalConfig{Start: "next friday", Timezone: "UTC"}
	if _, err := cfg.StartTime(); err == nil {
		t.Fatal("expected start parse error")
	}
}

func TestLoadFestivalBadInterval(t *testing.T) {
	t.Setenv("FESTIVAL_TICK_INTERVAL", "often")
	if _, err := LoadFestival(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadStorageClampsQuality(t *testing.T) {
	t.Setenv("PROFILE_IMAGE_QUALITY", "400")
	cfg, err := LoadStorage()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JPEGQuality != 50 || cfg.ImageWidth != 600 || cfg.MaxImagePixels != 24000000 {
		t.Fatalf("unexpected storage config: %+v", cfg)
	}
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg, err := LoadCacheConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
		t.Fatalf("methods = %v", cfg.Methods)
	}
	if cfg.Prefix != "westfest:cache" {
		t.Fatalf("prefix = %q", cfg.Prefix)
	}
}

func TestLoadRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg, err := LoadRateLimitConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Capacity != 1 {
		t.Fatalf("capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.TTL != 30*time.Second {
		t.Fatalf("ttl = %v, want 30s", cfg.TTL)
	}
}

func TestRedisAddress(t *testing.T) {
	cfg := RedisConfig{Addr: "cache:6379"}
	if cfg.Address() != "cache:6379" {
		t.Fatalf("addr = %q", cfg.Address())
	}
	cfg.Host, cfg.Port = "redis", "6380"
	if cfg.Address() != "redis:6380" {
		t.Fatalf("addr = %q", cfg.Address())
	}
}

func TestLoadMaintenanceDefaults(t *testing.T) {
	cfg, err := LoadMaintenance()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JanitorSpec != "10 * * * *" || cfg.TokenRetention != 24*time.Hour {
		t.Fatalf("cfg = %+v", cfg)
	}
}
