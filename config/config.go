package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Controller ControllerConfig `yaml:"controller"`
	Display    DisplayConfig    `yaml:"display"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Status     StatusConfig     `yaml:"status"`
	Countdown  CountdownConfig  `yaml:"countdown"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// ControllerConfig describes how to reach the irrigation controller.
type ControllerConfig struct {
	URL                string            `yaml:"url"`
	HTTPProxy          string            `yaml:"http_proxy"`
	Headers            map[string]string `yaml:"headers"`
	TimeoutSeconds     int               `yaml:"timeout_seconds"`
	RateLimitPerSec    float64           `yaml:"rate_limit_per_sec"`
	LogCacheTTLSeconds int               `yaml:"log_cache_ttl_seconds"`
}

// DisplayConfig carries the page bootstrap values of the controller UI.
type DisplayConfig struct {
	Timezone           string `yaml:"timezone"`
	ClockOffsetSeconds int    `yaml:"clock_offset_seconds"`
	TimeFormat         string `yaml:"time_format"` // "24h" or "12h"
	ManualMode         bool   `yaml:"manual_mode"`
}

// ScheduleConfig tunes the schedule refresh controller and the layout engine.
type ScheduleConfig struct {
	RefreshIntervalSeconds int     `yaml:"refresh_interval_seconds"`
	RetryIntervalSeconds   int     `yaml:"retry_interval_seconds"`
	VisibilityEpsilon      float64 `yaml:"visibility_epsilon"`
	MinWidth               float64 `yaml:"min_width"`

	RefreshInterval time.Duration `yaml:"-"`
	RetryInterval   time.Duration `yaml:"-"`
}

// StatusConfig tunes the status poll controller.
type StatusConfig struct {
	FastIntervalMs  int `yaml:"fast_interval_ms"`
	SlowIntervalMs  int `yaml:"slow_interval_ms"`
	InitialDelayMs  int `yaml:"initial_delay_ms"`
	RetryIntervalMs int `yaml:"retry_interval_ms"`

	FastInterval  time.Duration `yaml:"-"`
	SlowInterval  time.Duration `yaml:"-"`
	InitialDelay  time.Duration `yaml:"-"`
	RetryInterval time.Duration `yaml:"-"`
}

// CountdownConfig tunes the countdown widgets.
type CountdownConfig struct {
	TickMs        int `yaml:"tick_ms"`
	ReloadDelayMs int `yaml:"reload_delay_ms"`

	Tick        time.Duration `yaml:"-"`
	ReloadDelay time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills zero values with defaults and derives the duration fields.
func (cfg *Config) Normalize() error {
	if cfg.Controller.URL == "" {
		return fmt.Errorf("controller.url is required")
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Controller.TimeoutSeconds <= 0 {
		cfg.Controller.TimeoutSeconds = 10
	}
	if cfg.Controller.RateLimitPerSec <= 0 {
		cfg.Controller.RateLimitPerSec = 5
	}
	if cfg.Controller.LogCacheTTLSeconds <= 0 {
		cfg.Controller.LogCacheTTLSeconds = 3600
	}

	if cfg.Display.Timezone == "" {
		cfg.Display.Timezone = "Local"
	}
	switch cfg.Display.TimeFormat {
	case "24h", "12h":
	case "":
		cfg.Display.TimeFormat = "24h"
	default:
		log.Printf("display.time_format %q is not recognised; defaulting to 24h", cfg.Display.TimeFormat)
		cfg.Display.TimeFormat = "24h"
	}

	if cfg.Schedule.RefreshIntervalSeconds <= 0 {
		cfg.Schedule.RefreshIntervalSeconds = 60
	}
	if cfg.Schedule.RetryIntervalSeconds <= 0 {
		cfg.Schedule.RetryIntervalSeconds = 10
	}
	if cfg.Schedule.VisibilityEpsilon <= 0 {
		cfg.Schedule.VisibilityEpsilon = 0.05
	}
	if cfg.Schedule.MinWidth <= 0 {
		cfg.Schedule.MinWidth = 0.05
	}
	cfg.Schedule.RefreshInterval = time.Duration(cfg.Schedule.RefreshIntervalSeconds) * time.Second
	cfg.Schedule.RetryInterval = time.Duration(cfg.Schedule.RetryIntervalSeconds) * time.Second

	if cfg.Status.FastIntervalMs <= 0 {
		cfg.Status.FastIntervalMs = 1000
	}
	if cfg.Status.SlowIntervalMs <= 0 {
		cfg.Status.SlowIntervalMs = 30000
	}
	if cfg.Status.InitialDelayMs <= 0 {
		cfg.Status.InitialDelayMs = 1000
	}
	if cfg.Status.RetryIntervalMs <= 0 {
		cfg.Status.RetryIntervalMs = 5000
	}
	cfg.Status.FastInterval = time.Duration(cfg.Status.FastIntervalMs) * time.Millisecond
	cfg.Status.SlowInterval = time.Duration(cfg.Status.SlowIntervalMs) * time.Millisecond
	cfg.Status.InitialDelay = time.Duration(cfg.Status.InitialDelayMs) * time.Millisecond
	cfg.Status.RetryInterval = time.Duration(cfg.Status.RetryIntervalMs) * time.Millisecond

	if cfg.Countdown.TickMs <= 0 {
		cfg.Countdown.TickMs = 1000
	}
	if cfg.Countdown.ReloadDelayMs <= 0 {
		cfg.Countdown.ReloadDelayMs = 1000
	}
	cfg.Countdown.Tick = time.Duration(cfg.Countdown.TickMs) * time.Millisecond
	cfg.Countdown.ReloadDelay = time.Duration(cfg.Countdown.ReloadDelayMs) * time.Millisecond

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "irrigation.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return nil
}
