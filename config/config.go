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
	Database   DatabaseConfig   `yaml:"database"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Auth       AuthConfig       `yaml:"auth"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RealtimeConfig controls WebSocket delivery.
type RealtimeConfig struct {
	// Target is the delivery target policy: per_user or broadcast.
	Target              string        `yaml:"target"`
	SendBuffer          int           `yaml:"send_buffer"`
	WriteTimeoutSeconds int           `yaml:"write_timeout_seconds"`
	PongWaitSeconds     int           `yaml:"pong_wait_seconds"`
	WriteTimeout        time.Duration `yaml:"-"`
	PongWait            time.Duration `yaml:"-"`
	// Relay is local for a single instance or redis to fan out across instances.
	Relay        string `yaml:"relay"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisDB      int    `yaml:"redis_db"`
	RedisChannel string `yaml:"redis_channel"`
}

// AuthConfig controls how credentials are issued and resolved.
type AuthConfig struct {
	Mode            string        `yaml:"mode"` // token or jwt
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTLHours   int           `yaml:"token_ttl_hours"` // 0 issues tokens without expiry
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	TokenTTL        time.Duration `yaml:"-"`
	CacheTTL        time.Duration `yaml:"-"`
}

// ScannerConfig holds the overdue scanner configuration.
type ScannerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	Timezone        string        `yaml:"timezone"`
	// DefaultUserID receives overdue notifications for unassigned tasks.
	DefaultUserID int64 `yaml:"default_user_id"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the web push worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path. ${VAR} references in
// the file are expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse([]byte(os.ExpandEnv(string(raw))))
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds < 0 {
		cfg.Server.CacheTTLSeconds = 0
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "teamtasks.db"
	}

	if cfg.Realtime.Target == "" {
		cfg.Realtime.Target = "per_user"
	}
	if cfg.Realtime.SendBuffer <= 0 {
		cfg.Realtime.SendBuffer = 16
	}
	if cfg.Realtime.WriteTimeoutSeconds <= 0 {
		cfg.Realtime.WriteTimeoutSeconds = 10
	}
	cfg.Realtime.WriteTimeout = time.Duration(cfg.Realtime.WriteTimeoutSeconds) * time.Second
	if cfg.Realtime.PongWaitSeconds <= 0 {
		cfg.Realtime.PongWaitSeconds = 60
	}
	cfg.Realtime.PongWait = time.Duration(cfg.Realtime.PongWaitSeconds) * time.Second
	if cfg.Realtime.Relay == "" {
		cfg.Realtime.Relay = "local"
	}
	if cfg.Realtime.RedisAddr == "" {
		cfg.Realtime.RedisAddr = "localhost:6379"
	}
	if cfg.Realtime.RedisChannel == "" {
		cfg.Realtime.RedisChannel = "teamtasks:notifications"
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "token"
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	if cfg.Auth.CacheTTLSeconds < 0 {
		cfg.Auth.CacheTTLSeconds = 0
	}
	cfg.Auth.CacheTTL = time.Duration(cfg.Auth.CacheTTLSeconds) * time.Second

	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 60
	}
	cfg.Scanner.Interval = time.Duration(cfg.Scanner.IntervalSeconds) * time.Second
	if cfg.Scanner.Timezone == "" {
		cfg.Scanner.Timezone = "UTC"
	}
	if cfg.Scanner.DefaultUserID <= 0 {
		cfg.Scanner.DefaultUserID = 1
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

func (cfg *Config) validate() error {
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", cfg.Database.Driver)
	}
	switch cfg.Realtime.Target {
	case "per_user", "broadcast":
	default:
		return fmt.Errorf("realtime.target must be per_user or broadcast, got %q", cfg.Realtime.Target)
	}
	switch cfg.Realtime.Relay {
	case "local", "redis":
	default:
		return fmt.Errorf("realtime.relay must be local or redis, got %q", cfg.Realtime.Relay)
	}
	switch cfg.Auth.Mode {
	case "token":
	case "jwt":
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when auth.mode is jwt")
		}
	default:
		return fmt.Errorf("auth.mode must be token or jwt, got %q", cfg.Auth.Mode)
	}
	if _, err := time.LoadLocation(cfg.Scanner.Timezone); err != nil {
		return fmt.Errorf("scanner.timezone %q: %w", cfg.Scanner.Timezone, err)
	}
	if cfg.Push.Enabled && (cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "") {
		return fmt.Errorf("push.vapid_public_key and push.vapid_private_key are required when push is enabled")
	}
	return nil
}
