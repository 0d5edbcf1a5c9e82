// Package config loads server configuration from a YAML file with
// environment overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mapsync/server/internal/editor"
)

// Config is the full server configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Session  Session  `yaml:"session"`
	Auth     Auth     `yaml:"auth"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Logging  Logging  `yaml:"logging"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `yaml:"addr"`
}

// Session holds the per-room session loop settings.
type Session struct {
	TickInterval   time.Duration `yaml:"tickInterval"`
	IdleTicks      int           `yaml:"idleTicks"`
	PersistEvery   int           `yaml:"persistEvery"`
	SendQueueSize  int           `yaml:"sendQueueSize"`
	PendingLimit   int           `yaml:"pendingLimit"`
	PersistTimeout time.Duration `yaml:"persistTimeout"`
}

// Auth holds the join-token settings.
type Auth struct {
	Secret string `yaml:"secret"`
}

// Postgres holds the document store settings. An empty DSN selects the
// in-memory store.
type Postgres struct {
	DSN string `yaml:"dsn"`
}

// Redis holds the snapshot cache settings. An empty Addr disables the
// cache layer.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Logging holds the structured log router settings.
type Logging struct {
	Sinks           []string `yaml:"sinks"`
	BufferSize      int      `yaml:"bufferSize"`
	MinimumSeverity string   `yaml:"minimumSeverity"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Session: Session{
			TickInterval:   50 * time.Millisecond,
			IdleTicks:      200,
			PersistEvery:   600,
			SendQueueSize:  256,
			PendingLimit:   4096,
			PersistTimeout: 10 * time.Second,
		},
		Redis: Redis{TTL: time.Hour},
		Logging: Logging{
			Sinks:           []string{"console"},
			BufferSize:      1024,
			MinimumSeverity: "info",
		},
	}
}

// Load reads the YAML file at path, merged over the defaults, then
// applies environment overrides. An empty path loads defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg.Normalized(), nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MAPSYNC_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MAPSYNC_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("MAPSYNC_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("MAPSYNC_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// Normalized returns a copy with out-of-range values replaced by the
// defaults.
func (c Config) Normalized() Config {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Session.TickInterval <= 0 {
		c.Session.TickInterval = def.Session.TickInterval
	}
	if c.Session.IdleTicks <= 0 {
		c.Session.IdleTicks = def.Session.IdleTicks
	}
	if c.Session.PersistEvery <= 0 {
		c.Session.PersistEvery = def.Session.PersistEvery
	}
	if c.Session.SendQueueSize <= 0 {
		c.Session.SendQueueSize = def.Session.SendQueueSize
	}
	if c.Session.PendingLimit <= 0 {
		c.Session.PendingLimit = def.Session.PendingLimit
	}
	if c.Session.PersistTimeout <= 0 {
		c.Session.PersistTimeout = def.Session.PersistTimeout
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = def.Redis.TTL
	}
	if len(c.Logging.Sinks) == 0 {
		c.Logging.Sinks = def.Logging.Sinks
	}
	if c.Logging.BufferSize <= 0 {
		c.Logging.BufferSize = def.Logging.BufferSize
	}
	if c.Logging.MinimumSeverity == "" {
		c.Logging.MinimumSeverity = def.Logging.MinimumSeverity
	}
	return c
}

// SessionConfig converts the session settings for the editor loop.
func (c Config) SessionConfig() editor.Config {
	return editor.Config{
		TickInterval:   c.Session.TickInterval,
		IdleTicks:      c.Session.IdleTicks,
		PersistEvery:   c.Session.PersistEvery,
		SendQueueSize:  c.Session.SendQueueSize,
		PendingLimit:   c.Session.PendingLimit,
		PersistTimeout: c.Session.PersistTimeout,
	}
}
