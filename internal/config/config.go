package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionBolt   = "bolt"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Session struct {
		Backend  string `yaml:"backend"`
		BoltPath string `yaml:"bolt_path"`
		TTL      string `yaml:"ttl"`
	} `yaml:"session"`
	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		TokenTTL   string `yaml:"token_ttl"`
		CookieName string `yaml:"cookie_name"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies .env and environment overrides.
// A missing file is not an error; the service then runs on defaults and environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	// .env is optional; variables already in the environment win.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.Server.Port, "PORT")
	override(&c.Postgres.URL, "POSTGRES_URL")
	override(&c.Redis.Addr, "REDIS_ADDR")
	override(&c.Auth.JWTSecret, "JWT_SECRET")
	override(&c.Session.Backend, "SESSION_BACKEND")
	override(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if c.Session.Backend == "" {
		c.Session.Backend = SessionMemory
		if c.Redis.Addr != "" {
			c.Session.Backend = SessionRedis
		}
	}
	if c.Session.BoltPath == "" {
		c.Session.BoltPath = "data/attempts.db"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "quiz_session"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func override(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
