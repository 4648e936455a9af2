// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultEndpoint = "http://localhost:5000"

type RuntimeConfig struct {
	Dev bool
}

type APIConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Key            string        `yaml:"key"`
	Timeout        time.Duration `yaml:"timeout"`         // per request, 0 means none
	HealthInterval time.Duration `yaml:"health_interval"` // background probe, 0 disables
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // file | memory | redis
	Path   string `yaml:"path"`   // file driver only
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // 0 keeps keys forever
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	File     string `yaml:"file"`     // "-" for stderr
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type UIConfig struct {
	StatusTTL time.Duration `yaml:"status_ttl"`
	Color     string        `yaml:"color"` // auto|always|never
	Locale    string        `yaml:"locale"`
}

type WatchConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	UI       UIConfig       `yaml:"ui"`
	Watch    WatchConfig    `yaml:"watch"`
	Admin    AdminConfig    `yaml:"admin"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (a missing file means "all defaults"),
// overlays RAG_* environment variables (a .env file is honoured when present)
// and fills defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RAG_API_ENDPOINT"); v != "" {
		cfg.API.Endpoint = v
	}
	if v := os.Getenv("RAG_API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("RAG_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		if cfg.Storage.Driver == "" {
			cfg.Storage.Driver = "redis"
		}
	}
	if v := os.Getenv("RAG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RAG_ADMIN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Admin.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	cfg.API.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.API.Endpoint), "/")
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = ".rag-chat.yaml"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "rag-chat.log"
	}
	if cfg.UI.StatusTTL <= 0 {
		cfg.UI.StatusTTL = 5 * time.Second
	}
	if cfg.UI.Color == "" {
		cfg.UI.Color = "auto"
	}
	if cfg.UI.Locale == "" {
		cfg.UI.Locale = "en"
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".txt", ".md", ".csv"}
	}
}

// Validate performs the minimal checks needed to start.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required when storage.driver is redis")
		}
	default:
		return fmt.Errorf("storage.driver must be file, memory or redis, got %q", c.Storage.Driver)
	}
	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("ui.color must be auto, always or never, got %q", c.UI.Color)
	}
	if k := c.Security.EncryptionKey; k != "" && len(k) != 16 && len(k) != 24 && len(k) != 32 {
		return fmt.Errorf("security.encryption_key must be 16, 24 or 32 bytes; got %d", len(k))
	}
	return nil
}
