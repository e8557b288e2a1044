package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pageCraftNN/internal/transform"
)

const (
	// DefaultConfigPath is used when --config is not provided. It may be missing.
	DefaultConfigPath = "config.yml"

	defaultPort         = 8000
	defaultEnv          = "production"
	defaultMaxBodyBytes = 32 << 20
	defaultRateRPS      = 5
	defaultRateBurst    = 30
)

// AppConfig holds runtime startup configuration.
type AppConfig struct {
	Port           int             `yaml:"port"`
	Env            string          `yaml:"env"` // "development" | "production"
	LogLevel       string          `yaml:"log_level"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	MaxBodyBytes   int64           `yaml:"max_body_bytes"`
	Transform      TransformConfig `yaml:"transform"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Server         ServerConfig    `yaml:"server"`
	Metrics        MetricsConfig   `yaml:"metrics"`
	PprofSecret    string          `yaml:"pprof_secret"`
}

type TransformConfig struct {
	Color    string `yaml:"color"`
	MaxDepth int    `yaml:"max_depth"`
}

type RateLimitConfig struct {
	RPS             float64       `yaml:"rps"`
	Burst           int           `yaml:"burst"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxIdle         time.Duration `yaml:"max_idle"`

	// Key clients on the last X-Forwarded-For entry. Only set this behind a
	// proxy that appends it.
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`
}

type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MetricsConfig struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func Default() AppConfig {
	return AppConfig{
		Port:           defaultPort,
		Env:            defaultEnv,
		LogLevel:       "info",
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   defaultMaxBodyBytes,
		Transform: TransformConfig{
			Color:    transform.DefaultColor,
			MaxDepth: transform.DefaultMaxDepth,
		},
		RateLimit: RateLimitConfig{
			RPS:             defaultRateRPS,
			Burst:           defaultRateBurst,
			CleanupInterval: time.Minute,
			MaxIdle:         3 * time.Minute,
		},
		Server: ServerConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

// Load reads the YAML file at configPath, then applies environment
// overrides (a .env file is loaded when present). A missing file is only
// an error when a non-default path was asked for.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Default()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(&cfg, content); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func decodeYAML(cfg *AppConfig, content []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d, expected 1-65535", c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes %d, expected > 0", c.MaxBodyBytes)
	}
	if c.Transform.MaxDepth <= 0 {
		return fmt.Errorf("transform.max_depth %d, expected > 0", c.Transform.MaxDepth)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit rps %v burst %d, expected both > 0", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.RateLimit.CleanupInterval <= 0 || c.RateLimit.MaxIdle <= 0 {
		return fmt.Errorf("rate_limit cleanup_interval %s max_idle %s, expected both > 0", c.RateLimit.CleanupInterval, c.RateLimit.MaxIdle)
	}
	return nil
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.Transform.Color = strings.TrimSpace(cfg.Transform.Color)
	if cfg.Transform.Color == "" {
		cfg.Transform.Color = transform.DefaultColor
	}

	origins := cfg.AllowedOrigins[:0]
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg.AllowedOrigins = origins
}
