// Package config loads the server and console configuration.
//
// Configuration comes from a single optional file named by the --config
// flag or the SOCIAL_CONSOLE_CONFIG environment variable. Files ending in
// .json or .jsonc are read as JSON with comments; anything else is YAML.
// A handful of environment variables (PORT, GIN_MODE, DATABASE_DSN) are
// applied on top, and command-line flags win over both.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "SOCIAL_CONSOLE_CONFIG"

type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Server      ServerConfig   `yaml:"server" json:"server"`
	Database    DatabaseConfig `yaml:"database" json:"database"`
	Seed        SeedConfig     `yaml:"seed" json:"seed"`
	Log         LogConfig      `yaml:"log" json:"log"`
	Client      ClientConfig   `yaml:"client" json:"client"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	APIPrefix string `yaml:"api_prefix" json:"api_prefix"`
	// GinMode is debug, release or test.
	GinMode      string   `yaml:"gin_mode" json:"gin_mode"`
	Compress     bool     `yaml:"compress" json:"compress"`
	ReadTimeout  Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout" json:"write_timeout"`
}

type DatabaseConfig struct {
	// Driver is sqlite, mysql or postgres.
	Driver   string `yaml:"driver" json:"driver"`
	DSN      string `yaml:"dsn" json:"dsn"`
	PoolSize int    `yaml:"pool_size" json:"pool_size"`
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Posts   int  `yaml:"posts" json:"posts"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type ClientConfig struct {
	BaseURL string   `yaml:"base_url" json:"base_url"`
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// Duration reads "10s"-style strings from YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Addr:         ":8080",
			APIPrefix:    "/api",
			GinMode:      "debug",
			Compress:     true,
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(10 * time.Second),
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "social-console.db",
			PoolSize: 4,
		},
		Seed: SeedConfig{Posts: 6},
		Log:  LogConfig{Level: "info", Format: "text"},
		Client: ClientConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: Duration(10 * time.Second),
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// PathFromEnv returns the config path from the flag value or, when
// that is empty, SOCIAL_CONSOLE_CONFIG.
func PathFromEnv(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigPath)
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(data), cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if mode := getenv("GIN_MODE"); mode != "" {
		c.Server.GinMode = mode
	}
	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite, mysql or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Server.APIPrefix != "" && !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return fmt.Errorf("server.api_prefix must start with '/', got %q", c.Server.APIPrefix)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode must be debug, release or test, got %q", c.Server.GinMode)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Seed.Posts < 0 {
		return fmt.Errorf("seed.posts must not be negative")
	}
	return nil
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
