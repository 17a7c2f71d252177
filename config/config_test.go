package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GIN_MODE", "")
	t.Setenv("DATABASE_DSN", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.APIPrefix != "/api" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Seed.Posts != 6 {
		t.Errorf("seed.posts = %d, want 6", cfg.Seed.Posts)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GIN_MODE", "")
	t.Setenv("DATABASE_DSN", "")
	path := writeFile(t, "config.yaml", `
environment: production
server:
  addr: ":9090"
  gin_mode: release
  read_timeout: 3s
database:
  driver: mysql
  dsn: "user:pass@tcp(db:3306)/social"
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "production" || cfg.Server.Addr != ":9090" || cfg.Server.GinMode != "release" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server.ReadTimeout.Std() != 3*time.Second {
		t.Errorf("read_timeout = %v, want 3s", cfg.Server.ReadTimeout.Std())
	}
	// Unset keys keep their defaults.
	if cfg.Server.APIPrefix != "/api" || cfg.Server.WriteTimeout.Std() != 10*time.Second {
		t.Errorf("defaults lost: %+v", cfg.Server)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
}

func TestLoadJSONC(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GIN_MODE", "")
	t.Setenv("DATABASE_DSN", "")
	path := writeFile(t, "config.jsonc", `{
  // local postgres
  "database": {"driver": "postgres", "dsn": "postgres://localhost/social"},
  "client": {"timeout": "2s"},
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Client.Timeout.Std() != 2*time.Second {
		t.Errorf("client.timeout = %v", cfg.Client.Timeout.Std())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("DATABASE_DSN", "/tmp/other.db")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Server.GinMode != "release" || cfg.Database.DSN != "/tmp/other.db" {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"prefix", func(c *Config) { c.Server.APIPrefix = "api" }, "api_prefix"},
		{"gin mode", func(c *Config) { c.Server.GinMode = "loud" }, "gin_mode"},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("output = %q, want JSON record", out)
	}
}
