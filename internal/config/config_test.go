package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TRAVELER_DB_PATH", "test.db")

	yamlContent := `
database:
  path: "${TRAVELER_DB_PATH}"
session:
  backend: memory
sync:
  initial_delay: 3s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Session.Backend != SessionBackendMemory {
		t.Errorf("expected memory session backend, got %s", cfg.Session.Backend)
	}
	if cfg.Sync.InitialDelay != 3*time.Second {
		t.Errorf("expected initial delay 3s, got %s", cfg.Sync.InitialDelay)
	}
	if cfg.Auth.PasswordHash != "bcrypt" {
		t.Errorf("expected bcrypt default, got %s", cfg.Auth.PasswordHash)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadConfig_ValidationError(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("app:\n  name: x\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatalf("expected validation error without database path")
	}
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Path: "path", SchemaVersion: 1},
			Session:  SessionConfig{Backend: SessionBackendMemory},
			Auth:     AuthConfig{PasswordHash: "bcrypt"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "zero schema version", mutate: func(c *Config) { c.Database.SchemaVersion = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Session.Backend = "etcd" }, wantErr: true},
		{name: "redis backend without address", mutate: func(c *Config) { c.Session.Backend = SessionBackendRedis }, wantErr: true},
		{
			name: "redis backend with address",
			mutate: func(c *Config) {
				c.Session.Backend = SessionBackendRedis
				c.Redis.Address = "localhost:6379"
			},
		},
		{name: "file backend without path", mutate: func(c *Config) { c.Session.Backend = SessionBackendFile }, wantErr: true},
		{name: "unknown hash", mutate: func(c *Config) { c.Auth.PasswordHash = "md5" }, wantErr: true},
		{name: "legacy hash", mutate: func(c *Config) { c.Auth.PasswordHash = "sha256" }},
		{name: "backup without path", mutate: func(c *Config) { c.Backup.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{API: APIConfig{Enabled: true}, Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()

	if cfg.Database.SchemaVersion != 1 {
		t.Errorf("expected schema version 1, got %d", cfg.Database.SchemaVersion)
	}
	if cfg.Session.Backend != SessionBackendFile || cfg.Session.FilePath == "" {
		t.Errorf("expected file session backend with default path, got %q %q", cfg.Session.Backend, cfg.Session.FilePath)
	}
	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if !cfg.API.HTTP.Enabled || cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected http enabled on 8080")
	}
	if cfg.Monitoring.PrometheusPort != 9090 {
		t.Errorf("expected prometheus port 9090, got %d", cfg.Monitoring.PrometheusPort)
	}
	if cfg.Sync.MaxRetries != 5 {
		t.Errorf("expected 5 sync retries, got %d", cfg.Sync.MaxRetries)
	}
	if cfg.API.HTTP.Host != DefaultAPIHost || cfg.API.GRPC.Host != DefaultAPIHost {
		t.Errorf("expected loopback hosts, got %q and %q", cfg.API.HTTP.Host, cfg.API.GRPC.Host)
	}
	if cfg.Email.FromName != "traveler" {
		t.Errorf("expected from name traveler, got %s", cfg.Email.FromName)
	}
}

func TestSheetsEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.SheetsEnabled() {
		t.Fatalf("expected sheets disabled without credentials")
	}
	cfg.Google = GoogleConfig{GoogleCredentialsFile: "creds.json", BookingSpreadSheetID: "sheet"}
	if !cfg.SheetsEnabled() {
		t.Fatalf("expected sheets enabled")
	}
}

func TestShippedConfig(t *testing.T) {
	for _, key := range []string{"APP_ENV", "REDIS_ADDRESS", "REDIS_PASSWORD", "GOOGLE_CREDENTIALS_FILE",
		"BOOKINGS_SPREADSHEET_ID", "TELEGRAM_BOT_TOKEN", "TELEGRAM_MANAGER_CHAT_ID", "SENDGRID_API_KEY", "EMAIL_FROM_ADDRESS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("failed to load shipped config: %v", err)
	}

	schedule, err := time.ParseDuration(cfg.Backup.Schedule)
	if err != nil || schedule != 24*time.Hour {
		t.Errorf("expected backup schedule 24h, got %q (%v)", cfg.Backup.Schedule, err)
	}
	if cfg.API.HTTP.Host != "127.0.0.1" || cfg.API.GRPC.Host != "127.0.0.1" {
		t.Errorf("expected API bound to loopback, got %q and %q", cfg.API.HTTP.Host, cfg.API.GRPC.Host)
	}
}
