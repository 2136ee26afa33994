package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIHost keeps the API on the loopback interface unless a host is configured.
const DefaultAPIHost = "127.0.0.1"

// Session backends
const (
	SessionBackendRedis  = "redis"
	SessionBackendFile   = "file"
	SessionBackendMemory = "memory"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Google     GoogleConfig     `yaml:"google"`
	Sync       SyncConfig       `yaml:"sync"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Email      EmailConfig      `yaml:"email"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
	// SchemaVersion bumps drop and recreate every table.
	SchemaVersion int `yaml:"schema_version"`
}

type AuthConfig struct {
	PasswordHash string `yaml:"password_hash"`
	BcryptCost   int    `yaml:"bcrypt_cost"`
}

type SessionConfig struct {
	Backend   string `yaml:"backend"`
	FilePath  string `yaml:"file_path"`
	Namespace string `yaml:"namespace"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Host       string       `yaml:"host"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

// SyncConfig tunes the worker that mirrors bookings to Google Sheets.
type SyncConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

type TelegramConfig struct {
	BotToken      string `yaml:"bot_token"`
	ManagerChatID int64  `yaml:"manager_chat_id"`
	Debug         bool   `yaml:"debug"`
}

type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Database.SchemaVersion < 1 {
		return errors.New("database schema_version must be positive")
	}

	switch c.Session.Backend {
	case SessionBackendRedis:
		if c.Redis.Address == "" {
			return errors.New("session backend redis requires redis.address")
		}
	case SessionBackendFile:
		if c.Session.FilePath == "" {
			return errors.New("session backend file requires session.file_path")
		}
	case SessionBackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	switch c.Auth.PasswordHash {
	case "bcrypt", "sha256":
	default:
		return fmt.Errorf("unknown auth.password_hash %q", c.Auth.PasswordHash)
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup enabled but storage_path not set")
	}

	return nil
}

// SheetsEnabled reports whether booking mirroring to Google Sheets is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Google.GoogleCredentialsFile != "" && c.Google.BookingSpreadSheetID != ""
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "traveler"
	}
	if c.Database.SchemaVersion == 0 {
		c.Database.SchemaVersion = 1
	}

	c.Auth.PasswordHash = strings.ToLower(strings.TrimSpace(c.Auth.PasswordHash))
	if c.Auth.PasswordHash == "" {
		c.Auth.PasswordHash = "bcrypt"
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if c.Session.Backend == "" {
		c.Session.Backend = SessionBackendFile
	}
	if c.Session.Backend == SessionBackendFile && c.Session.FilePath == "" {
		c.Session.FilePath = "data/session.yaml"
	}
	if c.Session.Namespace == "" {
		c.Session.Namespace = "default"
	}

	if c.API.HTTP.Host == "" {
		c.API.HTTP.Host = DefaultAPIHost
	}
	if c.API.GRPC.Host == "" {
		c.API.GRPC.Host = DefaultAPIHost
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Sync.MaxRetries == 0 {
		c.Sync.MaxRetries = 5
	}
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = 2 * time.Second
	}
	if c.Email.FromName == "" {
		c.Email.FromName = c.App.Name
	}
}
