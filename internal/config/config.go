package config

import (
	"crypto/sha256"
	"encoding/base64"
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

const (
	configPathEnv     = "PASSARI_WEB_UI_CONFIG_PATH"
	defaultConfigPath = "/etc/passari-web-ui/config.yaml"

	// DefaultHeartbeatInterval applies to heartbeat sources without a configured interval.
	DefaultHeartbeatInterval = 24 * time.Hour
)

// Config aggregates runtime configuration for the web UI.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    LoggerConfig    `yaml:"logger"`
	Auth      AuthConfig      `yaml:"auth"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

// AppConfig controls server level behavior. MuseumPlusURL is the base URL
// of the MuseumPlus web UI; objects are linked as {MuseumPlusURL}/Object/{id}.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	MuseumPlusURL         string `yaml:"museumplus_ui_url"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
	// Encoding is "json" (default) or "console".
	Encoding string `yaml:"encoding"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	SessionSecret     string `yaml:"session_secret"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	BcryptCost        int    `yaml:"bcrypt_cost"`
	CookieSecure      bool   `yaml:"cookie_secure"`
	Registerable      bool   `yaml:"registerable"`
	RequiredRole      string `yaml:"required_role"`
	CSRFEnabled       bool   `yaml:"csrf_enabled"`
}

// WorkflowConfig points to storage shared with the preservation workflow.
type WorkflowConfig struct {
	PackageDir string `yaml:"package_dir"`
}

// HeartbeatConfig maps heartbeat source names to expected intervals in seconds.
type HeartbeatConfig struct {
	IntervalSeconds map[string]int `yaml:"interval_seconds"`
}

// Interval returns the expected interval for a heartbeat source.
func (h HeartbeatConfig) Interval(source string) time.Duration {
	if secs, ok := h.IntervalSeconds[source]; ok && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return DefaultHeartbeatInterval
}

// heartbeatSources mirrors domain.HeartbeatSources; config cannot import domain.
var heartbeatSources = []string{
	"sync_processed_sips",
	"sync_objects",
	"sync_attachments",
	"sync_hashes",
}

// Default returns configuration with built-in defaults applied.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:                  "passari-web-ui",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "8080",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  false,
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "json",
		},
		Auth: AuthConfig{
			SessionSecret:     "dev-secret",
			SessionTTLMinutes: 12 * 60,
			BcryptCost:        12,
			CSRFEnabled:       true,
		},
		Workflow: WorkflowConfig{
			PackageDir: "/var/lib/passari/packages",
		},
		Heartbeat: HeartbeatConfig{
			// Expected intervals plus a grace period for small delays.
			IntervalSeconds: map[string]int{
				"sync_processed_sips": 4500,
				"sync_objects":        176400,
				"sync_attachments":    176400,
				"sync_hashes":         90000,
			},
		},
	}
}

// Load reads the optional YAML config file, then applies environment
// variables on top of it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := loadFile(cfg); err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnv("APP_PORT", cfg.App.Port)
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.RequestTimeoutSeconds = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds)
	cfg.App.MuseumPlusURL = getEnv("MUSEUMPLUS_UI_URL", cfg.App.MuseumPlusURL)

	cfg.Postgres.DSN = getEnv("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxConns = int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns)))
	cfg.Postgres.MinConns = int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns)))
	cfg.Postgres.RunMigrations = getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations)
	cfg.Postgres.ConnMaxIdleSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec)))
	cfg.Postgres.ConnMaxLifeSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec)))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = redisDB

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Encoding = getEnv("LOG_ENCODING", cfg.Logger.Encoding)

	cfg.Auth.SessionSecret = getEnv("AUTH_SESSION_SECRET", cfg.Auth.SessionSecret)
	cfg.Auth.SessionTTLMinutes = getEnvAsInt("AUTH_SESSION_TTL_MINUTES", cfg.Auth.SessionTTLMinutes)
	cfg.Auth.BcryptCost = getEnvAsInt("AUTH_BCRYPT_COST", cfg.Auth.BcryptCost)
	cfg.Auth.CookieSecure = getEnvAsBool("AUTH_COOKIE_SECURE", cfg.Auth.CookieSecure)
	cfg.Auth.Registerable = getEnvAsBool("SECURITY_REGISTERABLE", cfg.Auth.Registerable)
	cfg.Auth.RequiredRole = getEnv("SECURITY_REQUIRED_ROLE", cfg.Auth.RequiredRole)
	cfg.Auth.CSRFEnabled = getEnvAsBool("CSRF_ENABLED", cfg.Auth.CSRFEnabled)

	cfg.Workflow.PackageDir = getEnv("PACKAGE_DIR", cfg.Workflow.PackageDir)

	if cfg.Heartbeat.IntervalSeconds == nil {
		cfg.Heartbeat.IntervalSeconds = map[string]int{}
	}
	for _, source := range heartbeatSources {
		key := "HEARTBEAT_INTERVAL_" + strings.ToUpper(source)
		if secs := getEnvAsInt(key, 0); secs > 0 {
			cfg.Heartbeat.IntervalSeconds[source] = secs
		}
	}

	return cfg, nil
}

func loadFile(cfg *Config) error {
	path := os.Getenv(configPathEnv)
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CookieEncryptionKey derives the AES-256 key for encrypted cookies from the
// session secret, base64 encoded as fiber's encryptcookie expects it.
func (a AuthConfig) CookieEncryptionKey() string {
	sum := sha256.Sum256([]byte("cookie-encryption:" + a.SessionSecret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// SessionTTL returns the session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
