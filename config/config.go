package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServiceConfig holds the configuration loaded at process start. Request
// handling code never reads it directly; the loaded config is passed by
// reference into the app and its services.
var ServiceConfig *Config

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

type DatabaseConfig struct {
	// Type selects the GORM driver: "postgres" or "sqlite".
	Type string
	// URL is the postgres connection string (DATABASE_URL).
	URL    string
	Sqlite SqliteConfig
}

type SqliteConfig struct {
	Path string
}

type AuthConfig struct {
	// AdminKey is the process-wide secret compared against the
	// X-Admin-Key header on administrative routes.
	AdminKey string
}

type AnalyticsConfig struct {
	Sentry SentryConfig
}

type SentryConfig struct {
	Enabled          bool
	DSN              string
	EnableTracing    bool
	TracesSampleRate float64
	Environment      string
	Debug            bool
}

// LoadConfig reads configuration from the given YAML file (optional) and the
// environment, applies defaults and returns the typed config. The result is
// also stored in ServiceConfig.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.path", "gatekeeper.db")
	v.SetDefault("analytics.sentry.enabled", false)
	v.SetDefault("analytics.sentry.traces_sample_rate", 0.1)

	v.SetEnvPrefix("GATEKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy env names consumed as-is by deployments.
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("auth.admin_key", "ADMIN_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// a config file is optional when everything comes from env
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Log: LogConfig{
			Level:  ParseLogLevel(v.GetString("log.level")),
			Format: v.GetString("log.format"),
		},
		Database: DatabaseConfig{
			Type: v.GetString("database.type"),
			URL:  v.GetString("database.url"),
			Sqlite: SqliteConfig{
				Path: v.GetString("database.sqlite.path"),
			},
		},
		Auth: AuthConfig{
			AdminKey: v.GetString("auth.admin_key"),
		},
		Analytics: AnalyticsConfig{
			Sentry: SentryConfig{
				Enabled:          v.GetBool("analytics.sentry.enabled"),
				DSN:              v.GetString("analytics.sentry.dsn"),
				EnableTracing:    v.GetBool("analytics.sentry.enable_tracing"),
				TracesSampleRate: v.GetFloat64("analytics.sentry.traces_sample_rate"),
				Environment:      v.GetString("analytics.sentry.environment"),
				Debug:            v.GetBool("analytics.sentry.debug"),
			},
		},
	}

	if cfg.Database.Type == "postgres" && cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.type is postgres but no DATABASE_URL is set")
	}

	ServiceConfig = cfg
	return cfg, nil
}

// ParseLogLevel maps a level name to its slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
