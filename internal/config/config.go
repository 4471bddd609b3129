// Package config provides configuration management for the audit engine.
// Values come from an optional YAML file, a .env file, and environment
// variables, with production-safe defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rivalworks/rivalaudit/internal/crawler"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/logger"
)

// Config represents the application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	UserAgent   string `mapstructure:"user_agent"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	Encoding    string `mapstructure:"encoding"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL settings. An empty host means no
// database is configured and the in-memory store is used.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// AuditConfig holds crawl budgets and lifecycle windows.
type AuditConfig struct {
	MaxPages      int           `mapstructure:"max_pages"`
	MaxDuration   time.Duration `mapstructure:"max_duration"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	Workers       int           `mapstructure:"workers"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Configured reports whether a database host was provided.
func (d DatabaseConfig) Configured() bool {
	return d.Host != ""
}

// Validate checks application settings.
func (a AppConfig) Validate() error {
	if a.UserAgent == "" {
		return errors.New("app.user_agent must not be empty")
	}
	return nil
}

// Validate checks logging settings.
func (l LoggerConfig) Validate() error {
	switch logger.Level(l.Level) {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel:
		return nil
	}
	return fmt.Errorf("logger.level %q is not a valid level", l.Level)
}

// Validate checks server settings.
func (s ServerConfig) Validate() error {
	if s.Address == "" {
		return errors.New("server.address must not be empty")
	}
	return nil
}

// Validate checks crawl and lifecycle settings.
func (a AuditConfig) Validate() error {
	if a.MaxPages <= 0 {
		return errors.New("audit.max_pages must be positive")
	}
	if a.MaxDuration <= 0 {
		return errors.New("audit.max_duration must be positive")
	}
	if a.TTL <= 0 {
		return errors.New("audit.ttl must be positive")
	}
	return nil
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Audit.Validate()
}

// setDefaults registers production-safe defaults for every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.user_agent", "RivalAuditBot/1.0")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "rivalaudit")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("audit.max_pages", crawler.DefaultMaxPages)
	v.SetDefault("audit.max_duration", crawler.DefaultMaxDuration)
	v.SetDefault("audit.fetch_timeout", crawler.DefaultFetchTimeout)
	v.SetDefault("audit.workers", crawler.DefaultWorkers)
	v.SetDefault("audit.respect_robots", true)
	v.SetDefault("audit.ttl", domain.DefaultTTL)
	v.SetDefault("audit.sweep_interval", lifecycle.DefaultSweepInterval)
}

// Load loads configuration from the optional config file at path, the
// local .env file, and RIVALAUDIT_-prefixed environment variables.
func Load(path string) (*Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RIVALAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
