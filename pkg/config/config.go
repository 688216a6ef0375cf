// Package config reads merchant-service settings from the process
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

type Config struct {
	ServiceName   string
	Env           string
	Port          string
	LogLevel      string
	MetricsPrefix string
	Database      DatabaseConfig
	Auth          AuthConfig
}

// DatabaseConfig describes the merchants PostgreSQL database and its pool
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
	// AutoMigrate applies pending schema migrations on startup
	AutoMigrate bool
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// AuthConfig signs and checks the bearer tokens guarding /merchants
type AuthConfig struct {
	SigningKey      string
	ExpirationHours int
}

// Load builds the configuration for serviceName. Typed settings that are set
// but unparsable fail the load instead of falling back to their default.
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var e env
	conf := &Config{
		ServiceName:   serviceName,
		Env:           e.str("APP_ENV", "development"),
		Port:          e.str("SERVER_PORT", "8080"),
		LogLevel:      e.str("LOG_LEVEL", "info"),
		MetricsPrefix: e.str("METRICS_PREFIX", serviceName),
		Database: DatabaseConfig{
			Host:            e.str("DB_HOST", "localhost"),
			Port:            e.str("DB_PORT", "5432"),
			User:            e.str("DB_USER", "postgres"),
			Password:        e.str("DB_PASSWORD", "postgres"),
			Name:            e.str("DB_NAME", serviceName),
			SSLMode:         e.str("DB_SSL_MODE", "disable"),
			MaxIdleConns:    e.integer("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    e.integer("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogLevel:        e.gormLevel("DB_LOG_LEVEL", logger.Warn),
			AutoMigrate:     e.boolean("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			SigningKey:      e.str("JWT_SIGNING_KEY", "merchant-dev-signing-key"),
			ExpirationHours: e.integer("JWT_EXPIRATION_HOURS", 24),
		},
	}

	if conf.Auth.ExpirationHours <= 0 {
		e.fail("JWT_EXPIRATION_HOURS", strconv.Itoa(conf.Auth.ExpirationHours), "must be positive")
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return conf, nil
}

// LogFields describes the loaded configuration without secrets
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Env),
		zap.String("port", c.Port),
		zap.String("db_host", c.Database.Host),
		zap.String("db_port", c.Database.Port),
		zap.String("db_user", c.Database.User),
		zap.String("db_name", c.Database.Name),
		zap.Bool("db_auto_migrate", c.Database.AutoMigrate),
	}
}

// env reads typed settings and collects every malformed value it meets.
// An empty typed setting counts as unset.
type env struct {
	errs []error
}

func (e *env) fail(key, value, reason string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q %s", key, value, reason))
}

func (e *env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func (e *env) raw(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func (e *env) integer(key string, def int) int {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, "is not an integer")
		return def
	}
	return n
}

func (e *env) boolean(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, "is not a boolean")
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, "is not a duration")
		return def
	}
	return d
}

var gormLevels = map[string]logger.LogLevel{
	"silent": logger.Silent,
	"error":  logger.Error,
	"warn":   logger.Warn,
	"info":   logger.Info,
}

func (e *env) gormLevel(key string, def logger.LogLevel) logger.LogLevel {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	level, known := gormLevels[v]
	if !known {
		e.fail(key, v, "is not one of silent, error, warn, info")
		return def
	}
	return level
}
