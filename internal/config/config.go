// Package config loads server configuration: built-in defaults, then an
// optional YAML file, then environment variables (optionally seeded from a
// .env file).
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

	"github.com/mmynk/groupsplit/internal/storage/sqlstore"
)

// Config is the top-level groupsplit.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DatabaseConfig selects the storage backend. Path is used by SQLite, URL by
// Postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url,omitempty"`
}

// EventsConfig enables change events. Publishing is off when AMQPURL is empty.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url,omitempty"`
	Exchange string `yaml:"exchange"`
}

// Default returns a Config with sensible defaults for a local SQLite server.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver: string(sqlstore.DriverSQLite),
			Path:   "./data/groupsplit.db",
		},
		Events: EventsConfig{
			Exchange: "groupsplit.events",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path
// is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv copies variables from .env files into the process environment.
// Missing files are ignored; variables already set are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.Server.ShutdownTimeout = d
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"LOG_LEVEL", &c.Log.Level},
		{"DB_DRIVER", &c.Database.Driver},
		{"DB_PATH", &c.Database.Path},
		{"DATABASE_URL", &c.Database.URL},
		{"AMQP_URL", &c.Events.AMQPURL},
		{"AMQP_EXCHANGE", &c.Events.Exchange},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}

	// A bare DATABASE_URL implies Postgres.
	if _, ok := lookup("DB_DRIVER"); !ok && c.Database.URL != "" && isPostgresURL(c.Database.URL) {
		c.Database.Driver = string(sqlstore.DriverPostgres)
	}
	return nil
}

func isPostgresURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	driver, err := sqlstore.ParseDriver(c.Database.Driver)
	switch {
	case err != nil:
		errs = append(errs, err)
	case driver == sqlstore.DriverSQLite && c.Database.Path == "":
		errs = append(errs, errors.New("database path required for sqlite"))
	case driver == sqlstore.DriverPostgres && c.Database.URL == "":
		errs = append(errs, errors.New("database url required for postgres"))
	}

	if c.Events.AMQPURL != "" && c.Events.Exchange == "" {
		errs = append(errs, errors.New("events exchange required when amqp_url is set"))
	}

	return errors.Join(errs...)
}

// DSN returns the driver and data source name for sqlstore.New.
func (c *Config) DSN() (sqlstore.Driver, string, error) {
	driver, err := sqlstore.ParseDriver(c.Database.Driver)
	if err != nil {
		return "", "", err
	}
	if driver == sqlstore.DriverPostgres {
		return driver, c.Database.URL, nil
	}
	return driver, c.Database.Path, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
