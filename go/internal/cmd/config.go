package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mcdev12/seatcheck/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	Port       int         `yaml:"port"`
	TotalSeats int         `yaml:"total_seats"`
	StaticDir  string      `yaml:"static_dir"`
	LogLevel   string      `yaml:"log_level"`
	Store      StoreConfig `yaml:"store"`
	NATS       NATSConfig  `yaml:"nats"`
}

type StoreConfig struct {
	Backend    string          `yaml:"backend"`
	File       string          `yaml:"file"`
	SQLitePath string          `yaml:"sqlite_path"`
	Redis      RedisConfig     `yaml:"redis"`
	Postgres   dbconfig.Config `yaml:"postgres"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// NATSConfig controls the optional JetStream relay. An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

func defaultConfig() *Config {
	return &Config{
		Port:       3000,
		TotalSeats: 40,
		StaticDir:  "public",
		LogLevel:   "info",
		Store: StoreConfig{
			Backend:    BackendFile,
			File:       "seats.json",
			SQLitePath: "seats.db",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "seats:roster",
			},
			Postgres: dbconfig.Default(),
		},
		NATS: NATSConfig{
			Subject: "seats.events",
		},
	}
}

// loadConfig layers defaults, the YAML file, environment and flags, in that order
func loadConfig(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := defaultConfig()

	fs := pflag.NewFlagSet("seatcheck", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	port := fs.Int("port", cfg.Port, "HTTP listen port")
	seats := fs.Int("seats", cfg.TotalSeats, "number of seats in the roster")
	backend := fs.String("store", cfg.Store.Backend, "store backend: file, sqlite, postgres, redis or memory")
	dataFile := fs.String("data", cfg.Store.File, "roster file for the file backend")
	sqlitePath := fs.String("sqlite", cfg.Store.SQLitePath, "database path for the sqlite backend")
	natsURL := fs.String("nats", cfg.NATS.URL, "NATS server URL for the event relay (empty disables)")
	staticDir := fs.String("static", cfg.StaticDir, "directory holding the front-end")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := *configPath
	if path == "" {
		path, _ = lookup("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("seats") {
		cfg.TotalSeats = *seats
	}
	if fs.Changed("store") {
		cfg.Store.Backend = *backend
	}
	if fs.Changed("data") {
		cfg.Store.File = *dataFile
	}
	if fs.Changed("sqlite") {
		cfg.Store.SQLitePath = *sqlitePath
	}
	if fs.Changed("nats") {
		cfg.NATS.URL = *natsURL
	}
	if fs.Changed("static") {
		cfg.StaticDir = *staticDir
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	str("STATIC_DIR", &c.StaticDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("STORE_BACKEND", &c.Store.Backend)
	str("SEATS_FILE", &c.Store.File)
	str("SQLITE_PATH", &c.Store.SQLitePath)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	str("REDIS_KEY", &c.Store.Redis.Key)
	str("NATS_URL", &c.NATS.URL)
	str("NATS_SUBJECT", &c.NATS.Subject)

	if err := errors.Join(
		num("PORT", &c.Port),
		num("TOTAL_SEATS", &c.TotalSeats),
		num("REDIS_DB", &c.Store.Redis.DB),
	); err != nil {
		return err
	}
	return c.Store.Postgres.ApplyEnv(lookup)
}

func (c *Config) validate() error {
	if c.TotalSeats < 1 {
		return fmt.Errorf("total seats must be at least 1, got %d", c.TotalSeats)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Store.Backend {
	case BackendFile, BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}
