package dbconfig

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Config holds Postgres connection settings for the roster backend.
type Config struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// Default returns settings for a local development database.
func Default() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "seats",
		SSLMode:  "disable",
	}
}

// ApplyEnv overrides fields from DATABASE_URL and DB_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("DATABASE_URL", &c.URL)
	set("DB_HOST", &c.Host)
	set("DB_USER", &c.User)
	set("DB_PASSWORD", &c.Password)
	set("DB_NAME", &c.Database)
	set("DB_SSLMODE", &c.SSLMode)

	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}

// DSN returns the Postgres connection URL. An explicit URL wins over the discrete fields.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
