package dbconfig

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds the Postgres connection settings for the score ledger.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

// Load reads DB_* environment variables, falling back to local-dev defaults.
func Load() Config {
	return Config{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     envIntOr("DB_PORT", 5432),
		User:     envOr("DB_USER", "postgres"),
		Password: envOr("DB_PASSWORD", "postgres"),
		Database: envOr("DB_NAME", "arena"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
		MaxConns: envIntOr("DB_MAX_CONNS", 10),
	}
}

// DSN returns a pgx pool connection URL. Credentials are URL-escaped so
// passwords with reserved characters survive the round trip.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Database,
	}

	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("pool_max_conns", strconv.Itoa(c.MaxConns))
	u.RawQuery = q.Encode()

	return u.String()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
