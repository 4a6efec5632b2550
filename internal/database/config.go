package database

import (
	"fmt"
	"os"
)

// Config holds the connection settings for one MySQL endpoint.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
}

// DSN builds the go-sql-driver connection string. No database is selected;
// the caller picks one with Conn.Use.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true", c.User, c.Password, c.Host, c.Port)
}

// Redacted returns a printable form of the endpoint without the password.
func (c Config) Redacted() string {
	return fmt.Sprintf("%s@%s:%s", c.User, c.Host, c.Port)
}

// LoadConfigFromEnv reads an endpoint configuration from environment
// variables named <prefix>_HOST, <prefix>_PORT, <prefix>_USER and
// <prefix>_PASSWORD, falling back to localhost:3306 as root.
func LoadConfigFromEnv(prefix string) Config {
	cfg := Config{
		Host: os.Getenv(prefix + "_HOST"),
		Port: os.Getenv(prefix + "_PORT"),
		User: os.Getenv(prefix + "_USER"),
	}
	cfg.Password = os.Getenv(prefix + "_PASSWORD")

	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "3306"
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	return cfg
}
