package config

import (
	"fmt"
	"net/url"
)

// DatabaseConfig points at the optional Postgres build journal.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"VAULTFS_DB_ENABLED"`
	Host     string `yaml:"host" toml:"host" json:"host" env:"VAULTFS_DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" toml:"port" json:"port" env:"VAULTFS_DB_PORT" env-default:"5432"`
	User     string `yaml:"user" toml:"user" json:"user" env:"VAULTFS_DB_USER" env-default:"postgres"`
	Password string `yaml:"password" toml:"password" json:"password" env:"VAULTFS_DB_PASSWORD"`
	Name     string `yaml:"name" toml:"name" json:"name" env:"VAULTFS_DB_NAME" env-default:"vaultfs"`
	SSLMode  string `yaml:"sslmode" toml:"sslmode" json:"sslmode" env:"VAULTFS_DB_SSLMODE" env-default:"disable"`
	Schema   string `yaml:"schema" toml:"schema" json:"schema" env:"VAULTFS_DB_SCHEMA" env-default:"vaultfs"`
}

func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}
