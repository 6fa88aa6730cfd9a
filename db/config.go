package db

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Config holds the connection settings for the SQL Server instance the
// tools read from. Values come from the environment (SQLMCP_DB_*) or the
// config file the CLI loads.
type Config struct {
	Server   string
	Port     int
	Database string
	User     string
	Password string
	Encrypt  string
}

// LoadConfig reads connection settings via viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SQLMCP")
	v.AutomaticEnv()

	v.SetDefault("DB_PORT", 1433)
	v.SetDefault("DB_ENCRYPT", "true")

	cfg := &Config{
		Server:   v.GetString("DB_SERVER"),
		Port:     v.GetInt("DB_PORT"),
		Database: v.GetString("DB_DATABASE"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		Encrypt:  v.GetString("DB_ENCRYPT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server == "" {
		return errors.New("db config: server is required")
	}
	if c.Database == "" {
		return errors.New("db config: database is required")
	}
	if c.User == "" {
		return errors.New("db config: user is required")
	}
	return nil
}

// DSN renders the config as a sqlserver connection URL.
func (c *Config) DSN() string {
	q := url.Values{}
	q.Set("database", c.Database)
	q.Set("encrypt", c.Encrypt)

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Server, c.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}
