// Package config loads the stock bot configuration: the reusable core
// sections plus database, health server and catalogue settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	coredatabase "github.com/m3rciful/stockbot/core/database"
)

// ServerConfig controls the health check HTTP server.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"SERVER_ENABLED"`
	Listen  string `yaml:"listen" envconfig:"SERVER_LISTEN"`
}

// CatalogConfig tunes how products are presented.
type CatalogConfig struct {
	PageSize int    `yaml:"page_size" envconfig:"CATALOG_PAGE_SIZE"`
	Currency string `yaml:"currency" envconfig:"CATALOG_CURRENCY"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Server   ServerConfig        `yaml:"server"`
	Catalog  CatalogConfig       `yaml:"catalog"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads .env (when present), the YAML file at path and environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{}
	cfg.Server.Enabled = true
	if err := coreconfig.Load(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	c.Server.Listen = strings.TrimSpace(c.Server.Listen)
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Enabled && c.Telegram.RunMode == coreconfig.RunModeWebhook &&
		c.Webhook.Port > 0 && strings.HasSuffix(c.Server.Listen, fmt.Sprintf(":%d", c.Webhook.Port)) {
		return fmt.Errorf("server.listen %q collides with webhook.port %d", c.Server.Listen, c.Webhook.Port)
	}

	if c.Catalog.PageSize < 0 || c.Catalog.PageSize > 20 {
		return fmt.Errorf("catalog.page_size must be between 1 and 20")
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = 5
	}
	c.Catalog.Currency = strings.TrimSpace(c.Catalog.Currency)
	if c.Catalog.Currency == "" {
		c.Catalog.Currency = "₹"
	}
	return nil
}
