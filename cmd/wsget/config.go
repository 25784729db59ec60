package main

import (
	"fmt"

	"github.com/kbukum/wskit/config"
	"github.com/kbukum/wskit/httpclient"
	"github.com/kbukum/wskit/observability"
)

const appName = "wsget"

// AppConfig is the file/env configuration of wsget. Flags override it.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	HTTP    httpclient.Config          `yaml:"http" mapstructure:"http"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills every section with its defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = appName
	}
	c.ServiceConfig.ApplyDefaults()
	c.HTTP.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = c.Tracing.Endpoint
	}
	c.Metrics.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

// loadConfig reads wsget.yaml / .env / WSGET_* variables. path may be empty.
func loadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	opts := []config.LoaderOption{config.WithEnvPrefix("WSGET")}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(appName, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
