package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/wskit/logger"
)

// Environments accepted by ServiceConfig.Validate.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig is the part of a program's config that is the same for
// every wskit binary. Embed it squashed:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    HTTP httpclient.Config `yaml:"http" mapstructure:"http"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills the environment and derives logging settings from
// Name and Debug.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	if c.Logging.Level == "" && c.Debug {
		c.Logging.Level = "debug"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the name, the environment and the logging section.
func (c *ServiceConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("config.name is required")
	case !slices.Contains(Environments, c.Environment):
		return fmt.Errorf("config.environment must be one of %v (got: %q)", Environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
