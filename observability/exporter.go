package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

const defaultCollector = "localhost:4318"

// ExportConfig is the collector and resource part shared by the tracer and
// meter settings.
type ExportConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	Environment    string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is an OTLP/HTTP host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

func (c *ExportConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = defaultCollector
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

func (c *ExportConfig) validate(section string) error {
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("%s.endpoint is required when %s is enabled", section, section)
	}
	return nil
}

func (c *ExportConfig) resource() (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.ServiceVersion),
		attribute.String("deployment.environment", c.Environment),
	))
}
