package config

import (
	"fmt"
	"time"

	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/validation"
)

// InjectorConfig configures plan building and the container.
//
//	tag_name: inject
//	cache_plans: true
//	metrics_enabled: false
//	logging:
//	  level: info
//	observability:
//	  enabled: true
//	  endpoint: localhost:4318
//	  sample_rate: 0.5
type InjectorConfig struct {
	Name           string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment    string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	TagName        string        `yaml:"tag_name" mapstructure:"tag_name" validate:"required,max=64"`
	CachePlans     *bool         `yaml:"cache_plans" mapstructure:"cache_plans"`
	MetricsEnabled bool          `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	Logging        logger.Config `yaml:"logging" mapstructure:"logging"`
	Observability  Observability `yaml:"observability" mapstructure:"observability"`
}

// Observability configures OTLP export of plan metrics and spans.
type Observability struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate *float64      `yaml:"sample_rate" mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (o *Observability) ApplyDefaults() {
	if o.Endpoint == "" {
		o.Endpoint = "localhost:4318"
	}
	if o.SampleRate == nil {
		rate := 1.0
		o.SampleRate = &rate
	}
	if o.Interval == 0 {
		o.Interval = 15 * time.Second
	}
}

// envKeys are the keys environment variables may override.
var envKeys = []string{
	"name", "environment", "tag_name", "cache_plans", "metrics_enabled",
	"logging.level", "logging.format", "logging.output", "logging.no_color",
	"observability.enabled", "observability.endpoint", "observability.insecure",
	"observability.sample_rate", "observability.interval",
}

// ApplyDefaults fills unset fields.
func (c *InjectorConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "injectkit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.TagName == "" {
		c.TagName = "inject"
	}
	if c.CachePlans == nil {
		enabled := true
		c.CachePlans = &enabled
	}
	c.Logging.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks field constraints and the logging section.
func (c *InjectorConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// PlanCacheEnabled reports whether plans should be cached (true when unset).
func (c *InjectorConfig) PlanCacheEnabled() bool {
	return c.CachePlans == nil || *c.CachePlans
}

// Load reads, defaults and validates an InjectorConfig.
func Load(name string, opts ...LoaderOption) (*InjectorConfig, error) {
	cfg := &InjectorConfig{}
	opts = append([]LoaderOption{WithEnvKeys(envKeys...)}, opts...)
	if err := LoadConfig(name, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
