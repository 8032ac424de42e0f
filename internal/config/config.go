// Package config handles configuration loading and validation for cw-certshow.
package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/certwatch-app/cw-certshow/internal/logging"
)

// Built-in driver kinds
const (
	DriverOpenSSL = "openssl"
	DriverStream  = "stream"
)

// Default values
const (
	DefaultDriver         = DriverOpenSSL
	DefaultLogLevel       = "info"
	DefaultConcurrency    = 1
	MaxConcurrency        = 50
	DefaultBinary         = "openssl"
	DefaultTimeout        = 10 * time.Second
	DefaultProcessTimeout = 10 * time.Second
	DefaultHTTPTimeout    = 60 * time.Second
	DefaultListen         = "127.0.0.1:9403"
)

// Config represents the complete configuration
// Fields are ordered for optimal memory alignment
type Config struct {
	Drivers  map[string]DriverConfig `mapstructure:"drivers"`
	Default  string                  `mapstructure:"default"`
	LogLevel string                  `mapstructure:"log_level"`
	Server   ServerConfig            `mapstructure:"server"`
	Lookup   LookupConfig            `mapstructure:"lookup"`
}

// DriverConfig configures one named driver. Driver selects the
// implementation; the remaining fields apply to the kinds that use them.
// Fields are ordered for optimal memory alignment
type DriverConfig struct {
	Driver         string        `mapstructure:"driver"`
	Binary         string        `mapstructure:"binary"`
	HTTP           HTTPConfig    `mapstructure:"http"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
}

// HTTPConfig contains the settings used to download caIssuers certificates
type HTTPConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LookupConfig contains batch lookup settings
type LookupConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ServerConfig contains settings for the serve command
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// Load reads configuration from viper
func Load(v *viper.Viper) (*Config, error) {
	// Set defaults
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply per-kind defaults to drivers that leave settings out
	for name, d := range cfg.Drivers {
		cfg.Drivers[name] = d.WithDefaults()
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("default", DefaultDriver)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("lookup.concurrency", DefaultConcurrency)
	v.SetDefault("server.listen", DefaultListen)

	// Built-in drivers
	v.SetDefault("drivers.openssl.driver", DriverOpenSSL)
	v.SetDefault("drivers.openssl.binary", DefaultBinary)
	v.SetDefault("drivers.openssl.process_timeout", DefaultProcessTimeout.String())
	v.SetDefault("drivers.openssl.http.connect_timeout", DefaultHTTPTimeout.String())
	v.SetDefault("drivers.openssl.http.timeout", DefaultHTTPTimeout.String())
	v.SetDefault("drivers.stream.driver", DriverStream)
	v.SetDefault("drivers.stream.timeout", DefaultTimeout.String())
}

// WithDefaults fills in the settings of its driver kind that are left zero
func (d DriverConfig) WithDefaults() DriverConfig {
	switch d.Driver {
	case DriverOpenSSL:
		if d.Binary == "" {
			d.Binary = DefaultBinary
		}
		if d.ProcessTimeout == 0 {
			d.ProcessTimeout = DefaultProcessTimeout
		}
		if d.HTTP.ConnectTimeout == 0 {
			d.HTTP.ConnectTimeout = DefaultHTTPTimeout
		}
		if d.HTTP.Timeout == 0 {
			d.HTTP.Timeout = DefaultHTTPTimeout
		}
	case DriverStream:
		if d.Timeout == 0 {
			d.Timeout = DefaultTimeout
		}
	}
	return d
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !slices.Contains(logging.ValidLevels, c.LogLevel) {
		return fmt.Errorf("log_level must be one of: %s", strings.Join(logging.ValidLevels, ", "))
	}

	if c.Lookup.Concurrency < 1 || c.Lookup.Concurrency > MaxConcurrency {
		return fmt.Errorf("lookup: concurrency must be between 1 and %d", MaxConcurrency)
	}

	if c.Server.Listen == "" {
		return fmt.Errorf("server: listen is required")
	}

	if err := c.validateDrivers(); err != nil {
		return fmt.Errorf("drivers: %w", err)
	}

	return nil
}

func (c *Config) validateDrivers() error {
	if len(c.Drivers) == 0 {
		return fmt.Errorf("at least one driver is required")
	}

	if c.Default == "" {
		return fmt.Errorf("default driver is required")
	}
	if _, ok := c.Drivers[c.Default]; !ok {
		return fmt.Errorf("default driver [%s] is not defined", c.Default)
	}

	for _, name := range c.DriverNames() {
		d := c.Drivers[name]
		if d.Driver == "" {
			return fmt.Errorf("[%s]: driver is required", name)
		}
		if d.Timeout < 0 || d.ProcessTimeout < 0 {
			return fmt.Errorf("[%s]: timeouts must not be negative", name)
		}
		if d.HTTP.ConnectTimeout < 0 || d.HTTP.Timeout < 0 {
			return fmt.Errorf("[%s]: http timeouts must not be negative", name)
		}
		if d.Driver == DriverOpenSSL && strings.TrimSpace(d.Binary) == "" {
			return fmt.Errorf("[%s]: binary is required", name)
		}
	}

	return nil
}

// DriverNames returns the configured driver names in sorted order
func (c *Config) DriverNames() []string {
	names := make([]string, 0, len(c.Drivers))
	for name := range c.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
