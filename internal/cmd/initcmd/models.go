// Package initcmd provides the interactive init command wizard.
package initcmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-certshow/internal/config"
)

// WizardState holds all collected input during the wizard.
type WizardState struct {
	// Output configuration
	ConfigPath    string
	OverwriteFile bool

	// General configuration
	DefaultDriver string
	LogLevel      string
	Concurrency   string
	ServerListen  string

	// openssl driver configuration
	OpenSSLBinary  string
	ProcessTimeout string
	HTTPTimeout    string

	// stream driver configuration
	StreamTimeout string

	// Additional named drivers
	Drivers       []DriverInput
	CurrentDriver DriverInput
	AddDrivers    bool
	AddAnother    bool
}

// DriverInput represents user input for an additional named driver.
type DriverInput struct {
	Name    string
	Kind    string
	Timeout string // process timeout for openssl, socket timeout for stream
}

// NewWizardState creates a new WizardState with sensible defaults.
func NewWizardState() *WizardState {
	return &WizardState{
		ConfigPath:     "./certshow.yaml",
		DefaultDriver:  config.DefaultDriver,
		LogLevel:       config.DefaultLogLevel,
		Concurrency:    strconv.Itoa(config.DefaultConcurrency),
		ServerListen:   config.DefaultListen,
		OpenSSLBinary:  config.DefaultBinary,
		ProcessTimeout: config.DefaultProcessTimeout.String(),
		HTTPTimeout:    config.DefaultHTTPTimeout.String(),
		StreamTimeout:  config.DefaultTimeout.String(),
		Drivers:        make([]DriverInput, 0),
		CurrentDriver: DriverInput{
			Kind: config.DriverStream,
		},
	}
}

// ToConfig converts the wizard state to a config.Config struct.
func (s *WizardState) ToConfig() (*config.Config, error) {
	concurrency, err := strconv.Atoi(strings.TrimSpace(s.Concurrency))
	if err != nil {
		return nil, fmt.Errorf("invalid concurrency: %w", err)
	}

	processTimeout, err := time.ParseDuration(s.ProcessTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid process timeout: %w", err)
	}

	// An unparsable HTTP timeout falls back to the default
	httpTimeout, err := time.ParseDuration(s.HTTPTimeout)
	if err != nil {
		httpTimeout = config.DefaultHTTPTimeout
	}

	streamTimeout, err := time.ParseDuration(s.StreamTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid stream timeout: %w", err)
	}

	drivers := map[string]config.DriverConfig{
		config.DriverOpenSSL: {
			Driver:         config.DriverOpenSSL,
			Binary:         strings.TrimSpace(s.OpenSSLBinary),
			ProcessTimeout: processTimeout,
			HTTP: config.HTTPConfig{
				ConnectTimeout: httpTimeout,
				Timeout:        httpTimeout,
			},
		},
		config.DriverStream: {
			Driver:  config.DriverStream,
			Timeout: streamTimeout,
		},
	}

	// Convert additional drivers
	for _, d := range s.Drivers {
		dc, err := d.toDriverConfig(s)
		if err != nil {
			return nil, err
		}
		drivers[d.Name] = dc
	}

	cfg := &config.Config{
		Default:  s.DefaultDriver,
		LogLevel: s.LogLevel,
		Lookup: config.LookupConfig{
			Concurrency: concurrency,
		},
		Server: config.ServerConfig{
			Listen: s.ServerListen,
		},
		Drivers: drivers,
	}

	return cfg, nil
}

func (d DriverInput) toDriverConfig(s *WizardState) (config.DriverConfig, error) {
	timeout := time.Duration(0)
	if strings.TrimSpace(d.Timeout) != "" {
		t, err := time.ParseDuration(d.Timeout)
		if err != nil {
			return config.DriverConfig{}, fmt.Errorf("driver %s: invalid timeout: %w", d.Name, err)
		}
		timeout = t
	}

	dc := config.DriverConfig{Driver: d.Kind}
	switch d.Kind {
	case config.DriverOpenSSL:
		dc.Binary = strings.TrimSpace(s.OpenSSLBinary)
		dc.ProcessTimeout = timeout
	case config.DriverStream:
		dc.Timeout = timeout
	default:
		return config.DriverConfig{}, fmt.Errorf("driver %s: unknown kind %q", d.Name, d.Kind)
	}

	return dc.WithDefaults(), nil
}

// ResetCurrentDriver resets the current driver input for the next entry.
func (s *WizardState) ResetCurrentDriver() {
	s.CurrentDriver = DriverInput{
		Kind: config.DriverStream,
	}
	s.AddAnother = false
}

// SaveCurrentDriver saves the current driver to the list.
func (s *WizardState) SaveCurrentDriver() {
	if s.CurrentDriver.Name != "" {
		s.CurrentDriver.Name = strings.TrimSpace(s.CurrentDriver.Name)
		s.Drivers = append(s.Drivers, s.CurrentDriver)
	}
}

// DriverNames returns every driver name the wizard will write, built-in first
func (s *WizardState) DriverNames() []string {
	names := []string{config.DriverOpenSSL, config.DriverStream}
	for _, d := range s.Drivers {
		names = append(names, d.Name)
	}
	return names
}
