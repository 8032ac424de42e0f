// Package manager resolves named certificate drivers from configuration,
// caches them, and lets callers register their own driver kinds.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/config"
	"github.com/certwatch-app/cw-certshow/internal/drivers/openssl"
	"github.com/certwatch-app/cw-certshow/internal/drivers/stream"
	"github.com/certwatch-app/cw-certshow/internal/httpfetch"
	"github.com/certwatch-app/cw-certshow/internal/ssl"
)

var (
	// ErrNotDefined is returned for a driver name missing from configuration
	ErrNotDefined = errors.New("is not defined")
	// ErrNotSupported is returned for a driver kind with no creator
	ErrNotSupported = errors.New("is not supported")
)

// Creator builds a driver for the named configuration entry
type Creator func(name string, cfg config.DriverConfig, m *Manager) (ssl.Driver, error)

// builtins maps the driver kinds shipped with the command to their creators
var builtins = map[string]Creator{
	config.DriverOpenSSL: newOpenSSL,
	config.DriverStream:  newStream,
}

// Manager resolves and caches drivers by name
type Manager struct {
	cfg           *config.Config
	logger        *zap.Logger
	creators      map[string]Creator
	drivers       map[string]ssl.Driver
	defaultDriver string
	mu            sync.Mutex
}

// New creates a new Manager
func New(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:           cfg,
		logger:        logger,
		creators:      make(map[string]Creator),
		drivers:       make(map[string]ssl.Driver),
		defaultDriver: cfg.Default,
	}
}

// Driver returns the named driver, creating it on first use.
// An empty name selects the default driver. Creators run without the
// manager lock held, so they may resolve other drivers.
func (m *Manager) Driver(name string) (ssl.Driver, error) {
	m.mu.Lock()
	if name == "" {
		name = m.defaultDriver
	}
	if d, ok := m.drivers[name]; ok {
		m.mu.Unlock()
		return d, nil
	}
	dc, create, err := m.creatorFor(name)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	d, err := create(name, dc, m)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.drivers[name]; ok {
		return existing, nil
	}
	m.drivers[name] = d

	m.logger.Debug("driver resolved",
		zap.String("name", name),
		zap.String("driver", dc.Driver),
	)

	return d, nil
}

// Show answers questions with the default driver
func (m *Manager) Show(ctx context.Context, questions []ssl.Question, opts ssl.Options) ([]ssl.Result, error) {
	d, err := m.Driver("")
	if err != nil {
		return nil, err
	}
	return d.Show(ctx, questions, opts)
}

// creatorFor looks up the configuration and creator for name. The caller
// holds m.mu.
func (m *Manager) creatorFor(name string) (config.DriverConfig, Creator, error) {
	dc, ok := m.cfg.Drivers[name]
	if !ok {
		return dc, nil, fmt.Errorf("ssl driver [%s] %w", name, ErrNotDefined)
	}

	if create, ok := m.creators[dc.Driver]; ok {
		return dc, create, nil
	}
	if create, ok := builtins[dc.Driver]; ok {
		return dc, create, nil
	}

	return dc, nil, fmt.Errorf("driver [%s] %w", dc.Driver, ErrNotSupported)
}

// Extend registers a creator for a driver kind. Custom creators take
// precedence over the built-in ones.
func (m *Manager) Extend(driver string, create Creator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creators[driver] = create
}

// Purge drops the cached driver so the next lookup rebuilds it.
// An empty name purges the default driver.
func (m *Manager) Purge(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		name = m.defaultDriver
	}
	delete(m.drivers, name)
}

// ForgetDrivers drops every cached driver
func (m *Manager) ForgetDrivers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers = make(map[string]ssl.Driver)
}

// DefaultDriver returns the name of the default driver
func (m *Manager) DefaultDriver() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultDriver
}

// SetDefaultDriver changes the default driver name
func (m *Manager) SetDefaultDriver(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultDriver = name
}

// Config returns the configuration drivers are created from
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Logger returns the logger handed to created drivers
func (m *Manager) Logger() *zap.Logger {
	return m.logger
}

func newOpenSSL(name string, dc config.DriverConfig, m *Manager) (ssl.Driver, error) {
	fetcher := httpfetch.New(httpfetch.Config{
		ConnectTimeout: dc.HTTP.ConnectTimeout,
		Timeout:        dc.HTTP.Timeout,
	}, m.logger)

	return openssl.New(name, fetcher, openssl.Config{
		Binary:      dc.Binary,
		Timeout:     dc.ProcessTimeout,
		Concurrency: m.cfg.Lookup.Concurrency,
	}, m.logger), nil
}

func newStream(name string, dc config.DriverConfig, m *Manager) (ssl.Driver, error) {
	return stream.New(name, stream.Config{
		Timeout:     dc.Timeout,
		Concurrency: m.cfg.Lookup.Concurrency,
	}, m.logger), nil
}
