package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Default != "openssl" {
		t.Errorf("Default = %v, want openssl", cfg.Default)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.Lookup.Concurrency != 1 {
		t.Errorf("Lookup.Concurrency = %v, want 1", cfg.Lookup.Concurrency)
	}
	if cfg.Server.Listen != "127.0.0.1:9403" {
		t.Errorf("Server.Listen = %v, want 127.0.0.1:9403", cfg.Server.Listen)
	}

	openssl, ok := cfg.Drivers["openssl"]
	if !ok {
		t.Fatal("Drivers[openssl] missing")
	}
	if openssl.Driver != "openssl" {
		t.Errorf("openssl.Driver = %v, want openssl", openssl.Driver)
	}
	if openssl.Binary != "openssl" {
		t.Errorf("openssl.Binary = %v, want openssl", openssl.Binary)
	}
	if openssl.ProcessTimeout != 10*time.Second {
		t.Errorf("openssl.ProcessTimeout = %v, want 10s", openssl.ProcessTimeout)
	}
	if openssl.HTTP.ConnectTimeout != 60*time.Second {
		t.Errorf("openssl.HTTP.ConnectTimeout = %v, want 60s", openssl.HTTP.ConnectTimeout)
	}
	if openssl.HTTP.Timeout != 60*time.Second {
		t.Errorf("openssl.HTTP.Timeout = %v, want 60s", openssl.HTTP.Timeout)
	}

	stream, ok := cfg.Drivers["stream"]
	if !ok {
		t.Fatal("Drivers[stream] missing")
	}
	if stream.Driver != "stream" {
		t.Errorf("stream.Driver = %v, want stream", stream.Driver)
	}
	if stream.Timeout != 10*time.Second {
		t.Errorf("stream.Timeout = %v, want 10s", stream.Timeout)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	v := viper.New()
	v.Set("default", "sockets")
	v.Set("log_level", "debug")
	v.Set("lookup.concurrency", 8)
	v.Set("server.listen", "127.0.0.1:9500")
	v.Set("drivers.openssl.binary", "/usr/local/bin/openssl")
	v.Set("drivers.openssl.process_timeout", "30s")
	v.Set("drivers.sockets.driver", "stream")
	v.Set("drivers.sockets.timeout", "3s")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Default != "sockets" {
		t.Errorf("Default = %v, want sockets", cfg.Default)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.Lookup.Concurrency != 8 {
		t.Errorf("Lookup.Concurrency = %v, want 8", cfg.Lookup.Concurrency)
	}
	if cfg.Server.Listen != "127.0.0.1:9500" {
		t.Errorf("Server.Listen = %v, want 127.0.0.1:9500", cfg.Server.Listen)
	}
	if got := cfg.Drivers["openssl"].Binary; got != "/usr/local/bin/openssl" {
		t.Errorf("openssl.Binary = %v, want /usr/local/bin/openssl", got)
	}
	if got := cfg.Drivers["openssl"].ProcessTimeout; got != 30*time.Second {
		t.Errorf("openssl.ProcessTimeout = %v, want 30s", got)
	}
	if got := cfg.Drivers["sockets"].Timeout; got != 3*time.Second {
		t.Errorf("sockets.Timeout = %v, want 3s", got)
	}

	names := cfg.DriverNames()
	want := []string{"openssl", "sockets", "stream"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("DriverNames() = %v, want %v", names, want)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestLoad_DriverKindDefaults(t *testing.T) {
	v := viper.New()
	v.Set("drivers.legacy.driver", "openssl")
	v.Set("drivers.fast.driver", "stream")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	legacy := cfg.Drivers["legacy"]
	if legacy.Binary != DefaultBinary {
		t.Errorf("legacy.Binary = %v, want %v", legacy.Binary, DefaultBinary)
	}
	if legacy.ProcessTimeout != DefaultProcessTimeout {
		t.Errorf("legacy.ProcessTimeout = %v, want %v", legacy.ProcessTimeout, DefaultProcessTimeout)
	}
	if legacy.HTTP.Timeout != DefaultHTTPTimeout {
		t.Errorf("legacy.HTTP.Timeout = %v, want %v", legacy.HTTP.Timeout, DefaultHTTPTimeout)
	}

	if got := cfg.Drivers["fast"].Timeout; got != DefaultTimeout {
		t.Errorf("fast.Timeout = %v, want %v", got, DefaultTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(viper.New())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: "log_level must be one of",
		},
		{
			name:    "concurrency too low",
			mutate:  func(c *Config) { c.Lookup.Concurrency = 0 },
			wantErr: "concurrency must be between 1 and 50",
		},
		{
			name:    "concurrency too high",
			mutate:  func(c *Config) { c.Lookup.Concurrency = 51 },
			wantErr: "concurrency must be between 1 and 50",
		},
		{
			name:    "empty listen",
			mutate:  func(c *Config) { c.Server.Listen = "" },
			wantErr: "listen is required",
		},
		{
			name:    "undefined default",
			mutate:  func(c *Config) { c.Default = "missing" },
			wantErr: "default driver [missing] is not defined",
		},
		{
			name:    "empty default",
			mutate:  func(c *Config) { c.Default = "" },
			wantErr: "default driver is required",
		},
		{
			name:    "no drivers",
			mutate:  func(c *Config) { c.Drivers = nil },
			wantErr: "at least one driver is required",
		},
		{
			name: "driver without kind",
			mutate: func(c *Config) {
				c.Drivers["custom"] = DriverConfig{}
			},
			wantErr: "[custom]: driver is required",
		},
		{
			name: "negative timeout",
			mutate: func(c *Config) {
				d := c.Drivers["stream"]
				d.Timeout = -time.Second
				c.Drivers["stream"] = d
			},
			wantErr: "[stream]: timeouts must not be negative",
		},
		{
			name: "blank binary",
			mutate: func(c *Config) {
				d := c.Drivers["openssl"]
				d.Binary = "  "
				c.Drivers["openssl"] = d
			},
			wantErr: "[openssl]: binary is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}
