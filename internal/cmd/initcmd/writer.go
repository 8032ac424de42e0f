package initcmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/certwatch-app/cw-certshow/internal/config"
)

const fileHeader = `# cw-certshow configuration
# Generated by 'cw-certshow init'. Every key can be overridden with a
# CERTSHOW_ environment variable, e.g. CERTSHOW_LOG_LEVEL=debug.
`

// fileConfig mirrors config.Config with durations written as strings
type fileConfig struct {
	Default  string                `yaml:"default"`
	LogLevel string                `yaml:"log_level"`
	Lookup   fileLookup            `yaml:"lookup"`
	Server   fileServer            `yaml:"server"`
	Drivers  map[string]fileDriver `yaml:"drivers"`
}

type fileLookup struct {
	Concurrency int `yaml:"concurrency"`
}

type fileServer struct {
	Listen string `yaml:"listen"`
}

type fileDriver struct {
	HTTP           *fileHTTP `yaml:"http,omitempty"`
	Driver         string    `yaml:"driver"`
	Binary         string    `yaml:"binary,omitempty"`
	Timeout        string    `yaml:"timeout,omitempty"`
	ProcessTimeout string    `yaml:"process_timeout,omitempty"`
}

type fileHTTP struct {
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
	Timeout        string `yaml:"timeout,omitempty"`
}

func toFileConfig(cfg *config.Config) fileConfig {
	fc := fileConfig{
		Default:  cfg.Default,
		LogLevel: cfg.LogLevel,
		Lookup:   fileLookup{Concurrency: cfg.Lookup.Concurrency},
		Server:   fileServer{Listen: cfg.Server.Listen},
		Drivers:  make(map[string]fileDriver, len(cfg.Drivers)),
	}

	for name, d := range cfg.Drivers {
		fd := fileDriver{
			Driver:         d.Driver,
			Binary:         d.Binary,
			Timeout:        duration(d.Timeout),
			ProcessTimeout: duration(d.ProcessTimeout),
		}
		if d.HTTP.ConnectTimeout != 0 || d.HTTP.Timeout != 0 {
			fd.HTTP = &fileHTTP{
				ConnectTimeout: duration(d.HTTP.ConnectTimeout),
				Timeout:        duration(d.HTTP.Timeout),
			}
		}
		fc.Drivers[name] = fd
	}

	return fc
}

func duration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// WriteConfig writes cfg as YAML to path, creating parent directories.
func WriteConfig(cfg *config.Config, path string) error {
	data, err := yaml.Marshal(toFileConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
