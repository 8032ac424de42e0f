package initcmd

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-certshow/internal/config"
)

// ValidateConfigPath validates the output file path.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	// Check if directory exists or can be created
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil // Created during write
			}
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("'%s' is not a directory", dir)
		}
	}

	return nil
}

// ValidateBinary validates the openssl executable name or path.
func ValidateBinary(binary string) error {
	if strings.TrimSpace(binary) == "" {
		return fmt.Errorf("binary is required")
	}

	if strings.ContainsAny(binary, "\n\r\t") {
		return fmt.Errorf("binary cannot contain newlines or tabs")
	}

	return nil
}

// ValidateTimeout validates a duration such as 10s or 1m.
func ValidateTimeout(s string) error {
	if s == "" {
		return fmt.Errorf("timeout is required")
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("timeout must be a duration like 10s or 1m")
	}

	if d < time.Second {
		return fmt.Errorf("timeout must be at least 1 second")
	}

	if d > 10*time.Minute {
		return fmt.Errorf("timeout must be at most 10 minutes")
	}

	return nil
}

// ValidateOptionalTimeout accepts an empty value or a valid timeout.
func ValidateOptionalTimeout(s string) error {
	if s == "" {
		return nil // Kind default
	}
	return ValidateTimeout(s)
}

// ValidateConcurrency validates the number of parallel lookups.
func ValidateConcurrency(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("concurrency must be a number")
	}

	if n < 1 || n > config.MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", config.MaxConcurrency)
	}

	return nil
}

// ValidateListen validates the serve listen address.
func ValidateListen(addr string) error {
	if addr == "" {
		return fmt.Errorf("listen address is required")
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("listen address must look like :9403 or 127.0.0.1:9403")
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}

// ValidateDriverName validates the name of an additional driver.
func ValidateDriverName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("driver name is required")
	}

	if len(name) > 50 {
		return fmt.Errorf("driver name must be at most 50 characters")
	}

	if name == config.DriverOpenSSL || name == config.DriverStream {
		return fmt.Errorf("'%s' is already defined", name)
	}

	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			return fmt.Errorf("driver name contains invalid character: '%c'", c)
		}
	}

	return nil
}

// ValidateDriverKind validates the implementation selected for a driver.
func ValidateDriverKind(kind string) error {
	switch kind {
	case config.DriverOpenSSL, config.DriverStream:
		return nil
	}
	return fmt.Errorf("driver must be one of: %s, %s", config.DriverOpenSSL, config.DriverStream)
}
