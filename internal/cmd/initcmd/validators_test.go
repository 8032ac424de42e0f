package initcmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateConfigPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "./certshow.yaml", false},
		{"existing dir", filepath.Join(dir, "certshow.yaml"), false},
		{"missing dir", filepath.Join(dir, "new", "certshow.yaml"), false},
		{"parent is a file", filepath.Join(file, "certshow.yaml"), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfigPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBinary(t *testing.T) {
	tests := []struct {
		name    string
		binary  string
		wantErr bool
	}{
		{"name", "openssl", false},
		{"absolute path", "/usr/local/opt/openssl@3/bin/openssl", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"newline", "openssl\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBinary(tt.binary)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBinary(%q) error = %v, wantErr %v", tt.binary, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTimeout(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"seconds", "10s", false},
		{"minutes", "1m", false},
		{"combined", "1m30s", false},
		{"max", "10m", false},
		{"empty", "", true},
		{"no unit", "10", true},
		{"too short", "500ms", true},
		{"too long", "11m", true},
		{"garbage", "soon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimeout(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimeout(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}

	if err := ValidateOptionalTimeout(""); err != nil {
		t.Errorf("ValidateOptionalTimeout(\"\") error = %v, want nil", err)
	}
	if err := ValidateOptionalTimeout("1ms"); err == nil {
		t.Error("ValidateOptionalTimeout(\"1ms\") error = nil, want error")
	}
}

func TestValidateConcurrency(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"1", false},
		{"10", false},
		{" 50 ", false},
		{"0", true},
		{"51", true},
		{"-1", true},
		{"ten", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateConcurrency(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConcurrency(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateListen(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"port only", ":9403", false},
		{"loopback", "127.0.0.1:9403", false},
		{"ipv6", "[::1]:8080", false},
		{"empty", "", true},
		{"missing port", "localhost", true},
		{"port zero", ":0", true},
		{"port too high", ":70000", true},
		{"named port", ":http", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListen(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateListen(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDriverName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "mail", false},
		{"with dash", "legacy-openssl", false},
		{"with underscore", "fast_stream", false},
		{"empty", "", true},
		{"builtin openssl", "openssl", true},
		{"builtin stream", "stream", true},
		{"uppercase", "Mail", true},
		{"space", "my driver", true},
		{"too long", "a23456789012345678901234567890123456789012345678901", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDriverName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDriverName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDriverKind(t *testing.T) {
	for _, kind := range []string{"openssl", "stream"} {
		if err := ValidateDriverKind(kind); err != nil {
			t.Errorf("ValidateDriverKind(%q) error = %v", kind, err)
		}
	}
	if err := ValidateDriverKind("ldap"); err == nil {
		t.Error("ValidateDriverKind(ldap) error = nil, want error")
	}
}
