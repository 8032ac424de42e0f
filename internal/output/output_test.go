package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/certwatch-app/cw-certshow/internal/certinfo"
	"github.com/certwatch-app/cw-certshow/internal/ssl"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testCertificate(cn string, notAfter time.Time) *certinfo.Certificate {
	return &certinfo.Certificate{
		Subject:            certinfo.Name{CommonName: cn, String: "CN=" + cn},
		Issuer:             certinfo.Name{CommonName: "Test CA", String: "CN=Test CA"},
		SerialNumber:       "01:02",
		SignatureAlgorithm: "ECDSA-SHA256",
		PublicKeyAlgorithm: "ECDSA",
		FingerprintSHA256:  "AA:BB",
		SANList:            []string{cn, "www." + cn},
		NotBefore:          now.Add(-24 * time.Hour),
		NotAfter:           notAfter,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"TEXT", FormatText, false},
		{" text ", FormatText, false},
		{"", FormatJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	results := []ssl.Result{
		{
			Question:     ssl.Question{Host: "example.com", Port: "443"},
			Certificate:  testCertificate("example.com", now.Add(60*24*time.Hour)),
			Verification: &ssl.Verification{Code: "0", Message: "ok"},
		},
		{
			Question: ssl.Question{Host: "down.example.com", Port: "443"},
			Error:    "connection refused",
		},
	}

	var buf bytes.Buffer
	if err := JSON(&buf, results, false); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded) = %d, want 2", len(decoded))
	}
	if decoded[0]["certificate"] == nil {
		t.Error("decoded[0].certificate = nil, want object")
	}
	if decoded[1]["certificate"] != nil {
		t.Errorf("decoded[1].certificate = %v, want null", decoded[1]["certificate"])
	}
	if decoded[1]["error"] != "connection refused" {
		t.Errorf("decoded[1].error = %v, want connection refused", decoded[1]["error"])
	}
}

func TestJSON_EmptyAndPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, nil, false); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("JSON(nil) = %q, want []", got)
	}

	buf.Reset()
	results := []ssl.Result{{Question: ssl.Question{Host: "a", Port: "443"}}}
	if err := JSON(&buf, results, true); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Errorf("pretty JSON not indented: %q", buf.String())
	}
}

func TestText(t *testing.T) {
	leaf := testCertificate("example.com", now.Add(60*24*time.Hour))
	inter := testCertificate("Intermediate", now.Add(365*24*time.Hour))

	results := []ssl.Result{
		{
			Question:     ssl.Question{Host: "example.com", Port: "443"},
			Certificate:  leaf,
			Verification: &ssl.Verification{Code: "0", Message: "ok"},
		},
		{
			Question: ssl.Question{Host: "mail.example.com", Port: "25"},
			Chain:    []*certinfo.Certificate{testCertificate("mail.example.com", now.Add(-48*time.Hour)), inter},
		},
		{
			Question: ssl.Question{Host: "down.example.com", Port: "443"},
			Error:    "connection refused",
		},
	}

	var buf bytes.Buffer
	if err := Text(&buf, results, now); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	out := buf.String()

	wants := []string{
		"example.com:443",
		"CN=example.com",
		"example.com, www.example.com",
		"expires 2 months from now",
		"0 (ok)",
		"mail.example.com:25",
		"expired 2 days ago",
		"2 certificates",
		"CN=Intermediate",
		"down.example.com:443",
		"connection refused",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("Text() output missing %q:\n%s", want, out)
		}
	}
}

func TestText_NoCertificate(t *testing.T) {
	var buf bytes.Buffer
	results := []ssl.Result{{Question: ssl.Question{Host: "empty.example.com", Port: "443"}}}
	if err := Text(&buf, results, now); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if !strings.Contains(buf.String(), "no certificate") {
		t.Errorf("Text() = %q, want no certificate", buf.String())
	}
}

func TestStatusLines(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		prefix string
	}{
		{"success", Success, "✓ "},
		{"error", Error, "✗ "},
		{"warning", Warning, "! "},
		{"info", Info, "→ "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.render("config written")
			if !strings.Contains(got, tt.prefix+"config written") {
				t.Errorf("%s() = %q, want containing %q", tt.name, got, tt.prefix+"config written")
			}
		})
	}

	if got := Code("cw-certshow validate"); !strings.Contains(got, "cw-certshow validate") {
		t.Errorf("Code() = %q, want containing the command", got)
	}
}
