// Package output renders lookup results for the command line and the
// HTTP API.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/certwatch-app/cw-certshow/internal/certinfo"
	"github.com/certwatch-app/cw-certshow/internal/ssl"
)

// Format selects how results are rendered
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("format must be one of: json, text")
}

var (
	targetStyle = TitleStyle
	labelStyle  = MutedStyle.Width(14)
)

// soonThreshold marks certificates close enough to expiry to highlight
const soonThreshold = 30 * 24 * time.Hour

// Write renders results in the given format
func Write(w io.Writer, format Format, results []ssl.Result, pretty bool) error {
	switch format {
	case FormatText:
		return Text(w, results, time.Now())
	default:
		return JSON(w, results, pretty)
	}
}

// JSON writes results as a JSON array
func JSON(w io.Writer, results []ssl.Result, pretty bool) error {
	if results == nil {
		results = []ssl.Result{}
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// Text writes a human readable summary of each result, relative to now
func Text(w io.Writer, results []ssl.Result, now time.Time) error {
	var sb strings.Builder

	for i := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeResult(&sb, &results[i], now)
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

func writeResult(sb *strings.Builder, res *ssl.Result, now time.Time) {
	sb.WriteString(targetStyle.Render(res.Question.Address()))
	sb.WriteString("\n")

	leaf := res.Leaf()
	if leaf == nil {
		reason := res.Error
		if reason == "" {
			reason = "no certificate"
		}
		field(sb, "Error", errStyle.Render(reason))
		return
	}

	writeCertificate(sb, leaf, now)

	if v := res.Verification; v != nil {
		style := okStyle
		if v.Code != "0" {
			style = warnStyle
		}
		field(sb, "Verify", style.Render(fmt.Sprintf("%s (%s)", v.Code, v.Message)))
	}

	if len(res.Chain) > 1 {
		field(sb, "Chain", fmt.Sprintf("%d certificates", len(res.Chain)))
		for i, cert := range res.Chain[1:] {
			field(sb, fmt.Sprintf("  [%d]", i+1), cert.Subject.String)
		}
	}
}

func writeCertificate(sb *strings.Builder, cert *certinfo.Certificate, now time.Time) {
	field(sb, "Subject", cert.Subject.String)
	field(sb, "Issuer", cert.Issuer.String)
	if len(cert.SANList) > 0 {
		field(sb, "SANs", strings.Join(cert.SANList, ", "))
	}
	field(sb, "Serial", cert.SerialNumber)
	field(sb, "Not before", cert.NotBefore.UTC().Format(time.RFC3339))
	field(sb, "Not after", cert.NotAfter.UTC().Format(time.RFC3339))
	field(sb, "Expires", expiry(cert, now))
	field(sb, "Key", fmt.Sprintf("%s, signed with %s", cert.PublicKeyAlgorithm, cert.SignatureAlgorithm))
	field(sb, "SHA-256", cert.FingerprintSHA256)
	if len(cert.CAIssuers) > 0 {
		field(sb, "CA issuers", strings.Join(cert.CAIssuers, ", "))
	}
}

func expiry(cert *certinfo.Certificate, now time.Time) string {
	rel := humanize.RelTime(cert.NotAfter, now, "ago", "from now")
	switch {
	case cert.Expired(now):
		return errStyle.Render("expired " + rel)
	case cert.NotAfter.Sub(now) < soonThreshold:
		return warnStyle.Render("expires " + rel)
	default:
		return okStyle.Render("expires " + rel)
	}
}

func field(sb *strings.Builder, label, value string) {
	sb.WriteString("  ")
	sb.WriteString(labelStyle.Render(label))
	sb.WriteString(value)
	sb.WriteString("\n")
}
