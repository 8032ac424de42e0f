// Package certinfo turns X.509 certificates into the structured records
// returned by lookups.
package certinfo

import (
	"time"
)

// Format is the encoding of certificate bytes handed to Parse
type Format string

// Supported input encodings
const (
	FormatPEM Format = "pem"
	FormatDER Format = "der"
)

// Certificate contains parsed certificate information.
// Fields are ordered for optimal memory alignment
type Certificate struct {
	NotBefore          time.Time `json:"not_before"`
	NotAfter           time.Time `json:"not_after"`
	Subject            Name      `json:"subject"`
	Issuer             Name      `json:"issuer"`
	SerialNumber       string    `json:"serial_number"`
	SignatureAlgorithm string    `json:"signature_algorithm"`
	PublicKeyAlgorithm string    `json:"public_key_algorithm"`
	FingerprintSHA256  string    `json:"fingerprint_sha256"`
	FingerprintSHA1    string    `json:"fingerprint_sha1"`
	PEM                string    `json:"pem"`
	SANList            []string  `json:"san_list,omitempty"`
	CAIssuers          []string  `json:"ca_issuers,omitempty"`
	OCSPServers        []string  `json:"ocsp_servers,omitempty"`
	CRLDistribution    []string  `json:"crl_distribution_points,omitempty"`
	Version            int       `json:"version"`
	DaysUntilExpiry    int       `json:"days_until_expiry"`
	IsCA               bool      `json:"is_ca"`
	SelfSigned         bool      `json:"self_signed"`
}

// Name is a distinguished name broken into its common attributes
type Name struct {
	CommonName         string   `json:"CN,omitempty"`
	Organization       []string `json:"O,omitempty"`
	OrganizationalUnit []string `json:"OU,omitempty"`
	Country            []string `json:"C,omitempty"`
	Province           []string `json:"ST,omitempty"`
	Locality           []string `json:"L,omitempty"`
	String             string   `json:"dn"`
}

// Expired reports whether the certificate is past its NotAfter date at t
func (c *Certificate) Expired(t time.Time) bool {
	return t.After(c.NotAfter)
}
