package certinfo

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // SHA-1 fingerprints are informational only
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

// ErrParse is returned when certificate bytes cannot be decoded
var ErrParse = errors.New("parse error")

const pemType = "CERTIFICATE"

// Parse decodes certificate bytes into a Certificate.
// PEM input may carry arbitrary text around the CERTIFICATE block, so the
// output of a text rendering tool is accepted as-is.
func Parse(data []byte, format Format) (*Certificate, error) {
	raw, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	return FromX509(cert), nil
}

func decode(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatDER:
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: empty DER input", ErrParse)
		}
		return data, nil
	case FormatPEM, "":
		rest := data
		for {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				return nil, fmt.Errorf("%w: no PEM certificate found", ErrParse)
			}
			if block.Type == pemType {
				return block.Bytes, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrParse, string(format))
}

// FromX509 converts a parsed certificate into a Certificate record
func FromX509(cert *x509.Certificate) *Certificate {
	sha256Sum := sha256.Sum256(cert.Raw)
	sha1Sum := sha1.Sum(cert.Raw) //nolint:gosec // informational fingerprint

	// Calculate days until expiry
	daysUntilExpiry := int(time.Until(cert.NotAfter).Hours() / 24)

	// Extract SAN list
	sanList := make([]string, 0, len(cert.DNSNames)+len(cert.IPAddresses)+len(cert.EmailAddresses)+len(cert.URIs))
	sanList = append(sanList, cert.DNSNames...)
	for _, ip := range cert.IPAddresses {
		sanList = append(sanList, ip.String())
	}
	sanList = append(sanList, cert.EmailAddresses...)
	for _, u := range cert.URIs {
		sanList = append(sanList, u.String())
	}

	return &Certificate{
		Subject:            nameFrom(cert.Subject),
		Issuer:             nameFrom(cert.Issuer),
		SerialNumber:       cert.SerialNumber.String(),
		Version:            cert.Version,
		SignatureAlgorithm: cert.SignatureAlgorithm.String(),
		PublicKeyAlgorithm: cert.PublicKeyAlgorithm.String(),
		FingerprintSHA256:  hex.EncodeToString(sha256Sum[:]),
		FingerprintSHA1:    hex.EncodeToString(sha1Sum[:]),
		NotBefore:          cert.NotBefore.UTC(),
		NotAfter:           cert.NotAfter.UTC(),
		DaysUntilExpiry:    daysUntilExpiry,
		SANList:            sanList,
		CAIssuers:          cert.IssuingCertificateURL,
		OCSPServers:        cert.OCSPServer,
		CRLDistribution:    cert.CRLDistributionPoints,
		IsCA:               cert.IsCA,
		SelfSigned:         bytes.Equal(cert.RawSubject, cert.RawIssuer),
		PEM:                string(pem.EncodeToMemory(&pem.Block{Type: pemType, Bytes: cert.Raw})),
	}
}

func nameFrom(n pkix.Name) Name {
	return Name{
		CommonName:         n.CommonName,
		Organization:       n.Organization,
		OrganizationalUnit: n.OrganizationalUnit,
		Country:            n.Country,
		Province:           n.Province,
		Locality:           n.Locality,
		String:             n.String(),
	}
}
