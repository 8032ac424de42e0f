// Package testutil generates throwaway certificate chains and TLS servers
// for tests.
package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"
)

// Chain is a generated root -> intermediate -> leaf hierarchy
type Chain struct {
	Root         *x509.Certificate
	Intermediate *x509.Certificate
	Leaf         *x509.Certificate
	LeafKey      *ecdsa.PrivateKey
}

// ChainOptions customizes the generated leaf
type ChainOptions struct {
	CommonName string
	CAIssuers  []string
}

// NewChain generates a fresh three-level certificate hierarchy
func NewChain(t testing.TB, opts ChainOptions) *Chain {
	t.Helper()

	if opts.CommonName == "" {
		opts.CommonName = "localhost"
	}

	rootKey := newKey(t)
	root := sign(t, &x509.Certificate{
		Subject:               pkix.Name{CommonName: "Test Root CA", Organization: []string{"CertShow Test"}},
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}, nil, &rootKey.PublicKey, rootKey)

	interKey := newKey(t)
	inter := sign(t, &x509.Certificate{
		Subject:               pkix.Name{CommonName: "Test Intermediate CA", Organization: []string{"CertShow Test"}},
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}, root, &interKey.PublicKey, rootKey)

	leafKey := newKey(t)
	leaf := sign(t, &x509.Certificate{
		Subject:               pkix.Name{CommonName: opts.CommonName},
		DNSNames:              []string{opts.CommonName},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IssuingCertificateURL: opts.CAIssuers,
	}, inter, &leafKey.PublicKey, interKey)

	return &Chain{
		Root:         root,
		Intermediate: inter,
		Leaf:         leaf,
		LeafKey:      leafKey,
	}
}

// ServerCertificate returns the leaf and intermediate as a tls.Certificate
func (c *Chain) ServerCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{c.Leaf.Raw, c.Intermediate.Raw},
		PrivateKey:  c.LeafKey,
		Leaf:        c.Leaf,
	}
}

// ServerConfig returns a TLS server config presenting the chain
func (c *Chain) ServerConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{c.ServerCertificate()},
		MinVersion:   tls.VersionTLS12,
	}
}

// LeafPEM returns the leaf certificate PEM encoded
func (c *Chain) LeafPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Leaf.Raw})
}

func newKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func sign(t testing.TB, tmpl, parent *x509.Certificate, pub *ecdsa.PublicKey, signer *ecdsa.PrivateKey) *x509.Certificate {
	t.Helper()

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("failed to generate serial: %v", err)
	}
	tmpl.SerialNumber = serial
	tmpl.NotBefore = time.Now().Add(-time.Hour)
	tmpl.NotAfter = time.Now().Add(90 * 24 * time.Hour)

	if parent == nil {
		parent = tmpl
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, signer)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return cert
}
