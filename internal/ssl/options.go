package ssl

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Option keys understood by OptionsFromMap
const (
	OptionChain        = "peer_certificate_chain"
	OptionCryptoMethod = "crypto_method"
	OptionCAIssuers    = "id-ad-caIssuers"
	OptionDER          = "der"
)

// CryptoMethod selects the TLS protocol versions negotiated by a client
type CryptoMethod string

// Supported crypto methods
const (
	CryptoTLSClient   CryptoMethod = "tls_client"
	CryptoAnyClient   CryptoMethod = "any_client"
	CryptoTLS10Client CryptoMethod = "tlsv1.0_client"
	CryptoTLS11Client CryptoMethod = "tlsv1.1_client"
	CryptoTLS12Client CryptoMethod = "tlsv1.2_client"
	CryptoTLS13Client CryptoMethod = "tlsv1.3_client"
)

// Versions returns the minimum and maximum TLS versions for the method
func (m CryptoMethod) Versions() (minVersion, maxVersion uint16, err error) {
	switch CryptoMethod(strings.ToLower(string(m))) {
	case "", CryptoTLSClient, CryptoAnyClient:
		return tls.VersionTLS10, tls.VersionTLS13, nil
	case CryptoTLS10Client:
		return tls.VersionTLS10, tls.VersionTLS10, nil
	case CryptoTLS11Client:
		return tls.VersionTLS11, tls.VersionTLS11, nil
	case CryptoTLS12Client:
		return tls.VersionTLS12, tls.VersionTLS12, nil
	case CryptoTLS13Client:
		return tls.VersionTLS13, tls.VersionTLS13, nil
	}
	return 0, 0, fmt.Errorf("%w: unknown crypto method %q", ErrInvalidArgument, string(m))
}

// Options tunes a single Show call. Drivers ignore options they do not use.
type Options struct {
	CryptoMethod CryptoMethod `json:"crypto_method"`

	// CaptureFullChain captures every peer certificate instead of the leaf only
	CaptureFullChain bool `json:"peer_certificate_chain"`
	// UseCAIssuers treats the question host as an id-ad-caIssuers URL
	UseCAIssuers bool `json:"id-ad-caIssuers"`
	// InputDER tells the conversion step its input is DER encoded
	InputDER bool `json:"der"`
}

// DefaultOptions returns the options used when the caller sets none
func DefaultOptions() Options {
	return Options{
		CaptureFullChain: true,
		CryptoMethod:     CryptoTLSClient,
	}
}

// OptionsFromMap builds Options from loosely typed key/value pairs such as
// command line flags or query parameters. Unknown keys are ignored.
func OptionsFromMap(m map[string]any) (Options, error) {
	opts := DefaultOptions()

	if v, ok := m[OptionChain]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, OptionChain, err)
		}
		opts.CaptureFullChain = b
	}

	if v, ok := m[OptionCryptoMethod]; ok {
		s, err := cast.ToStringE(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, OptionCryptoMethod, err)
		}
		method := CryptoMethod(strings.ToLower(strings.TrimSpace(s)))
		if _, _, err := method.Versions(); err != nil {
			return opts, err
		}
		opts.CryptoMethod = method
	}

	if v, ok := m[OptionCAIssuers]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, OptionCAIssuers, err)
		}
		opts.UseCAIssuers = b
	}

	// der is a presence flag; it carries no value
	if _, ok := m[OptionDER]; ok {
		opts.InputDER = true
	}

	return opts, nil
}
