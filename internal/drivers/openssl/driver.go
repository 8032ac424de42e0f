// Package openssl implements the process based certificate driver: it runs
// the openssl toolkit to perform the handshake and render the certificate.
package openssl

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/certinfo"
	"github.com/certwatch-app/cw-certshow/internal/httpfetch"
	"github.com/certwatch-app/cw-certshow/internal/metrics"
	"github.com/certwatch-app/cw-certshow/internal/ssl"
	"github.com/certwatch-app/cw-certshow/internal/starttls"
)

// Defaults
const (
	DefaultBinary  = "openssl"
	DefaultTimeout = 10 * time.Second

	// verifyDepth is passed to s_client -verify
	verifyDepth = "10"
)

// Process steps, used as metric labels
const (
	stepHandshake = "s_client"
	stepConvert   = "x509"
)

// recoverable failures leave the question without a certificate
var recoverable = ssl.Recoverable(
	ssl.ErrHTTP,
	ssl.ErrProcessFailed,
	ssl.ErrProcessTimedOut,
	ssl.ErrParse,
)

// Config holds driver settings
type Config struct {
	Binary      string
	Timeout     time.Duration
	Concurrency int
}

// Driver retrieves certificates by running openssl subprocesses
type Driver struct {
	runner  Runner
	fetcher httpfetch.Fetcher
	logger  *zap.Logger
	name    string
	cfg     Config
}

// Option customizes a Driver
type Option func(*Driver)

// WithRunner replaces the subprocess runner
func WithRunner(r Runner) Option {
	return func(d *Driver) { d.runner = r }
}

// New creates a new openssl Driver. fetcher is used only for
// id-ad-caIssuers lookups and may be nil when those are not needed.
func New(name string, fetcher httpfetch.Fetcher, cfg Config, logger *zap.Logger, opts ...Option) *Driver {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	d := &Driver{
		runner:  ExecRunner{},
		fetcher: fetcher,
		logger:  logger,
		name:    name,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements ssl.Driver
func (d *Driver) Name() string {
	return d.name
}

// Show implements ssl.Driver
func (d *Driver) Show(ctx context.Context, questions []ssl.Question, opts ssl.Options) ([]ssl.Result, error) {
	fetch := func(ctx context.Context, q ssl.Question) (ssl.Result, error) {
		start := time.Now()
		res, err := d.Fetch(ctx, q, opts)
		metrics.LookupDuration.WithLabelValues(d.name).Observe(time.Since(start).Seconds())
		return res, err
	}

	return ssl.Run(ctx, questions, fetch, ssl.RunOptions{
		Recoverable: recoverable,
		Concurrency: d.cfg.Concurrency,
		OnResult:    d.observe,
	})
}

func (d *Driver) observe(q ssl.Question, _ ssl.Result, err error) {
	metrics.LookupTotal.WithLabelValues(d.name, metrics.Outcome(err, recoverable)).Inc()
	if err != nil {
		d.logger.Debug("lookup failed",
			zap.String("driver", d.name),
			zap.String("host", q.Host),
			zap.String("port", q.Port),
			zap.Error(err),
		)
	}
}

// Fetch answers a single question. All failures are returned.
func (d *Driver) Fetch(ctx context.Context, q ssl.Question, opts ssl.Options) (ssl.Result, error) {
	if strings.TrimSpace(q.Host) == "" {
		return ssl.Result{}, fmt.Errorf("%w: cannot connect to empty host", ssl.ErrInvalidArgument)
	}
	if q.Port == "" {
		q.Port = ssl.DefaultPort
	}

	var (
		rendered     []byte
		verification *ssl.Verification
		err          error
	)

	if opts.UseCAIssuers {
		rendered, err = d.caIssuers(ctx, q.Host)
	} else {
		rendered, verification, err = d.certificate(ctx, q, opts)
	}
	if err != nil {
		return ssl.Result{}, err
	}

	cert, err := certinfo.Parse(rendered, certinfo.FormatPEM)
	if err != nil {
		return ssl.Result{}, err
	}

	d.logger.Debug("lookup successful",
		zap.String("driver", d.name),
		zap.String("host", q.Host),
		zap.String("port", q.Port),
		zap.String("subject", cert.Subject.CommonName),
		zap.Int("days_until_expiry", cert.DaysUntilExpiry),
	)

	return ssl.Result{
		Certificate:  cert,
		Verification: verification,
	}, nil
}

// certificate captures the handshake with s_client and renders the peer
// certificate from the transcript
func (d *Driver) certificate(ctx context.Context, q ssl.Question, opts ssl.Options) ([]byte, *ssl.Verification, error) {
	handshake, err := d.run(ctx, stepHandshake, []byte("\n"), HandshakeArgs(q.Host, q.Port)...)
	if err != nil {
		return nil, nil, err
	}

	verification := ParseVerification(string(handshake))

	rendered, err := d.run(ctx, stepConvert, handshake, ConvertArgs(opts.InputDER)...)
	if err != nil {
		return nil, nil, err
	}

	return rendered, verification, nil
}

// caIssuers downloads a DER certificate from url and renders it
func (d *Driver) caIssuers(ctx context.Context, url string) ([]byte, error) {
	if d.fetcher == nil {
		return nil, fmt.Errorf("%w: driver %s has no http client", ssl.ErrInvalidArgument, d.name)
	}

	der, err := d.fetcher.Get(ctx, url)
	metrics.IssuerFetchTotal.WithLabelValues(metrics.Outcome(err, recoverable)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ssl.ErrHTTP, err)
	}

	return d.run(ctx, stepConvert, der, ConvertArgs(true)...)
}

func (d *Driver) run(ctx context.Context, step string, stdin []byte, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	out, err := d.runner.Run(ctx, stdin, d.cfg.Binary, args...)
	metrics.ProcessRunsTotal.WithLabelValues(step, metrics.Outcome(err, recoverable)).Inc()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HandshakeArgs returns the s_client arguments for host:port, including the
// STARTTLS dialect for well-known plaintext ports
func HandshakeArgs(host, port string) []string {
	args := []string{
		"s_client",
		"-connect", net.JoinHostPort(host, port),
		"-servername", host,
		"-verify", verifyDepth,
	}

	if proto := starttls.ProtocolForPort(port); proto != starttls.None {
		args = append(args, "-starttls", string(proto))
	}

	return args
}

// ConvertArgs returns the x509 arguments that render a certificate as text
func ConvertArgs(der bool) []string {
	args := []string{"x509", "-text"}
	if der {
		args = append(args, "-inform", "DER")
	}
	return args
}
