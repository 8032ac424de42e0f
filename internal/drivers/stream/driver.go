// Package stream implements the socket based certificate driver: it opens
// the TCP connection itself, negotiates STARTTLS where the port calls for
// it, and captures the peer chain from the TLS session.
package stream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/certinfo"
	"github.com/certwatch-app/cw-certshow/internal/metrics"
	"github.com/certwatch-app/cw-certshow/internal/ssl"
	"github.com/certwatch-app/cw-certshow/internal/starttls"
)

// DefaultTimeout bounds connecting, negotiating and the TLS handshake
const DefaultTimeout = 10 * time.Second

// recoverable failures leave the question without a chain
var recoverable = ssl.Recoverable(
	ssl.ErrConnection,
	ssl.ErrUnexpectedProtocolState,
	ssl.ErrParse,
)

// Dialer opens the underlying TCP connection
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config holds driver settings
type Config struct {
	Timeout     time.Duration
	Concurrency int
}

// Driver retrieves certificate chains over its own connections
type Driver struct {
	dialer   Dialer
	logger   *zap.Logger
	heloName func() string
	name     string
	cfg      Config
}

// Option customizes a Driver
type Option func(*Driver)

// WithDialer replaces the TCP dialer
func WithDialer(dialer Dialer) Option {
	return func(d *Driver) { d.dialer = dialer }
}

// WithHELOName fixes the name announced in SMTP HELO
func WithHELOName(name string) Option {
	return func(d *Driver) { d.heloName = func() string { return name } }
}

// New creates a new stream Driver
func New(name string, cfg Config, logger *zap.Logger, opts ...Option) *Driver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	d := &Driver{
		dialer:   &net.Dialer{Timeout: cfg.Timeout},
		logger:   logger,
		heloName: starttls.LocalFQDN,
		name:     name,
		cfg:      cfg,
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
	if _, _, err := opts.CryptoMethod.Versions(); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, q ssl.Question) (ssl.Result, error) {
		start := time.Now()
		chain, err := d.Fetch(ctx, q, opts)
		metrics.LookupDuration.WithLabelValues(d.name).Observe(time.Since(start).Seconds())
		if err != nil {
			return ssl.Result{}, err
		}
		return ssl.Result{Chain: chain}, nil
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

// Fetch captures the certificate chain for a single question, leaf first.
// Transport failures are returned wrapping ssl.ErrConnection.
func (d *Driver) Fetch(ctx context.Context, q ssl.Question, opts ssl.Options) ([]*certinfo.Certificate, error) {
	if strings.TrimSpace(q.Host) == "" {
		return nil, fmt.Errorf("%w: cannot connect to empty host", ssl.ErrInvalidArgument)
	}
	if q.Port == "" {
		q.Port = ssl.DefaultPort
	}

	tlsConfig, err := d.tlsConfig(q.Host, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	conn, err := d.dialer.DialContext(ctx, "tcp", q.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ssl.ErrConnection, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	proto := starttls.ProtocolForPort(q.Port)

	var tlsConn *tls.Conn
	if proto == starttls.None {
		tlsConn = tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return nil, fmt.Errorf("%w: tls handshake: %v", ssl.ErrConnection, err)
		}
	} else {
		tlsConn, err = d.negotiate(ctx, conn, proto, tlsConfig)
		if err != nil {
			return nil, err
		}
	}

	return d.capture(q, tlsConn, opts)
}

// negotiate runs the STARTTLS exchange and upgrades conn in place
func (d *Driver) negotiate(ctx context.Context, conn net.Conn, proto starttls.Protocol, cfg *tls.Config) (*tls.Conn, error) {
	var tlsConn *tls.Conn
	upgrade := func() (io.Writer, error) {
		tlsConn = tls.Client(conn, cfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return nil, err
		}
		return tlsConn, nil
	}

	err := starttls.Negotiate(conn, proto, d.heloName(), upgrade)
	metrics.StartTLSTotal.WithLabelValues(string(proto), metrics.Outcome(err, recoverable)).Inc()

	switch {
	case err == nil:
		return tlsConn, nil
	case errors.Is(err, starttls.ErrUpgradeFailed):
		return nil, fmt.Errorf("%w: %w: %w", ssl.ErrConnection, ssl.ErrUnexpectedProtocolState, err)
	default:
		return nil, fmt.Errorf("%w: %w", ssl.ErrConnection, err)
	}
}

// capture reads the peer certificates of the negotiated session
func (d *Driver) capture(q ssl.Question, conn *tls.Conn, opts ssl.Options) ([]*certinfo.Certificate, error) {
	peers := conn.ConnectionState().PeerCertificates
	if len(peers) == 0 {
		return nil, fmt.Errorf("%w: no certificates received", ssl.ErrConnection)
	}

	if !opts.CaptureFullChain {
		peers = peers[:1]
	}

	chain := make([]*certinfo.Certificate, 0, len(peers))
	for _, cert := range peers {
		chain = append(chain, certinfo.FromX509(cert))
	}

	d.logger.Debug("lookup successful",
		zap.String("driver", d.name),
		zap.String("host", q.Host),
		zap.String("port", q.Port),
		zap.String("subject", chain[0].Subject.CommonName),
		zap.Int("chain_length", len(chain)),
	)

	return chain, nil
}

func (d *Driver) tlsConfig(host string, opts ssl.Options) (*tls.Config, error) {
	minVersion, maxVersion, err := opts.CryptoMethod.Versions()
	if err != nil {
		return nil, err
	}

	// The chain is captured for inspection only and never trusted
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true, //nolint:gosec // capture only
		MinVersion:         minVersion,
		MaxVersion:         maxVersion,
	}, nil
}
