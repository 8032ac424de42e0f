// Package ssl defines the lookup model shared by every certificate driver:
// questions, options, results, the Driver contract and the batch runner.
package ssl

import (
	"context"
	"net"
	"strings"

	"github.com/certwatch-app/cw-certshow/internal/certinfo"
)

// DefaultPort is used when a question does not name a port
const DefaultPort = "443"

// Question is a single (host, port) lookup target
type Question struct {
	Host string `json:"host" mapstructure:"host"`
	Port string `json:"port" mapstructure:"port"`
}

// Address returns host:port suitable for dialing
func (q Question) Address() string {
	return net.JoinHostPort(q.Host, q.Port)
}

// Single normalizes one host/port pair into a one-element batch
func Single(host, port string) []Question {
	if port == "" {
		port = DefaultPort
	}
	return []Question{{Host: host, Port: port}}
}

// ParseTarget parses "host", "host:port" or "[ipv6]:port" into a Question.
// URLs, as used for id-ad-caIssuers lookups, are kept whole as the host.
func ParseTarget(s string) Question {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "://") {
		return Question{Host: s}
	}
	if host, port, err := net.SplitHostPort(s); err == nil {
		return Question{Host: host, Port: port}
	}
	return Question{Host: strings.Trim(s, "[]")}
}

// Verification is the verify return code reported by a handshake transcript
type Verification struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the answer to one Question.
// Fields are ordered for optimal memory alignment
type Result struct {
	Certificate  *certinfo.Certificate   `json:"certificate"`
	Verification *Verification           `json:"verification"`
	Chain        []*certinfo.Certificate `json:"chain,omitempty"`
	Question     Question                `json:"question"`
	Error        string                  `json:"error,omitempty"`
}

// OK reports whether the lookup produced any certificate
func (r *Result) OK() bool {
	return r.Certificate != nil || len(r.Chain) > 0
}

// Leaf returns the end-entity certificate of the result, if any
func (r *Result) Leaf() *certinfo.Certificate {
	if r.Certificate != nil {
		return r.Certificate
	}
	if len(r.Chain) > 0 {
		return r.Chain[0]
	}
	return nil
}

// Driver retrieves certificates for a batch of questions
type Driver interface {
	// Name returns the configured name of the driver
	Name() string
	// Show answers every question, one result per question in input order.
	// Only caller errors such as ErrInvalidArgument abort the batch.
	Show(ctx context.Context, questions []Question, opts Options) ([]Result, error)
}
