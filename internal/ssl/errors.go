package ssl

import (
	"errors"

	"github.com/certwatch-app/cw-certshow/internal/certinfo"
)

var (
	// ErrInvalidArgument marks unusable caller input, such as an empty host
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConnection marks transport failures: refused or timed out connects,
	// failed TLS handshakes, failed STARTTLS negotiation
	ErrConnection = errors.New("connection error")

	// ErrUnexpectedProtocolState marks a remote that accepted STARTTLS on a
	// transport that could not be upgraded to TLS
	ErrUnexpectedProtocolState = errors.New("unexpected protocol state")

	// ErrProcessFailed marks a subprocess that exited non-zero
	ErrProcessFailed = errors.New("process failed")

	// ErrProcessTimedOut marks a subprocess that exceeded its timeout
	ErrProcessTimedOut = errors.New("process timed out")

	// ErrHTTP marks an issuer download that failed or returned non-2xx
	ErrHTTP = errors.New("http error")

	// ErrParse marks certificate bytes that could not be decoded
	ErrParse = certinfo.ErrParse
)

// Classifier decides whether a per-question error is recoverable.
// Recoverable errors become an empty Result; all others abort the batch.
type Classifier func(err error) bool

// Recoverable returns a Classifier accepting any error that matches one of
// the given categories
func Recoverable(categories ...error) Classifier {
	return func(err error) bool {
		for _, c := range categories {
			if errors.Is(err, c) {
				return true
			}
		}
		return false
	}
}
