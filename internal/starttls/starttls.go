// Package starttls drives the plaintext STARTTLS dialects of SMTP, POP3 and
// IMAP up to the point where the connection is upgraded to TLS.
package starttls

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Protocol is the application protocol spoken before the TLS upgrade
type Protocol string

// Supported protocols
const (
	None Protocol = ""
	SMTP Protocol = "smtp"
	POP3 Protocol = "pop3"
	IMAP Protocol = "imap"
)

// maxLineLength caps a single server reply line
const maxLineLength = 1000

var (
	// ErrNotUpgraded is returned when the server reply did not allow the
	// negotiation to continue
	ErrNotUpgraded = errors.New("starttls negotiation failed")

	// ErrUpgradeFailed is returned when the server accepted STARTTLS but the
	// connection could not be upgraded to TLS
	ErrUpgradeFailed = errors.New("starttls failed: the socket may not have TLS capability")

	// ErrUnknownProtocol is returned for protocols with no STARTTLS dialect
	ErrUnknownProtocol = errors.New("unknown starttls protocol")
)

// ReplyError describes a server reply that did not carry the expected prefix
type ReplyError struct {
	Protocol Protocol
	Expected string
	Got      string
	Step     int
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s starttls step %d: expected reply starting with %q, got %q",
		e.Protocol, e.Step, e.Expected, e.Got)
}

// Is matches ErrNotUpgraded
func (e *ReplyError) Is(target error) bool {
	return target == ErrNotUpgraded
}

// ProtocolForPort returns the STARTTLS protocol used on a well-known
// plaintext port, or None for ports that speak TLS directly
func ProtocolForPort(port string) Protocol {
	switch strings.TrimSpace(port) {
	case "25", "587":
		return SMTP
	case "143":
		return IMAP
	case "110":
		return POP3
	}
	return None
}

// UpgradeFunc performs the in-place TLS upgrade and returns the writer to use
// for any commands sent after the upgrade
type UpgradeFunc func() (io.Writer, error)

// step is one expect/send exchange of a dialect
type step struct {
	expect string
	send   string
}

// dialect is the linear state machine for one protocol
type dialect struct {
	steps []step
	quit  string
}

// Each step reads one line and requires the prefix; the last step's send
// is empty because the upgrade happens right after it.
var dialects = map[Protocol]dialect{
	SMTP: {
		steps: []step{
			{expect: "220 ", send: "HELO %s"},
			{expect: "250 ", send: "STARTTLS"},
			{expect: "220 "},
		},
		quit: "QUIT",
	},
	POP3: {
		steps: []step{
			{expect: "+OK", send: "STLS"},
			{expect: "+OK "},
		},
		quit: "QUIT",
	},
	IMAP: {
		steps: []step{
			{expect: "* OK ", send: ". STARTTLS"},
			{expect: ". OK "},
		},
		quit: ". LOGOUT",
	},
}

// Negotiate runs the STARTTLS exchange for proto over rw. When the server
// replies as expected at every step, upgrade is called and the protocol's
// goodbye command is written on the upgraded connection.
//
// A reply without the expected prefix stops the exchange without writing
// anything further and returns a *ReplyError matching ErrNotUpgraded.
func Negotiate(rw io.ReadWriter, proto Protocol, heloName string, upgrade UpgradeFunc) error {
	d, ok := dialects[proto]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProtocol, string(proto))
	}

	for i, s := range d.steps {
		line, err := readLine(rw)
		if err != nil {
			return fmt.Errorf("%s starttls step %d: %w", proto, i+1, err)
		}

		if !strings.HasPrefix(line, s.expect) {
			return &ReplyError{Protocol: proto, Step: i + 1, Expected: s.expect, Got: line}
		}

		if s.send == "" {
			continue
		}

		cmd := s.send
		if strings.Contains(cmd, "%s") {
			cmd = fmt.Sprintf(cmd, heloName)
		}
		if err := writeLine(rw, cmd); err != nil {
			return fmt.Errorf("%s starttls step %d: %w", proto, i+1, err)
		}
	}

	w, err := upgrade()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpgradeFailed, err)
	}

	// Let the server know we are done; failure here does not matter
	_ = writeLine(w, d.quit)

	return nil
}

func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\r\n")
	return err
}

// readLine reads a single line one byte at a time so that no bytes past the
// newline are consumed before the TLS handshake takes over the connection.
// The returned line has its line terminator removed.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)

	for sb.Len() < maxLineLength {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			return "", err
		}
	}

	return sb.String(), nil
}
