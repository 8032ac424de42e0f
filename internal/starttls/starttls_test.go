package starttls

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// scripted is a fake plaintext connection: reads come from a canned server
// transcript and writes are recorded.
type scripted struct {
	in  *strings.Reader
	out bytes.Buffer
}

func newScripted(lines ...string) *scripted {
	return &scripted{in: strings.NewReader(strings.Join(lines, ""))}
}

func (s *scripted) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *scripted) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s *scripted) sent() []string {
	return splitLines(s.out.String())
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\r\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\r\n")
}

// upgrader records whether the upgrade happened and what was sent after it
type upgrader struct {
	after  bytes.Buffer
	err    error
	called bool
}

func (u *upgrader) upgrade() (io.Writer, error) {
	u.called = true
	if u.err != nil {
		return nil, u.err
	}
	return &u.after, nil
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProtocolForPort(t *testing.T) {
	tests := []struct {
		port string
		want Protocol
	}{
		{"25", SMTP},
		{"587", SMTP},
		{"143", IMAP},
		{"110", POP3},
		{"443", None},
		{"465", None},
		{"993", None},
		{"", None},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			if got := ProtocolForPort(tt.port); got != tt.want {
				t.Errorf("ProtocolForPort(%q) = %q, want %q", tt.port, got, tt.want)
			}
		})
	}
}

func TestNegotiate_SMTP(t *testing.T) {
	conn := newScripted("220 ready\r\n", "250 ok\r\n", "220 go ahead\r\n")
	u := &upgrader{}

	if err := Negotiate(conn, SMTP, "client.example.test", u.upgrade); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	wantSent := []string{"HELO client.example.test", "STARTTLS"}
	if got := conn.sent(); !equalLines(got, wantSent) {
		t.Errorf("sent = %q, want %q", got, wantSent)
	}
	if !u.called {
		t.Error("upgrade was not called")
	}
	if got := splitLines(u.after.String()); !equalLines(got, []string{"QUIT"}) {
		t.Errorf("sent after upgrade = %q, want [QUIT]", got)
	}
}

func TestNegotiate_SMTPStopsOnBadHeloReply(t *testing.T) {
	conn := newScripted("220 ready\r\n", "550 go away\r\n")
	u := &upgrader{}

	err := Negotiate(conn, SMTP, "client.example.test", u.upgrade)
	if !errors.Is(err, ErrNotUpgraded) {
		t.Fatalf("Negotiate() error = %v, want ErrNotUpgraded", err)
	}

	var replyErr *ReplyError
	if !errors.As(err, &replyErr) {
		t.Fatalf("Negotiate() error type = %T, want *ReplyError", err)
	}
	if replyErr.Step != 2 {
		t.Errorf("Step = %d, want 2", replyErr.Step)
	}
	if replyErr.Got != "550 go away" {
		t.Errorf("Got = %q, want %q", replyErr.Got, "550 go away")
	}

	if got := conn.sent(); !equalLines(got, []string{"HELO client.example.test"}) {
		t.Errorf("sent = %q, want only HELO", got)
	}
	if u.called {
		t.Error("upgrade was called, want not called")
	}
}

func TestNegotiate_SMTPRequiresSpaceAfterCode(t *testing.T) {
	// Multi-line greeting continuation is not accepted as the greeting
	conn := newScripted("220-first line\r\n")
	err := Negotiate(conn, SMTP, "h", (&upgrader{}).upgrade)
	if !errors.Is(err, ErrNotUpgraded) {
		t.Errorf("Negotiate() error = %v, want ErrNotUpgraded", err)
	}
	if len(conn.sent()) != 0 {
		t.Errorf("sent = %q, want nothing", conn.sent())
	}
}

func TestNegotiate_POP3(t *testing.T) {
	conn := newScripted("+OK POP3 ready\r\n", "+OK Begin TLS\r\n")
	u := &upgrader{}

	if err := Negotiate(conn, POP3, "unused", u.upgrade); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	if got := conn.sent(); !equalLines(got, []string{"STLS"}) {
		t.Errorf("sent = %q, want [STLS]", got)
	}
	if got := splitLines(u.after.String()); !equalLines(got, []string{"QUIT"}) {
		t.Errorf("sent after upgrade = %q, want [QUIT]", got)
	}
}

func TestNegotiate_POP3Rejected(t *testing.T) {
	conn := newScripted("+OK POP3 ready\r\n", "-ERR not supported\r\n")
	u := &upgrader{}

	err := Negotiate(conn, POP3, "unused", u.upgrade)
	if !errors.Is(err, ErrNotUpgraded) {
		t.Errorf("Negotiate() error = %v, want ErrNotUpgraded", err)
	}
	if u.called {
		t.Error("upgrade was called, want not called")
	}
}

func TestNegotiate_IMAP(t *testing.T) {
	conn := newScripted("* OK IMAP4rev1 ready\r\n", ". OK Begin TLS negotiation now\r\n")
	u := &upgrader{}

	if err := Negotiate(conn, IMAP, "unused", u.upgrade); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	if got := conn.sent(); !equalLines(got, []string{". STARTTLS"}) {
		t.Errorf("sent = %q, want [. STARTTLS]", got)
	}
	if got := splitLines(u.after.String()); !equalLines(got, []string{". LOGOUT"}) {
		t.Errorf("sent after upgrade = %q, want [. LOGOUT]", got)
	}
}

func TestNegotiate_IMAPBadGreeting(t *testing.T) {
	conn := newScripted("* BYE go away\r\n")
	err := Negotiate(conn, IMAP, "unused", (&upgrader{}).upgrade)
	if !errors.Is(err, ErrNotUpgraded) {
		t.Errorf("Negotiate() error = %v, want ErrNotUpgraded", err)
	}
	if len(conn.sent()) != 0 {
		t.Errorf("sent = %q, want nothing", conn.sent())
	}
}

func TestNegotiate_UpgradeFailure(t *testing.T) {
	conn := newScripted("+OK ready\r\n", "+OK go\r\n")
	u := &upgrader{err: errors.New("handshake failure")}

	err := Negotiate(conn, POP3, "unused", u.upgrade)
	if !errors.Is(err, ErrUpgradeFailed) {
		t.Errorf("Negotiate() error = %v, want ErrUpgradeFailed", err)
	}
	if errors.Is(err, ErrNotUpgraded) {
		t.Error("upgrade failure must not match ErrNotUpgraded")
	}
}

func TestNegotiate_ConnectionClosed(t *testing.T) {
	conn := newScripted()
	err := Negotiate(conn, SMTP, "h", (&upgrader{}).upgrade)
	if !errors.Is(err, io.EOF) {
		t.Errorf("Negotiate() error = %v, want io.EOF", err)
	}
}

func TestNegotiate_UnknownProtocol(t *testing.T) {
	err := Negotiate(newScripted(), None, "h", (&upgrader{}).upgrade)
	if !errors.Is(err, ErrUnknownProtocol) {
		t.Errorf("Negotiate() error = %v, want ErrUnknownProtocol", err)
	}
}

func TestReadLine(t *testing.T) {
	r := strings.NewReader("first\r\nsecond\nthird")

	for _, want := range []string{"first", "second", "third"} {
		got, err := readLine(r)
		if err != nil {
			t.Fatalf("readLine() error = %v", err)
		}
		if got != want {
			t.Errorf("readLine() = %q, want %q", got, want)
		}
	}

	// The reader must not consume past the newline
	r = strings.NewReader("line\nrest")
	if _, err := readLine(r); err != nil {
		t.Fatalf("readLine() error = %v", err)
	}
	if r.Len() != len("rest") {
		t.Errorf("remaining = %d bytes, want %d", r.Len(), len("rest"))
	}
}

func TestReadLine_Cap(t *testing.T) {
	long := strings.Repeat("a", 1500) + "\n"
	got, err := readLine(strings.NewReader(long))
	if err != nil {
		t.Fatalf("readLine() error = %v", err)
	}
	if len(got) != maxLineLength {
		t.Errorf("len(readLine()) = %d, want %d", len(got), maxLineLength)
	}
}

func TestLocalFQDN(t *testing.T) {
	if LocalFQDN() == "" {
		t.Error("LocalFQDN() returned empty string")
	}
}
