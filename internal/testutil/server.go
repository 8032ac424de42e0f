package testutil

import (
	"bufio"
	"crypto/tls"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// Script is one step of a plaintext STARTTLS conversation: the server
// sends Reply (if any), then waits for a client line when Expect is true.
type Script struct {
	Reply  string
	Expect bool
}

// Server is a local TCP listener that either speaks TLS immediately or runs
// a scripted plaintext exchange before upgrading.
type Server struct {
	Listener net.Listener
	received []string
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// Addr returns the listener address
func (s *Server) Addr() string {
	return s.Listener.Addr().String()
}

// Received returns the client lines seen so far, including post-upgrade ones
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}

// WaitReceived polls until at least n client lines were recorded or the
// timeout expires, and returns what was recorded
func (s *Server) WaitReceived(n int, timeout time.Duration) []string {
	deadline := time.Now().Add(timeout)
	for {
		got := s.Received()
		if len(got) >= n || time.Now().After(deadline) {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Close stops the listener and waits for connection handlers to exit
func (s *Server) Close() {
	s.Listener.Close()
	s.wg.Wait()
}

func (s *Server) record(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, strings.TrimRight(line, "\r\n"))
}

// NewTLSServer accepts connections and completes a TLS handshake directly
func NewTLSServer(t testing.TB, cfg *tls.Config) *Server {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &Server{Listener: ln}
	s.serve(func(c net.Conn) {
		if tc, ok := c.(*tls.Conn); ok {
			_ = tc.Handshake()
		}
	})
	t.Cleanup(s.Close)
	return s
}

// NewPlainServer accepts connections and never speaks TLS
func NewPlainServer(t testing.TB, banner string) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &Server{Listener: ln}
	s.serve(func(c net.Conn) {
		if banner != "" {
			_, _ = c.Write([]byte(banner))
		}
		r := bufio.NewReader(c)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			s.record(line)
		}
	})
	t.Cleanup(s.Close)
	return s
}

// NewStartTLSServer runs script over plaintext; when upgrade is true and
// the script completes, the connection is upgraded with cfg and any further
// client lines are recorded.
func NewStartTLSServer(t testing.TB, cfg *tls.Config, script []Script, upgrade bool) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &Server{Listener: ln}
	s.serve(func(c net.Conn) {
		for _, step := range script {
			if step.Reply != "" {
				if _, err := c.Write([]byte(step.Reply + "\r\n")); err != nil {
					return
				}
			}
			if step.Expect {
				line, err := readLine(c)
				if err != nil {
					return
				}
				s.record(line)
			}
		}
		if !upgrade {
			// Drain anything else the client sends
			for {
				line, err := readLine(c)
				if err != nil {
					return
				}
				s.record(line)
			}
		}
		tc := tls.Server(c, cfg)
		if err := tc.Handshake(); err != nil {
			return
		}
		r := bufio.NewReader(tc)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			s.record(line)
		}
	})
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(handle func(net.Conn)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			c, err := s.Listener.Accept()
			if err != nil {
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer c.Close()
				_ = c.SetDeadline(time.Now().Add(5 * time.Second))
				handle(c)
			}()
		}
	}()
}

// readLine reads up to and including '\n' without buffering past it, so the
// connection can be handed to tls.Server afterwards.
func readLine(c net.Conn) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		if _, err := c.Read(buf); err != nil {
			return sb.String(), err
		}
		sb.WriteByte(buf[0])
		if buf[0] == '\n' {
			return sb.String(), nil
		}
	}
}
