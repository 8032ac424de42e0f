package openssl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/certwatch-app/cw-certshow/internal/ssl"
)

// Runner executes an external command with the given stdin and returns its
// stdout. Implementations report a non-zero exit as ssl.ErrProcessFailed
// and an expired context deadline as ssl.ErrProcessTimedOut.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner. Stderr is discarded; only the exit status matters.
func (ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = time.Second

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", ssl.ErrProcessTimedOut, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ssl.ErrProcessFailed, name, err)
	}

	return stdout.Bytes(), nil
}
