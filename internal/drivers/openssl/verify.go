package openssl

import (
	"regexp"
	"strings"

	"github.com/certwatch-app/cw-certshow/internal/ssl"
)

const verifyNeedle = "verify return code"

var verifyPattern = regexp.MustCompile(`([0-9]{1,2})\s\((.*)\)`)

// ParseVerification extracts the "Verify return code: N (message)" line
// from a handshake transcript. It returns nil when no such line exists.
func ParseVerification(transcript string) *ssl.Verification {
	for _, l := range strings.Split(transcript, "\n") {
		line := strings.ToLower(strings.TrimSpace(l))
		if !strings.HasPrefix(line, verifyNeedle) {
			continue
		}

		m := verifyPattern.FindStringSubmatch(line)
		if len(m) == 3 {
			return &ssl.Verification{
				Code:    m[1],
				Message: m[2],
			}
		}
	}

	return nil
}
