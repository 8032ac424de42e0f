package starttls

import (
	"net"
	"os"
	"strings"
)

// LocalFQDN returns the name announced in SMTP HELO: the reverse lookup of
// this host's address, falling back to the hostname and then "localhost"
func LocalFQDN() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "localhost"
	}

	addrs, err := net.LookupHost(hostname)
	if err != nil || len(addrs) == 0 {
		return hostname
	}

	names, err := net.LookupAddr(addrs[0])
	if err != nil || len(names) == 0 {
		return hostname
	}

	return strings.TrimSuffix(names[0], ".")
}
