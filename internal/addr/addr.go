// Package addr parses the "host:port" server addresses accepted by
// both clients. The port is the substring after the last ':', so
// bracketed IPv6 forms like "[::1]:6379" parse with host="[::1]".
package addr

import (
	"strconv"
	"strings"

	"github.com/lalinsky/gocache/cacheerr"
)

// Parse splits s into host and port on the last ':'. A missing colon
// or a non-numeric port returns a *cacheerr.Error of Kind InvalidServer.
func Parse(s string) (host string, port int, err error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", 0, cacheerr.New(cacheerr.InvalidServer, "missing port in "+s)
	}
	host = s[:i]
	portStr := s[i+1:]
	port, perr := strconv.Atoi(portStr)
	if perr != nil || port < 0 || port > 65535 {
		return "", 0, cacheerr.New(cacheerr.InvalidServer, "invalid port in "+s)
	}
	return host, port, nil
}

// Format is the inverse of Parse: fmt(host, port) round-trips through
// Parse for host in {"localhost", "[::1]", "127.0.0.1"}.
func Format(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}
