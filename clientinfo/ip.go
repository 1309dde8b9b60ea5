package clientinfo

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ipHeaders are consulted in order before falling back to RemoteAddr.
var ipHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"X-Real-IP",
}

// GetIP returns the client address for r. Proxy headers win over RemoteAddr;
// for X-Forwarded-For the leftmost valid entry is used. IPv6 loopback is
// reported as 127.0.0.1.
func GetIP(r *http.Request) string {
	for _, header := range ipHeaders {
		value := r.Header.Get(header)
		if value == "" || strings.EqualFold(value, "unknown") {
			continue
		}
		for _, candidate := range strings.Split(value, ",") {
			if ip, ok := normalize(candidate); ok {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip, ok := normalize(host); ok {
		return ip
	}
	return r.RemoteAddr
}

func normalize(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil || addr.IsUnspecified() {
		return "", false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() && addr.Is6() {
		return "127.0.0.1", true
	}
	return addr.String(), true
}

// IsInternal reports whether ip is loopback, private or link-local.
func IsInternal(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}
