package httputil

import (
	"net"
	"net/http"
	"strings"
)

type uaToken struct {
	needle string
	name   string
}

// Order matters: Edge and Chrome both advertise Safari, Android advertises Linux.
var (
	browserTokens = []uaToken{
		{"Edg/", "Edge"},
		{"OPR/", "Opera"},
		{"Firefox/", "Firefox"},
		{"Chrome/", "Chrome"},
		{"Safari/", "Safari"},
	}
	osTokens = []uaToken{
		{"Windows", "Windows"},
		{"Android", "Android"},
		{"iPhone", "iOS"},
		{"iPad", "iOS"},
		{"Mac OS X", "macOS"},
		{"Linux", "Linux"},
	}
)

// DeviceInfo summarises the User-Agent as "<browser> on <os>".
func DeviceInfo(r *http.Request) string {
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		return "Unknown Device"
	}
	return match(ua, browserTokens) + " on " + match(ua, osTokens)
}

func match(ua string, tokens []uaToken) string {
	for _, t := range tokens {
		if strings.Contains(ua, t.needle) {
			return t.name
		}
	}
	return "Unknown"
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
