package handler

import (
	"net"
	"net/http"
	"strings"
)

// clientIP returns the best guess at the submitting browser's address:
// the first X-Forwarded-For hop, then X-Real-IP, then the connection's
// remote host. Empty when none is usable.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestBaseURL returns scheme://host as the client addressed this server.
// A reverse proxy's X-Forwarded-Proto takes precedence over the local TLS
// state.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		scheme = strings.TrimSpace(first)
	}
	return scheme + "://" + r.Host
}
