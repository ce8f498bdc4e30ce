package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
)

const (
	sessionCookieName = "sessionid"
	sessionHeader     = "X-Session-ID"
)

// RequestContextFrom extracts the optional visitor details the analytics core records
func RequestContextFrom(r *http.Request) *domain.RequestContext {
	return &domain.RequestContext{
		SessionID: sessionID(r),
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func sessionID(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(sessionHeader)
}

// clientIP prefers the first X-Forwarded-For hop, then the socket address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
