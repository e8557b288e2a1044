package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

const ClientIPKey contextKey = "clientIP"

// ClientIPMiddleware resolves the address rate limiting and access logs key
// on. X-Forwarded-For is honored only when trustForwarded is set, and then
// only its last entry, which is the one the fronting proxy appended.
func ClientIPMiddleware(trustForwarded bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteIP(r)
			if trustForwarded {
				if forwarded := lastForwarded(r.Header.Get("X-Forwarded-For")); forwarded != "" {
					ip = forwarded
				}
			}
			ctx := context.WithValue(r.Context(), ClientIPKey, ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ClientIPKey).(string); ok {
		return ip
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func lastForwarded(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
