package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Logger logs each request using zap.
func Logger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrapResponseWriter(w)

			next.ServeHTTP(ww, r)

			requestID, _ := GetRequestID(r.Context())
			log.Info("request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.statusCode),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", clientIP(r)),
			)
		})
	}
}
