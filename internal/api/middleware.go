package api

import (
	"net/http"
	"strings"

	"github.com/seslikitap/seslikitap-server/internal/http/response"
)

// rateLimitMutations applies the keyed limiter to mutating requests. Reads
// and the SSE stream are never limited.
func (s *Server) rateLimitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key := clientIP(r)
		if !s.limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
			response.TooManyRequests(w, "too many requests, slow down", s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address for rate limit keying. RealIP
// middleware already folds X-Forwarded-For / X-Real-IP into RemoteAddr.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i >= 0 {
		return ip[:i]
	}
	return ip
}
