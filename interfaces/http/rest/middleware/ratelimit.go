package middleware

import (
	"net"
	"net/http"
	"strconv"

	"causaldiscovery/pkg/common"
	"causaldiscovery/pkg/errors"
	"causaldiscovery/pkg/ratelimit"

	"go.uber.org/zap"
)

// RateLimit rejects clients that exceed the limiter's budget with 429.
// Limiter errors are logged and the request proceeds.
func RateLimit(limiter ratelimit.Limiter, errHandler *errors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("Rate limiter failed", zap.String("client", key), zap.Error(err))
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
				errHandler.Handle(w, r, common.ExtractRequestID(r), errors.NewRateLimitedError(limiter.Window()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey is the caller address; RealIP has already applied forwarding headers
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
