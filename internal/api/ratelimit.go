package api

import (
	"log/slog"
	"net"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	"github.com/bookster/catalog-server/internal/http/response"
	"github.com/bookster/catalog-server/internal/ratelimit"
)

// rateLimitMiddleware rejects operations from a client IP that exceeds
// limiter with 429 Too Many Requests. A nil limiter allows everything.
func rateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if limiter == nil {
			next(ctx)
			return
		}

		key := clientIP(ctx.RemoteAddr())
		if limiter.Allow(key) {
			next(ctx)
			return
		}

		logger.Warn("rate limit exceeded", "ip", key, "path", ctx.URL().Path)
		_, w := humachi.Unwrap(ctx)
		response.TooManyRequests(w, "Too many requests. Please try again later.", limiter.RetryAfter(), logger)
	}
}

// clientIP strips the port from a remote address. chi's RealIP middleware
// has already applied X-Forwarded-For and X-Real-IP.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
