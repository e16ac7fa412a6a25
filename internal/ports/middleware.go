package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/fragstat/internal/logging"
	"github.com/Amund211/fragstat/internal/ratelimiting"
	"github.com/Amund211/fragstat/internal/reporting"
	"github.com/klauspost/compress/gzhttp"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

var gzipWrapper func(http.Handler) http.HandlerFunc

func init() {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.ContentTypes([]string{"application/json"}),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create gzip wrapper: %w", err))
	}
	gzipWrapper = wrapper
}

// NewCompressionMiddleware gzips JSON responses for clients that accept it
func NewCompressionMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return gzipWrapper(next)
	}
}

// RateLimit is the sustained rate and burst allowed per client IP
type RateLimit struct {
	RefillPerSecond ratelimiting.RefillPerSecond
	BurstSize       ratelimiting.BurstSize
}

var (
	readRateLimit  = RateLimit{RefillPerSecond: 8, BurstSize: 480}
	writeRateLimit = RateLimit{RefillPerSecond: 1, BurstSize: 60}
)

func onRateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	writeError(r.Context(), w, http.StatusTooManyRequests, "rate limit exceeded")
}

// buildEndpointMiddleware is the middleware stack shared by every API endpoint
func buildEndpointMiddleware(
	operation string,
	limit RateLimit,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) func(http.HandlerFunc) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(limit.RefillPerSecond, limit.BurstSize)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	return ComposeMiddlewares(
		buildMetricsMiddleware(operation),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(operation),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, onRateLimitExceeded),
		NewCompressionMiddleware(),
	)
}
