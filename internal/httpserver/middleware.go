package httpserver

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
)

var tracer = otel.Tracer("finsim-httpserver")

// withTracing wraps a handler in an OTel span named after the route,
// carrying the HTTP method and route as span attributes.
func withTracing(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		))
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// withLogging logs method/route/status/duration at Info level and
// panics at Error level, matching the zap usage elsewhere in the tree.
func withLogging(log *zap.Logger, route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic handling request",
					zap.String("route", route),
					zap.Any("panic", rec),
				)
				writeError(w, ErrValidation)
			}
		}()

		next.ServeHTTP(rw, r)

		log.Info("request completed",
			zap.String("route", route),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// rateLimiter is a sliding-window limiter over Redis, adapted from the
// teacher's per-identifier sorted-set approach (ZREMRANGEBYSCORE +
// ZCARD + ZADD + EXPIRE) but keyed purely by client IP since the
// simulation engine has no authenticated identity or per-function
// config table to key off of.
type rateLimiter struct {
	redis             *redis.Client
	requestsPerMinute int
	window            time.Duration
}

func newRateLimiter(client *redis.Client, requestsPerMinute int) *rateLimiter {
	return &rateLimiter{redis: client, requestsPerMinute: requestsPerMinute, window: time.Minute}
}

func (rl *rateLimiter) allow(r *http.Request) bool {
	if rl == nil || rl.redis == nil {
		return true
	}
	ctx := r.Context()
	key := fmt.Sprintf("finsim:ratelimit:%s", clientIP(r))
	now := time.Now()
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: a Redis outage must not take down the simulation
		// endpoint, only its rate limiting.
		return true
	}
	// count excludes this request, so it is admitted only while fewer
	// than requestsPerMinute requests fall inside the window.
	return int(count.Val()) < rl.requestsPerMinute
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func withRateLimit(rl *rateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r) {
			w.Header().Set("Retry-After", "60")
			writeError(w, fmt.Errorf("%w: rate limit exceeded", ErrValidation))
			return
		}
		next.ServeHTTP(w, r)
	}
}
