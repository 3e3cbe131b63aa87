package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitPrefix = "propertyhub:auth:ratelimit"

// NewLimiterStore returns a Redis-backed store when redisURL is set so that
// limits are shared between replicas, and an in-process store otherwise.
// The returned close func releases the Redis client.
func NewLimiterStore(ctx context.Context, redisURL string) (limiter.Store, func() error, error) {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix}), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("rate limit: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("rate limit: redis ping: %w", err)
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix, MaxRetry: 3})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("rate limit: redis store: %w", err)
	}
	return store, client.Close, nil
}

// RateLimit limits requests per c.RealIP(), which depends on the router's
// IPExtractor rather than raw client headers. rate uses the limiter's
// formatted syntax, e.g. "10-M" for ten per minute.
func RateLimit(store limiter.Store, rate string) (echo.MiddlewareFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	instance := limiter.New(store, parsed)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lctx, err := instance.Get(c.Request().Context(), c.RealIP())
			if err != nil {
				return respondError(c, http.StatusInternalServerError, codeInternal, "Internal server error")
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				return respondError(c, http.StatusTooManyRequests, codeRateLimited, "Too many requests, please try again later")
			}
			return next(c)
		}
	}, nil
}
