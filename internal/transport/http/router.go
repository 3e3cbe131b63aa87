package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type HealthChecker interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	AllowOrigins   []string
	Logger         *zap.Logger
	Health         HealthChecker
	MetricsEnabled bool
	// TrustedProxies are CIDRs whose X-Forwarded-For entries are believed in
	// addition to loopback and private ranges.
	TrustedProxies []*net.IPNet
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(cfg.TrustedProxies)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range allowOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	e.Use(middleware.RequestID())
	if cfg.MetricsEnabled {
		registerMetrics(e)
	}
	registerLogging(e, logger)

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
			echo.HeaderXRequestedWith,
		},
		AllowCredentials: allowCredentials,
	}))

	e.GET("/health", func(c echo.Context) error {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Health.PingContext(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"ok": false, "database": "unreachable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	return e
}

// ipExtractor walks X-Forwarded-For from the right and stops at the first
// untrusted hop, so a client cannot pick its own RealIP.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	opts := make([]echo.TrustOption, 0, len(trusted))
	for _, ipRange := range trusted {
		opts = append(opts, echo.TrustIPRange(ipRange))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
