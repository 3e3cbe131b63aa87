package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
)

// clientIP prefers the first X-Forwarded-For hop, then echo's RealIP. It is
// recorded for audit only and must not be used for rate limiting.
func clientIP(c echo.Context) string {
	if forwarded := c.Request().Header.Get(echo.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.RealIP()
}

func requestMeta(c echo.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        clientIP(c),
		UserAgent: c.Request().UserAgent(),
	}
}
