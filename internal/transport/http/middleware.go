package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/util"
)

const contextClaimsKey = "auth.claims"

type TokenParser interface {
	Parse(token string) (*util.Claims, error)
}

func RequireAuth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return respondError(c, http.StatusUnauthorized, codeUnauthorized, "Missing authorization header")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return respondError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid authorization header")
			}
			claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return respondError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired token")
			}
			c.Set(contextClaimsKey, claims)
			return next(c)
		}
	}
}

func CurrentClaims(c echo.Context) (*util.Claims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*util.Claims)
	return claims, ok && claims != nil
}
