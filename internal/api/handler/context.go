package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workforce/login-service/internal/infrastructure/token"
)

// ClaimsKey is the echo context key under which the Auth middleware stores
// the verified *token.Claims.
const ClaimsKey = "claims"

// ctxClaims returns the claims injected by the Auth middleware. Their absence
// means the route was wired without it, which is treated as unauthenticated.
func ctxClaims(c echo.Context) (*token.Claims, error) {
	claims, _ := c.Get(ClaimsKey).(*token.Claims)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
