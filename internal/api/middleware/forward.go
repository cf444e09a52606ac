package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/workforce/login-service/internal/infrastructure/employee"
)

// ForwardAuthorization copies the caller's Authorization header into the
// request context so the employee client can pass it on.
func ForwardAuthorization() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(employee.WithAuthorization(req.Context(), h)))
			}
			return next(c)
		}
	}
}
