package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects authenticated requests whose token does not carry
// the expected role. Runs after JWT, which populates the context.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch value, _ := c.Get(ContextKeyUserRole).(string); {
			case value == "":
				return c.JSON(http.StatusForbidden, map[string]string{"error": "missing role"})
			case value != role:
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			default:
				return next(c)
			}
		}
	}
}
