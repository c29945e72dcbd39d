package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AllowMethods rejects every verb not listed with 405 and an Allow header
// naming exactly the listed verbs. It runs before authentication, so the
// answer is the same for anonymous callers.
func AllowMethods(methods ...string) echo.MiddlewareFunc {
	allowHeader := strings.Join(methods, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := c.Request().Method
			for _, allowed := range methods {
				if m == allowed {
					return next(c)
				}
			}
			c.Response().Header().Set(echo.HeaderAllow, allowHeader)
			return echo.NewHTTPError(http.StatusMethodNotAllowed, fmt.Sprintf("Method %s Not Allowed", m))
		}
	}
}
