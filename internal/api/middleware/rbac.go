package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// RBAC admits principals whose type is in allowedTypes. Superadmins are
// always admitted.
func RBAC(allowedTypes ...domain.PrincipalType) echo.MiddlewareFunc {
	allowed := make(map[domain.PrincipalType]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return domain.ErrUnauthorized
			}
			if _, ok := allowed[p.Type]; !ok && !p.Superadmin {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
