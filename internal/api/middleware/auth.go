package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

const principalKey = "principal"

// principalClaims is the token payload issued by the auth service.
type principalClaims struct {
	Email      string `json:"email"`
	Type       string `json:"type"`
	Superadmin bool   `json:"superadmin"`
	jwt.RegisteredClaims
}

// Auth validates the bearer JWT and stores the resulting principal in the
// echo context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := &principalClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tkn.Valid || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			kind := domain.PrincipalType(claims.Type)
			if !kind.Valid() {
				kind = domain.PrincipalUser
			}
			SetPrincipal(c, &domain.Principal{
				ID:         claims.Subject,
				Email:      claims.Email,
				Superadmin: claims.Superadmin,
				Type:       kind,
			})

			return next(c)
		}
	}
}

// SetPrincipal stores p as the request's authenticated principal.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the authenticated principal, or nil when the request
// is anonymous.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}
