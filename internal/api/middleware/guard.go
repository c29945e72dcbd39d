package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/core/domain"
	"github.com/99minutos/link-dashboard/internal/pkg/metrics"
)

// ProjectResolver resolves a project identifier and authorizes the caller.
type ProjectResolver interface {
	Resolve(ctx context.Context, principal *domain.Principal, ident string) (*domain.Project, error)
}

// ProjectHandlerFunc is a handler that runs on an already verified project.
type ProjectHandlerFunc func(c echo.Context, project *domain.Project) error

// ProjectGuard mediates every project-scoped request: it reads the
// authenticated principal, resolves the :slug path parameter and checks
// ownership (or superadmin) before the wrapped handler sees the project.
type ProjectGuard struct {
	resolver ProjectResolver
	param    string
}

// NewProjectGuard returns a guard reading the project from the "slug" path parameter.
func NewProjectGuard(resolver ProjectResolver) *ProjectGuard {
	return &ProjectGuard{resolver: resolver, param: "slug"}
}

// WithProject wraps h so it only runs for an authorized principal, with the
// resolved project passed in. Failures are returned as domain errors for the
// HTTP error handler to map.
func (g *ProjectGuard) WithProject(h ProjectHandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal := PrincipalFrom(c)
		if principal == nil {
			metrics.AccessDenialsTotal.WithLabelValues("unauthorized").Inc()
			return domain.ErrUnauthorized
		}

		project, err := g.resolver.Resolve(c.Request().Context(), principal, c.Param(g.param))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrForbidden):
				metrics.AccessDenialsTotal.WithLabelValues("forbidden").Inc()
			case errors.Is(err, domain.ErrProjectNotFound):
				metrics.AccessDenialsTotal.WithLabelValues("not_found").Inc()
			case errors.Is(err, domain.ErrUnauthorized):
				metrics.AccessDenialsTotal.WithLabelValues("unauthorized").Inc()
			}
			return err
		}

		return h(c, project)
	}
}
