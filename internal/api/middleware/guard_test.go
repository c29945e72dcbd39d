package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

type stubResolver struct {
	projects map[string]*domain.Project
	calls    int
}

func (r *stubResolver) Resolve(_ context.Context, principal *domain.Principal, ident string) (*domain.Project, error) {
	r.calls++
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	p, ok := r.projects[ident]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	if !principal.CanAccess(p) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func guardContext(p *domain.Principal, slug string) echo.Context {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("slug")
	c.SetParamValues(slug)
	if p != nil {
		SetPrincipal(c, p)
	}
	return c
}

func TestProjectGuard(t *testing.T) {
	acme := &domain.Project{Slug: "acme", Domain: "acme.link", OwnerID: "owner"}

	cases := []struct {
		name      string
		principal *domain.Principal
		slug      string
		wantErr   error
	}{
		{name: "owner", principal: &domain.Principal{ID: "owner"}, slug: "acme"},
		{name: "superadmin", principal: &domain.Principal{ID: "root", Superadmin: true}, slug: "acme"},
		{name: "other user", principal: &domain.Principal{ID: "mallory"}, slug: "acme", wantErr: domain.ErrForbidden},
		{name: "anonymous", slug: "acme", wantErr: domain.ErrUnauthorized},
		{name: "unknown project", principal: &domain.Principal{ID: "owner"}, slug: "nope", wantErr: domain.ErrProjectNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &stubResolver{projects: map[string]*domain.Project{"acme": acme}}
			guard := NewProjectGuard(resolver)

			var got *domain.Project
			h := guard.WithProject(func(c echo.Context, project *domain.Project) error {
				got = project
				return nil
			})

			err := h(guardContext(tc.principal, tc.slug))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if got != nil {
					t.Fatalf("handler must not run on denial")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || got.Slug != "acme" {
				t.Fatalf("expected acme project, got %+v", got)
			}
		})
	}
}

func TestProjectGuard_AnonymousSkipsLookup(t *testing.T) {
	resolver := &stubResolver{}
	h := NewProjectGuard(resolver).WithProject(func(c echo.Context, project *domain.Project) error {
		return nil
	})

	if err := h(guardContext(nil, "acme")); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if resolver.calls != 0 {
		t.Fatalf("resolver should not be called for anonymous requests")
	}
}
