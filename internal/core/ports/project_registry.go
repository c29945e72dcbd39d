package ports

import (
	"context"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// ProjectRegistry persists project records.
type ProjectRegistry interface {
	// Create inserts p. A taken slug yields domain.ErrProjectExists and a
	// taken domain domain.ErrDomainConflict.
	Create(ctx context.Context, p *domain.Project) error
	FindBySlug(ctx context.Context, slug string) (*domain.Project, error)
	FindByDomain(ctx context.Context, domain string) (*domain.Project, error)
	// SwapDomain sets the project's domain to newDomain only if it currently
	// equals oldDomain, returning the updated record.
	SwapDomain(ctx context.Context, slug, oldDomain, newDomain string) (*domain.Project, error)
}
