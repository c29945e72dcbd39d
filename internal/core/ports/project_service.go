package ports

import (
	"context"
	"time"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// CreateProjectInput carries the data needed to register a project.
type CreateProjectInput struct {
	Slug   string
	Name   string
	Domain string
}

// ProjectService defines the project-scoped use cases exposed over HTTP.
type ProjectService interface {
	// Resolve finds the project named by ident (slug or domain) and checks
	// that principal may act on it.
	Resolve(ctx context.Context, principal *domain.Principal, ident string) (*domain.Project, error)
	LinkCount(ctx context.Context, project *domain.Project) (int64, error)
	RandomLink(ctx context.Context, project *domain.Project) (key string, ok bool, err error)
	DomainExists(ctx context.Context, candidate string) (bool, error)
	UpdateDomain(ctx context.Context, project *domain.Project, newDomain string) (*domain.Project, error)
	CreateProject(ctx context.Context, principal *domain.Principal, in CreateProjectInput) (*domain.Project, error)
}

// MigrationRepairer completes or reverts renames left behind by failures.
type MigrationRepairer interface {
	RepairMigration(ctx context.Context, m domain.Migration) error
	// RepairMigrations repairs every marker older than grace and returns how
	// many were cleared.
	RepairMigrations(ctx context.Context, grace time.Duration) (int, error)
	// StaleMigrations lists markers older than grace.
	StaleMigrations(ctx context.Context, grace time.Duration) ([]domain.Migration, error)
}
