package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/link-dashboard/internal/core/domain"
	"github.com/99minutos/link-dashboard/internal/core/ports"
)

// ProjectService implements the project-scoped use cases on top of the link
// store, the project registry and the migration markers.
type ProjectService struct {
	links    ports.LinkStore
	registry ports.ProjectRegistry
	markers  ports.MigrationMarkers
	log      zerolog.Logger
	now      func() time.Time
	newToken func() string

	// repairGrace is the youngest marker the repair pass may touch. A rename
	// gives up well before its marker gets that old.
	repairGrace time.Duration
}

// NewProjectService wires the service. repairGrace must exceed the time a
// single rename may take; zero disables both the floor and the rename deadline.
func NewProjectService(
	links ports.LinkStore,
	registry ports.ProjectRegistry,
	markers ports.MigrationMarkers,
	repairGrace time.Duration,
	log zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		links:       links,
		registry:    registry,
		markers:     markers,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		newToken:    uuid.NewString,
		repairGrace: repairGrace,
	}
}

// Resolve looks the project up by slug, then by domain, and authorizes the
// principal against it.
func (s *ProjectService) Resolve(ctx context.Context, principal *domain.Principal, ident string) (*domain.Project, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	if ident == "" {
		return nil, domain.ErrProjectNotFound
	}

	project, err := s.registry.FindBySlug(ctx, ident)
	if errors.Is(err, domain.ErrProjectNotFound) {
		project, err = s.registry.FindByDomain(ctx, ident)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve project: %w", err)
	}

	if !principal.CanAccess(project) {
		s.log.Debug().
			Str("principal", principal.ID).
			Str("slug", project.Slug).
			Msg("project access denied")
		return nil, domain.ErrForbidden
	}
	return project, nil
}

// LinkCount returns the number of links stored under the project's domain.
func (s *ProjectService) LinkCount(ctx context.Context, project *domain.Project) (int64, error) {
	n, err := s.links.Count(ctx, project.Domain)
	if err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}

// RandomLink samples one link key of the project. ok is false when the
// project has no links.
func (s *ProjectService) RandomLink(ctx context.Context, project *domain.Project) (string, bool, error) {
	key, ok, err := s.links.RandomKey(ctx, project.Domain)
	if err != nil {
		return "", false, fmt.Errorf("random link: %w", err)
	}
	return key, ok, nil
}

// DomainExists reports whether candidate is assigned to any project.
// Malformed candidates cannot be assigned, so they never exist.
func (s *ProjectService) DomainExists(ctx context.Context, candidate string) (bool, error) {
	if !domain.IsValidDomain(candidate) {
		return false, nil
	}
	ok, err := s.links.Exists(ctx, candidate)
	if err != nil {
		return false, fmt.Errorf("domain exists: %w", err)
	}
	return ok, nil
}

// UpdateDomain renames the project's domain. The link partition and the
// domain claim move in one atomic store step, which is also the uniqueness
// gate; the registry record is then swapped with a compare-and-swap. If the
// swap fails the links are moved back. Whatever cannot be undone stays
// behind a migration marker for the repair pass.
//
// The rename and its rollback each run under half the repair grace, so the
// repair pass only ever sees markers whose rename has already given up. If a repair took the
// marker over anyway, the rename stops before touching the registry and
// leaves the project to the repair.
func (s *ProjectService) UpdateDomain(ctx context.Context, project *domain.Project, newDomain string) (*domain.Project, error) {
	if err := domain.ValidateDomain(newDomain); err != nil {
		return nil, err
	}
	if newDomain == project.Domain {
		return project, nil
	}

	ctx, cancel := s.renameContext(ctx)
	defer cancel()

	m := domain.Migration{
		Slug:      project.Slug,
		OldDomain: project.Domain,
		NewDomain: newDomain,
		Token:     s.newToken(),
		StartedAt: s.now(),
	}
	if err := s.markers.Begin(ctx, m); err != nil {
		return nil, fmt.Errorf("update domain: %w", err)
	}

	if err := s.links.MoveDomain(ctx, m.Slug, m.OldDomain, m.NewDomain); err != nil {
		if errors.Is(err, domain.ErrDomainConflict) || errors.Is(err, domain.ErrConcurrentUpdate) {
			// Nothing moved.
			s.completeMarker(ctx, m)
			return nil, fmt.Errorf("update domain: %w", err)
		}
		// The move may or may not have been applied; leave the marker.
		s.log.Error().Err(err).Str("slug", m.Slug).Str("new_domain", newDomain).Msg("link move failed, migration left pending")
		return nil, fmt.Errorf("update domain: move links: %w", err)
	}

	held, err := s.markers.Holds(ctx, m.Slug, m.Token)
	if err != nil {
		s.log.Error().Err(err).Str("slug", m.Slug).Msg("marker check failed, migration left pending")
		return nil, fmt.Errorf("update domain: check marker: %w", err)
	}
	if !held {
		// A repair owns the marker and reconciles to the registry, which
		// still holds the old domain.
		s.log.Warn().Str("slug", m.Slug).Str("new_domain", newDomain).Msg("marker taken over by repair, rename abandoned")
		return nil, fmt.Errorf("update domain: %w", domain.ErrConcurrentUpdate)
	}

	updated, err := s.registry.SwapDomain(ctx, m.Slug, m.OldDomain, m.NewDomain)
	if err != nil {
		// The caller's deadline may be what failed the swap.
		rbCtx, rbCancel := s.renameContext(context.WithoutCancel(ctx))
		defer rbCancel()
		if rbErr := s.links.MoveDomain(rbCtx, m.Slug, m.NewDomain, m.OldDomain); rbErr != nil {
			s.log.Error().Err(rbErr).Str("slug", m.Slug).Msg("rollback of link move failed, migration left pending")
		} else {
			s.completeMarker(rbCtx, m)
		}
		return nil, fmt.Errorf("update domain: swap registry: %w", err)
	}

	s.completeMarker(ctx, m)
	s.log.Info().
		Str("slug", m.Slug).
		Str("old_domain", m.OldDomain).
		Str("new_domain", m.NewDomain).
		Msg("project domain updated")
	return updated, nil
}

// CreateProject registers a project owned by principal. The domain is claimed
// in the link store first so creation races with renames on the same gate.
func (s *ProjectService) CreateProject(ctx context.Context, principal *domain.Principal, in ports.CreateProjectInput) (*domain.Project, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := domain.ValidateSlug(in.Slug); err != nil {
		return nil, err
	}
	if err := domain.ValidateDomain(in.Domain); err != nil {
		return nil, err
	}

	switch _, err := s.registry.FindBySlug(ctx, in.Slug); {
	case err == nil:
		return nil, fmt.Errorf("create project: %w", domain.ErrProjectExists)
	case !errors.Is(err, domain.ErrProjectNotFound):
		return nil, fmt.Errorf("create project: %w", err)
	}

	claimed, err := s.links.ClaimDomain(ctx, in.Slug, in.Domain)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	now := s.now()
	project := &domain.Project{
		Slug:      in.Slug,
		Name:      in.Name,
		Domain:    in.Domain,
		OwnerID:   principal.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if project.Name == "" {
		project.Name = in.Slug
	}

	if err := s.registry.Create(ctx, project); err != nil {
		if claimed {
			if relErr := s.links.ReleaseDomain(ctx, in.Slug, in.Domain); relErr != nil {
				s.log.Warn().Err(relErr).Str("domain", in.Domain).Msg("failed to release domain claim")
			}
		}
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.log.Info().Str("slug", project.Slug).Str("domain", project.Domain).Str("owner", project.OwnerID).Msg("project created")
	return project, nil
}

// renameContext bounds one rename, or its rollback, to half the repair grace.
func (s *ProjectService) renameContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.repairGrace <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.repairGrace/2)
}

func (s *ProjectService) completeMarker(ctx context.Context, m domain.Migration) {
	if err := s.markers.Complete(ctx, m.Slug, m.Token); err != nil {
		s.log.Warn().Err(err).Str("slug", m.Slug).Msg("failed to clear migration marker")
	}
}
