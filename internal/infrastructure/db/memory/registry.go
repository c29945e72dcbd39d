package memory

import (
	"context"
	"sync"
	"time"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// ProjectRegistry stores project records with the same uniqueness rules as
// the Mongo indexes: one record per slug and per domain.
type ProjectRegistry struct {
	mu       sync.RWMutex
	bySlug   map[string]*domain.Project
	byDomain map[string]string // domain -> slug
}

func NewProjectRegistry() *ProjectRegistry {
	return &ProjectRegistry{
		bySlug:   make(map[string]*domain.Project),
		byDomain: make(map[string]string),
	}
}

func (r *ProjectRegistry) Create(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bySlug[p.Slug]; ok {
		return domain.ErrProjectExists
	}
	if _, ok := r.byDomain[p.Domain]; ok {
		return domain.ErrDomainConflict
	}
	clone := *p
	r.bySlug[p.Slug] = &clone
	r.byDomain[p.Domain] = p.Slug
	return nil
}

func (r *ProjectRegistry) FindBySlug(_ context.Context, slug string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.bySlug[slug]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *ProjectRegistry) FindByDomain(_ context.Context, d string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slug, ok := r.byDomain[d]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	clone := *r.bySlug[slug]
	return &clone, nil
}

func (r *ProjectRegistry) SwapDomain(_ context.Context, slug, oldDomain, newDomain string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.bySlug[slug]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	if p.Domain != oldDomain {
		return nil, domain.ErrConcurrentUpdate
	}
	if owner, taken := r.byDomain[newDomain]; taken && owner != slug {
		return nil, domain.ErrDomainConflict
	}

	delete(r.byDomain, oldDomain)
	r.byDomain[newDomain] = slug
	p.Domain = newDomain
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	return &clone, nil
}
