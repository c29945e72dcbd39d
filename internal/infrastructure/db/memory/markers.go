package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// MigrationMarkers keeps pending renames keyed by project slug.
type MigrationMarkers struct {
	mu      sync.Mutex
	pending map[string]domain.Migration
}

func NewMigrationMarkers() *MigrationMarkers {
	return &MigrationMarkers{pending: make(map[string]domain.Migration)}
}

func (m *MigrationMarkers) Begin(_ context.Context, mig domain.Migration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[mig.Slug]; ok {
		return domain.ErrRenameInProgress
	}
	m.pending[mig.Slug] = mig
	return nil
}

func (m *MigrationMarkers) Holds(_ context.Context, slug, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mig, ok := m.pending[slug]
	return ok && mig.Token == token, nil
}

func (m *MigrationMarkers) Takeover(_ context.Context, slug, token, newToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mig, ok := m.pending[slug]
	if !ok || mig.Token != token {
		return domain.ErrConcurrentUpdate
	}
	mig.Token = newToken
	m.pending[slug] = mig
	return nil
}

func (m *MigrationMarkers) Complete(_ context.Context, slug, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mig, ok := m.pending[slug]; ok && mig.Token == token {
		delete(m.pending, slug)
	}
	return nil
}

func (m *MigrationMarkers) Pending(_ context.Context) ([]domain.Migration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Migration, 0, len(m.pending))
	for _, mig := range m.pending {
		out = append(out, mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}
