// Package memory holds process-local implementations of the storage ports.
// They back STORAGE=memory for local development and the end-to-end tests.
package memory

import (
	"context"
	"math/rand"
	"sync"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// LinkStore keeps link partitions and the domain index in maps guarded by a
// single mutex, which makes every operation atomic.
type LinkStore struct {
	mu     sync.RWMutex
	links  map[string]map[string]domain.Link // domain -> key -> link, ProjectDomain unset
	owners map[string]string                 // domain -> slug
}

func NewLinkStore() *LinkStore {
	return &LinkStore{
		links:  make(map[string]map[string]domain.Link),
		owners: make(map[string]string),
	}
}

func (s *LinkStore) Count(_ context.Context, d string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.links[d])), nil
}

func (s *LinkStore) RandomKey(_ context.Context, d string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.links[d]
	if len(set) == 0 {
		return "", false, nil
	}
	n := rand.Intn(len(set))
	for key := range set {
		if n == 0 {
			return key, true, nil
		}
		n--
	}
	return "", false, nil
}

func (s *LinkStore) Exists(_ context.Context, d string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owners[d]
	return ok, nil
}

func (s *LinkStore) ClaimDomain(_ context.Context, slug, d string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.owners[d]; ok {
		if owner != slug {
			return false, domain.ErrDomainConflict
		}
		return false, nil
	}
	s.owners[d] = slug
	return true, nil
}

func (s *LinkStore) ReleaseDomain(_ context.Context, slug, d string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owners[d] == slug {
		delete(s.owners, d)
	}
	return nil
}

func (s *LinkStore) MoveDomain(_ context.Context, slug, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from == to {
		return nil
	}
	if owner, ok := s.owners[to]; ok && owner != slug {
		return domain.ErrDomainConflict
	}
	if s.owners[from] != slug {
		return domain.ErrConcurrentUpdate
	}

	if src, ok := s.links[from]; ok {
		dst := s.links[to]
		if dst == nil {
			dst = make(map[string]domain.Link, len(src))
			s.links[to] = dst
		}
		for key, l := range src {
			if _, exists := dst[key]; !exists {
				dst[key] = l
			}
		}
		delete(s.links, from)
	}
	delete(s.owners, from)
	s.owners[to] = slug
	return nil
}

func (s *LinkStore) PutLink(_ context.Context, l domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.links[l.ProjectDomain]
	if set == nil {
		set = make(map[string]domain.Link)
		s.links[l.ProjectDomain] = set
	}
	stored := l
	stored.ProjectDomain = ""
	set[l.Key] = stored
	return nil
}

func (s *LinkStore) GetLink(_ context.Context, d, key string) (domain.Link, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[d][key]
	if !ok {
		return domain.Link{}, false, nil
	}
	l.ProjectDomain = d
	return l, true, nil
}

func (s *LinkStore) DeleteLink(_ context.Context, d, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.links[d], key)
	if len(s.links[d]) == 0 {
		delete(s.links, d)
	}
	return nil
}
