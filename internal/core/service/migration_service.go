package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// StaleMigrations lists markers that have been pending for longer than
// grace. Younger markers may belong to renames still in flight, so grace is
// never shorter than the configured repair grace.
func (s *ProjectService) StaleMigrations(ctx context.Context, grace time.Duration) ([]domain.Migration, error) {
	if grace < s.repairGrace {
		grace = s.repairGrace
	}
	pending, err := s.markers.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	cutoff := s.now().Add(-grace)
	stale := make([]domain.Migration, 0, len(pending))
	for _, m := range pending {
		if m.StartedAt.Before(cutoff) {
			stale = append(stale, m)
		}
	}
	return stale, nil
}

// RepairMigrations repairs every stale marker in turn.
func (s *ProjectService) RepairMigrations(ctx context.Context, grace time.Duration) (int, error) {
	stale, err := s.StaleMigrations(ctx, grace)
	if err != nil {
		return 0, err
	}

	repaired := 0
	var errs []error
	for _, m := range stale {
		done, err := s.repair(ctx, m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if done {
			repaired++
		}
	}
	return repaired, errors.Join(errs...)
}

// RepairMigration brings the link store in line with the registry, which is
// the record of truth once a rename has been interrupted: the link partition
// and domain claim are moved to whichever of the two domains the project
// record holds, then the marker is cleared.
//
// The marker is taken over first, so the rename that wrote it can no longer
// reach the registry. A marker that changed hands since m was read is left
// to its new holder.
func (s *ProjectService) RepairMigration(ctx context.Context, m domain.Migration) error {
	_, err := s.repair(ctx, m)
	return err
}

func (s *ProjectService) repair(ctx context.Context, m domain.Migration) (bool, error) {
	token := s.newToken()
	if err := s.markers.Takeover(ctx, m.Slug, m.Token, token); err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			s.log.Debug().Str("slug", m.Slug).Msg("migration marker changed hands, repair skipped")
			return false, nil
		}
		return false, fmt.Errorf("repair %s: take over marker: %w", m.Slug, err)
	}
	m.Token = token

	project, err := s.registry.FindBySlug(ctx, m.Slug)
	if errors.Is(err, domain.ErrProjectNotFound) {
		s.log.Warn().Str("slug", m.Slug).Msg("migration marker for unknown project dropped")
		return true, s.markers.Complete(ctx, m.Slug, m.Token)
	}
	if err != nil {
		return false, fmt.Errorf("repair %s: %w", m.Slug, err)
	}

	var source string
	switch project.Domain {
	case m.NewDomain:
		source = m.OldDomain
	case m.OldDomain:
		source = m.NewDomain
	default:
		// The record moved on to a third domain; both sides of this marker
		// are stale. Only make sure the current claim is held.
		s.log.Warn().Str("slug", m.Slug).Str("domain", project.Domain).Msg("migration marker superseded")
		if _, err := s.links.ClaimDomain(ctx, m.Slug, project.Domain); err != nil {
			return false, fmt.Errorf("repair %s: %w", m.Slug, err)
		}
		return true, s.markers.Complete(ctx, m.Slug, m.Token)
	}

	err = s.links.MoveDomain(ctx, m.Slug, source, project.Domain)
	if errors.Is(err, domain.ErrConcurrentUpdate) {
		// source now belongs to someone else; its links are theirs.
		_, err = s.links.ClaimDomain(ctx, m.Slug, project.Domain)
	}
	if err != nil {
		return false, fmt.Errorf("repair %s: %w", m.Slug, err)
	}

	if err := s.markers.Complete(ctx, m.Slug, m.Token); err != nil {
		return false, fmt.Errorf("repair %s: clear marker: %w", m.Slug, err)
	}
	s.log.Info().
		Str("slug", m.Slug).
		Str("from", source).
		Str("to", project.Domain).
		Msg("migration repaired")
	return true, nil
}
