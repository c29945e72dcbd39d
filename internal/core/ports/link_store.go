package ports

import (
	"context"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// LinkStore is the key-value store holding every project's links, partitioned
// by project domain, together with the index of claimed domains.
//
// Backend failures must be returned wrapped in domain.ErrStoreUnavailable so
// callers can tell "zero links" apart from "store unreachable".
type LinkStore interface {
	// Count returns the number of links under domain without scanning them.
	Count(ctx context.Context, domain string) (int64, error)
	// RandomKey returns a uniformly sampled link key. ok is false when the
	// partition is empty.
	RandomKey(ctx context.Context, domain string) (key string, ok bool, err error)
	// Exists reports whether domain is claimed by some project. Exact match only.
	Exists(ctx context.Context, domain string) (bool, error)

	// ClaimDomain assigns domain to slug, failing with domain.ErrDomainConflict
	// when another slug already holds it. claimed is false when slug already
	// held the domain.
	ClaimDomain(ctx context.Context, slug, domain string) (claimed bool, err error)
	// ReleaseDomain drops the claim, but only while slug still holds it.
	ReleaseDomain(ctx context.Context, slug, domain string) error
	// MoveDomain atomically moves slug's link partition and domain claim from
	// one domain to another. It fails with domain.ErrDomainConflict when to is
	// held by another slug and with domain.ErrConcurrentUpdate when slug does
	// not hold from, which is also what a repeated move reports.
	MoveDomain(ctx context.Context, slug, from, to string) error

	// PutLink stores link under its ProjectDomain. The partition is the only
	// record of the domain; it is not kept in the stored value.
	PutLink(ctx context.Context, link domain.Link) error
	// GetLink reads one link back with ProjectDomain set to the partition it
	// was found in.
	GetLink(ctx context.Context, domain, key string) (link domain.Link, ok bool, err error)
	DeleteLink(ctx context.Context, domain, key string) error
}

// MigrationMarkers records renames in flight. A marker doubles as the
// per-project rename lock.
type MigrationMarkers interface {
	// Begin stores m, failing with domain.ErrRenameInProgress if the project
	// already has a pending marker.
	Begin(ctx context.Context, m domain.Migration) error
	// Holds reports whether the project's marker is still held by token.
	Holds(ctx context.Context, slug, token string) (bool, error)
	// Takeover hands the marker from token to newToken, failing with
	// domain.ErrConcurrentUpdate when token no longer holds it.
	Takeover(ctx context.Context, slug, token, newToken string) error
	// Complete removes the marker if token still holds it; otherwise it is a no-op.
	Complete(ctx context.Context, slug, token string) error
	Pending(ctx context.Context) ([]domain.Migration, error)
}
