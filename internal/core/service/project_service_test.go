package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/link-dashboard/internal/core/domain"
	"github.com/99minutos/link-dashboard/internal/core/ports"
	"github.com/99minutos/link-dashboard/internal/infrastructure/db/memory"
)

var errBackendDown = fmt.Errorf("redis move domain: %w: i/o timeout", domain.ErrStoreUnavailable)

// flakyLinks fails selected MoveDomain calls, counted from 1. afterMove runs
// once, after the next successful move.
type flakyLinks struct {
	*memory.LinkStore
	mu        sync.Mutex
	moves     int
	failMoves map[int]error
	afterMove func()
	exists    int
}

func (f *flakyLinks) MoveDomain(ctx context.Context, slug, from, to string) error {
	f.mu.Lock()
	f.moves++
	err := f.failMoves[f.moves]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if err := f.LinkStore.MoveDomain(ctx, slug, from, to); err != nil {
		return err
	}

	f.mu.Lock()
	hook := f.afterMove
	f.afterMove = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (f *flakyLinks) Exists(ctx context.Context, d string) (bool, error) {
	f.mu.Lock()
	f.exists++
	f.mu.Unlock()
	return f.LinkStore.Exists(ctx, d)
}

// flakyRegistry fails SwapDomain, Create or FindBySlug on demand.
// beforeSwap runs at the start of every SwapDomain call.
type flakyRegistry struct {
	*memory.ProjectRegistry
	swapErr    error
	createErr  error
	findErr    error
	beforeSwap func()
}

func (f *flakyRegistry) SwapDomain(ctx context.Context, slug, oldDomain, newDomain string) (*domain.Project, error) {
	if f.beforeSwap != nil {
		f.beforeSwap()
	}
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return f.ProjectRegistry.SwapDomain(ctx, slug, oldDomain, newDomain)
}

func (f *flakyRegistry) FindBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.ProjectRegistry.FindBySlug(ctx, slug)
}

func (f *flakyRegistry) Create(ctx context.Context, p *domain.Project) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.ProjectRegistry.Create(ctx, p)
}

type fixture struct {
	svc      *ProjectService
	links    *flakyLinks
	registry *flakyRegistry
	markers  *memory.MigrationMarkers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		links:    &flakyLinks{LinkStore: memory.NewLinkStore(), failMoves: map[int]error{}},
		registry: &flakyRegistry{ProjectRegistry: memory.NewProjectRegistry()},
		markers:  memory.NewMigrationMarkers(),
	}
	f.svc = NewProjectService(f.links, f.registry, f.markers, 0, zerolog.Nop())
	return f
}

func (f *fixture) project(t *testing.T, owner, slug, d string, keys ...string) *domain.Project {
	t.Helper()
	ctx := context.Background()
	p, err := f.svc.CreateProject(ctx, &domain.Principal{ID: owner}, ports.CreateProjectInput{Slug: slug, Domain: d})
	if err != nil {
		t.Fatalf("create %s: %v", slug, err)
	}
	for _, k := range keys {
		if err := f.links.PutLink(ctx, domain.Link{Key: k, ProjectDomain: d}); err != nil {
			t.Fatalf("put link: %v", err)
		}
	}
	return p
}

func (f *fixture) count(t *testing.T, d string) int64 {
	t.Helper()
	n, err := f.links.Count(context.Background(), d)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (f *fixture) exists(t *testing.T, d string) bool {
	t.Helper()
	ok, err := f.svc.DomainExists(context.Background(), d)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	return ok
}

func (f *fixture) pending(t *testing.T) []domain.Migration {
	t.Helper()
	p, err := f.markers.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	return p
}

func TestProjectService_Resolve(t *testing.T) {
	f := newFixture(t)
	f.project(t, "owner-1", "acme", "acme.link")

	cases := []struct {
		name      string
		principal *domain.Principal
		ident     string
		wantErr   error
	}{
		{name: "owner by slug", principal: &domain.Principal{ID: "owner-1"}, ident: "acme"},
		{name: "owner by domain", principal: &domain.Principal{ID: "owner-1"}, ident: "acme.link"},
		{name: "superadmin", principal: &domain.Principal{ID: "root", Superadmin: true}, ident: "acme"},
		{name: "non-owner", principal: &domain.Principal{ID: "owner-2"}, ident: "acme", wantErr: domain.ErrForbidden},
		{name: "empty principal id", principal: &domain.Principal{}, ident: "acme", wantErr: domain.ErrForbidden},
		{name: "anonymous", ident: "acme", wantErr: domain.ErrUnauthorized},
		{name: "unknown", principal: &domain.Principal{ID: "owner-1"}, ident: "nope", wantErr: domain.ErrProjectNotFound},
		{name: "empty ident", principal: &domain.Principal{ID: "owner-1"}, ident: "", wantErr: domain.ErrProjectNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := f.svc.Resolve(context.Background(), tc.principal, tc.ident)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if p != nil {
					t.Fatalf("no project may be returned on denial")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Slug != "acme" {
				t.Fatalf("expected acme, got %s", p.Slug)
			}
		})
	}
}

func TestProjectService_LinkCountTracksMutations(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a", "b")
	ctx := context.Background()

	steps := []struct {
		op   func() error
		want int64
	}{
		{func() error { return nil }, 2},
		{func() error { return f.links.PutLink(ctx, domain.Link{Key: "c", ProjectDomain: "acme.link"}) }, 3},
		{func() error { return f.links.PutLink(ctx, domain.Link{Key: "c", ProjectDomain: "acme.link"}) }, 3},
		{func() error { return f.links.DeleteLink(ctx, "acme.link", "a") }, 2},
		{func() error { return f.links.DeleteLink(ctx, "acme.link", "missing") }, 2},
		{func() error { return f.links.PutLink(ctx, domain.Link{Key: "x", ProjectDomain: "other.link"}) }, 2},
	}

	for i, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		n, err := f.svc.LinkCount(ctx, p)
		if err != nil {
			t.Fatalf("step %d: count: %v", i, err)
		}
		if n != step.want {
			t.Fatalf("step %d: expected %d, got %d", i, step.want, n)
		}
	}
}

func TestProjectService_RandomLink(t *testing.T) {
	f := newFixture(t)
	empty := f.project(t, "owner-1", "empty", "empty.link")
	full := f.project(t, "owner-1", "full", "full.link", "a", "b", "c")
	ctx := context.Background()

	key, ok, err := f.svc.RandomLink(ctx, empty)
	if err != nil || ok || key != "" {
		t.Fatalf("empty set: expected no key and no error, got %q %v %v", key, ok, err)
	}

	members := map[string]bool{"a": true, "b": true, "c": true}
	for i := 0; i < 100; i++ {
		key, ok, err := f.svc.RandomLink(ctx, full)
		if err != nil || !ok {
			t.Fatalf("non-empty set: %v %v", ok, err)
		}
		if !members[key] {
			t.Fatalf("sampled %q which is not a member", key)
		}
	}
}

func TestProjectService_DomainExists_MalformedSkipsStore(t *testing.T) {
	f := newFixture(t)

	for _, d := range []string{"", "has space.link", "under_score.link", "émoji.link"} {
		if f.exists(t, d) {
			t.Fatalf("%q must not exist", d)
		}
	}
	if f.links.exists != 0 {
		t.Fatalf("malformed candidates must not reach the store, got %d calls", f.links.exists)
	}
}

func TestProjectService_UpdateDomain_RoundTrip(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a", "b", "c")
	ctx := context.Background()

	moved, err := f.svc.UpdateDomain(ctx, p, "acme.new")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if moved.Domain != "acme.new" {
		t.Fatalf("expected acme.new, got %s", moved.Domain)
	}
	if !f.exists(t, "acme.new") || f.exists(t, "acme.link") {
		t.Fatalf("exists must follow the rename")
	}
	if f.count(t, "acme.new") != 3 || f.count(t, "acme.link") != 0 {
		t.Fatalf("links must follow the rename")
	}

	back, err := f.svc.UpdateDomain(ctx, moved, "acme.link")
	if err != nil {
		t.Fatalf("rename back: %v", err)
	}
	if back.Domain != "acme.link" || f.count(t, "acme.link") != 3 {
		t.Fatalf("round trip must restore the original state")
	}
	if !f.exists(t, "acme.link") || f.exists(t, "acme.new") {
		t.Fatalf("round trip must restore the domain index")
	}

	stored, _ := f.registry.FindBySlug(ctx, "acme")
	if stored.Domain != "acme.link" {
		t.Fatalf("registry not updated: %s", stored.Domain)
	}
	if len(f.pending(t)) != 0 {
		t.Fatalf("markers must be cleared")
	}
}

func TestProjectService_UpdateDomain_SameDomainIsNoop(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a")
	f.links.failMoves[1] = errBackendDown

	got, err := f.svc.UpdateDomain(context.Background(), p, "acme.link")
	if err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if got.Domain != "acme.link" || f.links.moves != 0 {
		t.Fatalf("no-op must not touch the store")
	}
}

func TestProjectService_UpdateDomain_Invalid(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a")

	for _, d := range []string{"", "bad domain", "a/b"} {
		if _, err := f.svc.UpdateDomain(context.Background(), p, d); !errors.Is(err, domain.ErrInvalidDomain) {
			t.Fatalf("%q: expected ErrInvalidDomain, got %v", d, err)
		}
	}
	if f.links.moves != 0 || len(f.pending(t)) != 0 {
		t.Fatalf("invalid input must not start a rename")
	}
}

func TestProjectService_UpdateDomain_Conflict(t *testing.T) {
	f := newFixture(t)
	acme := f.project(t, "owner-1", "acme", "acme.link", "a", "b")
	f.project(t, "owner-2", "globex", "globex.link", "g")

	_, err := f.svc.UpdateDomain(context.Background(), acme, "globex.link")
	if !errors.Is(err, domain.ErrDomainConflict) {
		t.Fatalf("expected ErrDomainConflict, got %v", err)
	}
	if f.count(t, "acme.link") != 2 || f.count(t, "globex.link") != 1 {
		t.Fatalf("a refused rename must not move links")
	}
	if len(f.pending(t)) != 0 {
		t.Fatalf("a refused rename must clear its marker")
	}
}

func TestProjectService_UpdateDomain_InProgress(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link")
	_ = f.markers.Begin(context.Background(), domain.Migration{Slug: "acme", OldDomain: "acme.link", NewDomain: "x.link"})

	if _, err := f.svc.UpdateDomain(context.Background(), p, "acme.new"); !errors.Is(err, domain.ErrRenameInProgress) {
		t.Fatalf("expected ErrRenameInProgress, got %v", err)
	}
	if f.links.moves != 0 {
		t.Fatalf("a locked project must not be moved")
	}
}

func TestProjectService_UpdateDomain_StaleProject(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a")
	ctx := context.Background()

	if _, err := f.svc.UpdateDomain(ctx, p, "acme.new"); err != nil {
		t.Fatalf("first rename: %v", err)
	}
	// p still says acme.link, which acme no longer holds.
	if _, err := f.svc.UpdateDomain(ctx, p, "acme.third"); !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	stored, _ := f.registry.FindBySlug(ctx, "acme")
	if stored.Domain != "acme.new" || f.count(t, "acme.new") != 1 {
		t.Fatalf("stale rename changed state: registry %s, count %d", stored.Domain, f.count(t, "acme.new"))
	}
	if f.exists(t, "acme.link") || f.exists(t, "acme.third") {
		t.Fatalf("stale rename left a stray claim")
	}
	if len(f.pending(t)) != 0 {
		t.Fatalf("a refused rename must clear its marker")
	}
}

func TestProjectService_UpdateDomain_SwapFailsRollsBack(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a", "b")
	f.registry.swapErr = fmt.Errorf("mongo swap domain: %w: server selection timeout", domain.ErrStoreUnavailable)

	_, err := f.svc.UpdateDomain(context.Background(), p, "acme.new")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if f.count(t, "acme.link") != 2 || !f.exists(t, "acme.link") || f.exists(t, "acme.new") {
		t.Fatalf("links and claim must be rolled back")
	}
	if len(f.pending(t)) != 0 {
		t.Fatalf("a clean rollback must clear the marker")
	}
}

func TestProjectService_UpdateDomain_RollbackFailsLeavesMarker(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a", "b")
	f.registry.swapErr = errBackendDown
	f.links.failMoves[2] = errBackendDown

	if _, err := f.svc.UpdateDomain(context.Background(), p, "acme.new"); err == nil {
		t.Fatalf("expected an error")
	}
	pending := f.pending(t)
	if len(pending) != 1 || pending[0].OldDomain != "acme.link" || pending[0].NewDomain != "acme.new" {
		t.Fatalf("marker must remain for repair, got %+v", pending)
	}

	// The links are only reachable through the new domain until repair runs,
	// and the repair pass restores the registry's domain.
	if f.count(t, "acme.new") != 2 {
		t.Fatalf("links lost: %d", f.count(t, "acme.new"))
	}
	f.registry.swapErr = nil
	if err := f.svc.RepairMigration(context.Background(), pending[0]); err != nil {
		t.Fatalf("repair: %v", err)
	}
	if f.count(t, "acme.link") != 2 || f.exists(t, "acme.new") || len(f.pending(t)) != 0 {
		t.Fatalf("repair did not restore consistency")
	}
}

func TestProjectService_UpdateDomain_MoveUnavailableLeavesMarker(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a")
	f.links.failMoves[1] = errBackendDown

	_, err := f.svc.UpdateDomain(context.Background(), p, "acme.new")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(f.pending(t)) != 1 {
		t.Fatalf("an unknown outcome must leave the marker")
	}
	if _, err := f.svc.UpdateDomain(context.Background(), p, "acme.other"); !errors.Is(err, domain.ErrRenameInProgress) {
		t.Fatalf("project must stay locked until repaired, got %v", err)
	}
}

func TestProjectService_UpdateDomain_RepairPassDuringRename(t *testing.T) {
	f := newFixture(t)
	f.svc.repairGrace = time.Minute
	p := f.project(t, "owner-1", "acme", "acme.link", "a", "b")
	ctx := context.Background()

	repaired := -1
	f.registry.beforeSwap = func() {
		n, err := f.svc.RepairMigrations(ctx, 0)
		if err != nil {
			t.Errorf("repair pass: %v", err)
		}
		repaired = n
	}

	updated, err := f.svc.UpdateDomain(ctx, p, "acme.new")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("a rename in flight must not be repaired, repaired %d", repaired)
	}
	if updated.Domain != "acme.new" {
		t.Fatalf("unexpected domain %s", updated.Domain)
	}
	if f.count(t, "acme.new") != 2 || f.count(t, "acme.link") != 0 {
		t.Fatalf("links must follow the registry: new=%d old=%d", f.count(t, "acme.new"), f.count(t, "acme.link"))
	}
	if !f.exists(t, "acme.new") || f.exists(t, "acme.link") {
		t.Fatalf("domain index must follow the registry")
	}
	if len(f.pending(t)) != 0 {
		t.Fatalf("marker must be cleared")
	}
}

func TestProjectService_UpdateDomain_MarkerTakenOverAbortsSwap(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1", "acme", "acme.link", "a", "b")
	ctx := context.Background()

	// A rename that outlived the repair grace: the repair takes the marker
	// while the links sit on the new domain.
	f.links.afterMove = func() {
		pending := f.pending(t)
		if len(pending) != 1 {
			t.Errorf("expected the rename's marker, got %+v", pending)
			return
		}
		if err := f.svc.RepairMigration(ctx, pending[0]); err != nil {
			t.Errorf("repair: %v", err)
		}
	}

	if _, err := f.svc.UpdateDomain(ctx, p, "acme.new"); !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	current, err := f.registry.FindBySlug(ctx, "acme")
	if err != nil || current.Domain != "acme.link" {
		t.Fatalf("registry must keep the old domain: %+v %v", current, err)
	}
	if f.count(t, "acme.link") != 2 || !f.exists(t, "acme.link") || f.exists(t, "acme.new") {
		t.Fatalf("links and index must agree with the registry")
	}
	if len(f.pending(t)) != 0 {
		t.Fatalf("the repair must have cleared the marker")
	}
}

func TestProjectService_UpdateDomain_ConcurrentSameTarget(t *testing.T) {
	f := newFixture(t)
	const n = 8
	projects := make([]*domain.Project, n)
	for i := range projects {
		projects[i] = f.project(t, "owner", fmt.Sprintf("p%d", i), fmt.Sprintf("p%d.link", i), "k1", "k2")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for _, p := range projects {
		wg.Add(1)
		go func(p *domain.Project) {
			defer wg.Done()
			_, err := f.svc.UpdateDomain(context.Background(), p, "target.link")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrDomainConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(p)
	}
	wg.Wait()

	if successes != 1 || conflicts != n-1 || len(others) != 0 {
		t.Fatalf("expected 1 success and %d conflicts, got %d/%d, others %v", n-1, successes, conflicts, others)
	}

	// Every project's links are reachable through the domain its record holds.
	for _, p := range projects {
		stored, err := f.registry.FindBySlug(context.Background(), p.Slug)
		if err != nil {
			t.Fatalf("find %s: %v", p.Slug, err)
		}
		if got := f.count(t, stored.Domain); got != 2 {
			t.Fatalf("%s: %d links reachable through %s", p.Slug, got, stored.Domain)
		}
		if !f.exists(t, stored.Domain) {
			t.Fatalf("%s: domain %s not claimed", p.Slug, stored.Domain)
		}
	}
	if len(f.pending(t)) != 0 {
		t.Fatalf("no markers may remain")
	}
}

func TestProjectService_CreateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := &domain.Principal{ID: "owner-1"}

	p, err := f.svc.CreateProject(ctx, owner, ports.CreateProjectInput{Slug: "acme", Domain: "acme.link"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.OwnerID != "owner-1" || p.Name != "acme" || p.CreatedAt.IsZero() {
		t.Fatalf("unexpected project: %+v", p)
	}
	if !f.exists(t, "acme.link") {
		t.Fatalf("creation must claim the domain")
	}

	cases := []struct {
		name      string
		principal *domain.Principal
		in        ports.CreateProjectInput
		wantErr   error
	}{
		{name: "anonymous", in: ports.CreateProjectInput{Slug: "x", Domain: "x.link"}, wantErr: domain.ErrUnauthorized},
		{name: "bad slug", principal: owner, in: ports.CreateProjectInput{Slug: "Bad Slug", Domain: "x.link"}, wantErr: domain.ErrInvalidSlug},
		{name: "bad domain", principal: owner, in: ports.CreateProjectInput{Slug: "x", Domain: "x link"}, wantErr: domain.ErrInvalidDomain},
		{name: "duplicate slug", principal: owner, in: ports.CreateProjectInput{Slug: "acme", Domain: "acme.link"}, wantErr: domain.ErrProjectExists},
		{name: "taken domain", principal: owner, in: ports.CreateProjectInput{Slug: "other", Domain: "acme.link"}, wantErr: domain.ErrDomainConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.CreateProject(ctx, tc.principal, tc.in); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if !f.exists(t, "acme.link") {
		t.Fatalf("failed creations must not release the existing claim")
	}
}

func TestProjectService_CreateProject_RegistryFailureReleasesClaim(t *testing.T) {
	f := newFixture(t)
	f.registry.createErr = errBackendDown

	_, err := f.svc.CreateProject(context.Background(), &domain.Principal{ID: "u"}, ports.CreateProjectInput{Slug: "acme", Domain: "acme.link"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if f.exists(t, "acme.link") {
		t.Fatalf("claim must be released when the registry write fails")
	}
}

func TestProjectService_CreateProject_RegistryUnavailable(t *testing.T) {
	f := newFixture(t)
	f.registry.findErr = errBackendDown

	_, err := f.svc.CreateProject(context.Background(), &domain.Principal{ID: "owner-1"}, ports.CreateProjectInput{Slug: "acme", Domain: "acme.link"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if f.exists(t, "acme.link") {
		t.Fatalf("domain must not be claimed when the slug lookup fails")
	}
}

func TestProjectService_StaleMigrations(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	ctx := context.Background()

	_ = f.markers.Begin(ctx, domain.Migration{Slug: "old", StartedAt: now.Add(-10 * time.Minute)})
	_ = f.markers.Begin(ctx, domain.Migration{Slug: "young", StartedAt: now.Add(-10 * time.Second)})

	stale, err := f.svc.StaleMigrations(ctx, time.Minute)
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if len(stale) != 1 || stale[0].Slug != "old" {
		t.Fatalf("expected only the old marker, got %+v", stale)
	}

	all, _ := f.svc.StaleMigrations(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("grace 0 should list every marker, got %d", len(all))
	}

	f.svc.repairGrace = time.Minute
	floored, _ := f.svc.StaleMigrations(ctx, 0)
	if len(floored) != 1 || floored[0].Slug != "old" {
		t.Fatalf("grace below the floor must be raised to it, got %+v", floored)
	}
}
