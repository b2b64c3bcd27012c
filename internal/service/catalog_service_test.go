package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/cache"
	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
	"github.com/spec-kit/stock-ledger/internal/repository/memory"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

func TestCatalogAdd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.catalog.AddDepartment(ctx, staffOf("Physio", "s@clinic.io"), "Radiology")
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.catalog.AddDepartment(ctx, env.admin, "   ")
	expectCode(t, err, apperrors.CodeValidation)

	_, err = env.catalog.AddDepartment(ctx, env.admin, " Physio ")
	expectCode(t, err, apperrors.CodeConflict)

	if _, err := env.catalog.AddRole(ctx, env.admin, "Nurse"); err != nil {
		t.Fatalf("add role: %v", err)
	}
	_, err = env.catalog.AddRole(ctx, env.admin, "Nurse")
	expectCode(t, err, apperrors.CodeConflict)

	depts, err := env.catalog.ListDepartments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(depts) != 2 || depts[0] != "Physio" || depts[1] != "Cardio" {
		t.Fatalf("unexpected departments: %v", depts)
	}
	roles, _ := env.catalog.ListRoles(ctx)
	if len(roles) != 1 || roles[0] != "Nurse" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestCatalogListEmptyIsNotNil(t *testing.T) {
	env := newTestEnv(t)
	roles, err := env.catalog.ListRoles(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if roles == nil || len(roles) != 0 {
		t.Fatalf("expected empty slice, got %#v", roles)
	}
}

type mapBackend struct {
	mu       sync.Mutex
	values   map[string][]byte
	versions map[string]int64
}

func (b *mapBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.values[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return raw, nil
}

func (b *mapBackend) Version(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.versions[key], nil
}

func (b *mapBackend) SetIfVersion(_ context.Context, key string, value []byte, _ time.Duration, version int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.versions[key] != version {
		return cache.ErrStale
	}
	b.values[key] = value
	return nil
}

func (b *mapBackend) Invalidate(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.versions[key]++
	delete(b.values, key)
	return nil
}

// racingCatalog runs duringList after reading departments but before
// returning them, the way a concurrent insert would interleave.
type racingCatalog struct {
	repository.CatalogRepository
	duringList func()
}

func (r *racingCatalog) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := r.CatalogRepository.ListDepartments(ctx)
	if hook := r.duringList; hook != nil {
		r.duringList = nil
		hook()
	}
	return depts, err
}

func TestCachedListSeesDepartmentAddedDuringLoad(t *testing.T) {
	ctx := context.Background()
	admin := domain.Identity{Role: domain.AccountRoleAdmin, Email: "admin@clinic.io"}
	store := memory.NewStore()
	if _, err := store.Catalog().AddDepartment(ctx, "Physio"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := &racingCatalog{CatalogRepository: store.Catalog()}
	backend := &mapBackend{values: map[string][]byte{}, versions: map[string]int64{}}
	svc := NewCatalogService(repo, cache.NewBackendCache(backend, time.Minute), zap.NewNop())

	repo.duringList = func() {
		if _, err := svc.AddDepartment(ctx, admin, "Cardio"); err != nil {
			t.Errorf("add during load: %v", err)
		}
	}
	first, err := svc.ListDepartments(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("first list: %v %v", first, err)
	}

	second, err := svc.ListDepartments(ctx)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(second) != 2 || second[1] != "Cardio" {
		t.Fatalf("stale listing served from cache: %v", second)
	}
	third, _ := svc.ListDepartments(ctx)
	if len(third) != 2 {
		t.Fatalf("fresh listing not cached: %v", third)
	}
	if _, err := backend.Get(ctx, cache.KeyDepartments); err != nil {
		t.Fatalf("expected cached entry after clean load: %v", err)
	}
}
