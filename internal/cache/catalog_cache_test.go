package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend keeps entries and versions in maps.
type fakeBackend struct {
	mu       sync.Mutex
	values   map[string][]byte
	versions map[string]int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{values: map[string][]byte{}, versions: map[string]int64{}}
}

func (f *fakeBackend) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.values[key]
	if !ok {
		return nil, ErrMiss
	}
	return raw, nil
}

func (f *fakeBackend) Version(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[key], nil
}

func (f *fakeBackend) SetIfVersion(_ context.Context, key string, value []byte, _ time.Duration, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.versions[key] != version {
		return ErrStale
	}
	f.values[key] = value
	return nil
}

func (f *fakeBackend) Invalidate(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[key]++
	delete(f.values, key)
	return nil
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	c := NewCatalogCache(nil, 0)
	ctx := context.Background()
	if c.Enabled() {
		t.Fatalf("nil client should disable cache")
	}
	if err := c.SetIfVersion(ctx, KeyDepartments, []string{"Ortho"}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := c.Get(ctx, KeyDepartments); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Invalidate(ctx, KeyDepartments); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestSetAfterInvalidateIsDropped(t *testing.T) {
	c := NewBackendCache(newFakeBackend(), time.Minute)
	ctx := context.Background()

	version, err := c.Version(ctx, KeyDepartments)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	// An insert lands and invalidates while the reader is still loading.
	if err := c.Invalidate(ctx, KeyDepartments); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.SetIfVersion(ctx, KeyDepartments, []string{"Ortho"}, version); !errors.Is(err, ErrStale) {
		t.Fatalf("expected stale write to be refused, got %v", err)
	}
	if _, err := c.Get(ctx, KeyDepartments); !errors.Is(err, ErrMiss) {
		t.Fatalf("stale names were cached: %v", err)
	}

	version, _ = c.Version(ctx, KeyDepartments)
	if err := c.SetIfVersion(ctx, KeyDepartments, []string{"Ortho", "Cardio"}, version); err != nil {
		t.Fatalf("set: %v", err)
	}
	names, err := c.Get(ctx, KeyDepartments)
	if err != nil || len(names) != 2 || names[1] != "Cardio" {
		t.Fatalf("unexpected names: %v %v", names, err)
	}
}
