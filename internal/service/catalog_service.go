package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/cache"
	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// CatalogService manages department and role names.
type CatalogService struct {
	catalog repository.CatalogRepository
	cache   *cache.CatalogCache
	logger  *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(catalog repository.CatalogRepository, c *cache.CatalogCache, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, cache: c, logger: logger}
}

// AddDepartment appends a department name.
func (s *CatalogService) AddDepartment(ctx context.Context, identity domain.Identity, name string) (*domain.Department, error) {
	name, err := s.validateAdd(identity, name)
	if err != nil {
		return nil, err
	}
	dept, err := s.catalog.AddDepartment(ctx, name)
	if err != nil {
		return nil, storeError(err, "department", map[string]any{"name": name})
	}
	s.invalidate(ctx, cache.KeyDepartments)
	return dept, nil
}

// AddRole appends a job role name.
func (s *CatalogService) AddRole(ctx context.Context, identity domain.Identity, name string) (*domain.Role, error) {
	name, err := s.validateAdd(identity, name)
	if err != nil {
		return nil, err
	}
	role, err := s.catalog.AddRole(ctx, name)
	if err != nil {
		return nil, storeError(err, "role", map[string]any{"name": name})
	}
	s.invalidate(ctx, cache.KeyRoles)
	return role, nil
}

// ListDepartments returns department names in insertion order.
func (s *CatalogService) ListDepartments(ctx context.Context) ([]string, error) {
	return s.cachedNames(ctx, cache.KeyDepartments, func() ([]string, error) {
		depts, err := s.catalog.ListDepartments(ctx)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(depts))
		for _, d := range depts {
			names = append(names, d.Name)
		}
		return names, nil
	})
}

// ListRoles returns role names in insertion order.
func (s *CatalogService) ListRoles(ctx context.Context) ([]string, error) {
	return s.cachedNames(ctx, cache.KeyRoles, func() ([]string, error) {
		roles, err := s.catalog.ListRoles(ctx)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.Name)
		}
		return names, nil
	})
}

func (s *CatalogService) validateAdd(identity domain.Identity, name string) (string, error) {
	if err := requireAdmin(identity); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidationError("name is required", nil)
	}
	return name, nil
}

func (s *CatalogService) cachedNames(ctx context.Context, key string, load func() ([]string, error)) ([]string, error) {
	if names, err := s.cache.Get(ctx, key); err == nil {
		return names, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	version, verErr := s.cache.Version(ctx, key)
	if verErr != nil {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(verErr))
	}
	names, err := load()
	if err != nil {
		return nil, storeError(err, "catalog", nil)
	}
	if names == nil {
		names = []string{}
	}
	if verErr != nil {
		return names, nil
	}
	err = s.cache.SetIfVersion(ctx, key, names, version)
	switch {
	case errors.Is(err, cache.ErrStale):
		s.logger.Debug("catalog changed during load, not caching", zap.String("key", key))
	case err != nil:
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return names, nil
}

func (s *CatalogService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
