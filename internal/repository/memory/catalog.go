package memory

import (
	"context"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
)

type catalogRepo struct{ s *Store }

func (r catalogRepo) AddDepartment(ctx context.Context, name string) (*domain.Department, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dept := domain.Department{Name: name, CreatedAt: r.s.now()}
	err := r.s.commit(func(candidate *Snapshot) (func(), error) {
		if exists, _ := r.DepartmentExists(ctx, name); exists {
			return nil, repository.ErrDuplicate
		}
		candidate.Departments = append(candidate.Departments, dept)
		return func() {
			r.s.mu.Lock()
			r.s.departments = append(r.s.departments, dept)
			r.s.mu.Unlock()
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r catalogRepo) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.Department(nil), r.s.departments...), nil
}

func (r catalogRepo) DepartmentExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.departments {
		if d.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r catalogRepo) AddRole(ctx context.Context, name string) (*domain.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	role := domain.Role{Name: name, CreatedAt: r.s.now()}
	err := r.s.commit(func(candidate *Snapshot) (func(), error) {
		r.s.mu.RLock()
		for _, existing := range r.s.roles {
			if existing.Name == name {
				r.s.mu.RUnlock()
				return nil, repository.ErrDuplicate
			}
		}
		r.s.mu.RUnlock()
		candidate.Roles = append(candidate.Roles, role)
		return func() {
			r.s.mu.Lock()
			r.s.roles = append(r.s.roles, role)
			r.s.mu.Unlock()
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r catalogRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.Role(nil), r.s.roles...), nil
}
