package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/stock-ledger/internal/domain"
)

// CatalogRepository manages the append-only department and role name sets.
type CatalogRepository interface {
	AddDepartment(ctx context.Context, name string) (*domain.Department, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	DepartmentExists(ctx context.Context, name string) (bool, error)
	AddRole(ctx context.Context, name string) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository builds the Postgres-backed repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) AddDepartment(ctx context.Context, name string) (*domain.Department, error) {
	const query = `
        INSERT INTO departments (name)
        VALUES ($1)
        RETURNING created_at`
	dept := &domain.Department{Name: name}
	if err := r.pool.QueryRow(ctx, query, name).Scan(&dept.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return dept, nil
}

func (r *catalogRepository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	const query = `SELECT name, created_at FROM departments ORDER BY position`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.Name, &dept.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *catalogRepository) DepartmentExists(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM departments WHERE name=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, translate(err)
	}
	return exists, nil
}

func (r *catalogRepository) AddRole(ctx context.Context, name string) (*domain.Role, error) {
	const query = `
        INSERT INTO roles (name)
        VALUES ($1)
        RETURNING created_at`
	role := &domain.Role{Name: name}
	if err := r.pool.QueryRow(ctx, query, name).Scan(&role.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return role, nil
}

func (r *catalogRepository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	const query = `SELECT name, created_at FROM roles ORDER BY position`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.Name, &role.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}
