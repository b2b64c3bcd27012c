package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/stock-ledger/internal/domain"
)

// AccountRepository handles persistence for admin and staff accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Get(ctx context.Context, role domain.AccountRole, email string) (*domain.Account, error)
	List(ctx context.Context, role domain.AccountRole) ([]domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository instantiates the repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (role, email, name, department, job_role, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		account.Role,
		account.Email,
		account.Name,
		account.Department,
		account.JobRole,
		account.PasswordHash,
	).Scan(&account.CreatedAt)
	return translate(err)
}

func (r *accountRepository) Get(ctx context.Context, role domain.AccountRole, email string) (*domain.Account, error) {
	const query = `
        SELECT role, email, name, department, job_role, password_hash, created_at
        FROM accounts WHERE role=$1 AND email=$2`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, role, email))
	if err != nil {
		return nil, translate(err)
	}
	return account, nil
}

func (r *accountRepository) List(ctx context.Context, role domain.AccountRole) ([]domain.Account, error) {
	const query = `
        SELECT role, email, name, department, job_role, password_hash, created_at
        FROM accounts WHERE role=$1 ORDER BY created_at, email`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.Role,
		&account.Email,
		&account.Name,
		&account.Department,
		&account.JobRole,
		&account.PasswordHash,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
