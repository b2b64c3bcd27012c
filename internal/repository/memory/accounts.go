package memory

import (
	"context"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
)

type accountRepo struct{ s *Store }

func (r accountRepo) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := accountKey{role: account.Role, email: account.Email}
	account.CreatedAt = r.s.now()
	stored := *account

	return r.s.commit(func(candidate *Snapshot) (func(), error) {
		r.s.mu.RLock()
		_, exists := r.s.accounts[key]
		r.s.mu.RUnlock()
		if exists {
			return nil, repository.ErrDuplicate
		}
		candidate.Accounts = append(candidate.Accounts, stored)
		return func() {
			r.s.mu.Lock()
			r.s.accounts[key] = stored
			r.s.accountOrder = append(r.s.accountOrder, key)
			r.s.mu.Unlock()
		}, nil
	})
}

func (r accountRepo) Get(ctx context.Context, role domain.AccountRole, email string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	acc, ok := r.s.accounts[accountKey{role: role, email: email}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &acc, nil
}

func (r accountRepo) List(ctx context.Context, role domain.AccountRole) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Account
	for _, key := range r.s.accountOrder {
		if key.role == role {
			result = append(result, r.s.accounts[key])
		}
	}
	return result, nil
}
