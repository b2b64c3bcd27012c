package memory

import (
	"context"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
)

type itemRepo struct{ s *Store }

func (r itemRepo) Create(ctx context.Context, item *domain.StockItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := r.s.now()

	return r.s.commit(func(candidate *Snapshot) (func(), error) {
		// ids are only handed out inside commit, so the next id is stable here.
		r.s.mu.RLock()
		id := r.s.nextItem + 1
		r.s.mu.RUnlock()

		stored := *item
		stored.ID = id
		stored.CreatedAt = now
		stored.UpdatedAt = now
		candidate.putItem(stored)

		return func() {
			row := &itemRow{}
			row.value.Store(&stored)
			r.s.mu.Lock()
			r.s.nextItem = id
			r.s.items[id] = row
			r.s.mu.Unlock()
			*item = stored
		}, nil
	})
}

func (r itemRepo) GetByID(ctx context.Context, id int64) (*domain.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := r.s.itemRow(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	item := *row.value.Load()
	return &item, nil
}

func (r itemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]domain.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result []domain.StockItem
	for _, item := range r.s.ExportState().Items {
		if filter.Department != nil && item.Department != *filter.Department {
			continue
		}
		if filter.DepletedOnly && !item.Depleted() {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (r itemRepo) Mutate(ctx context.Context, id int64, fn repository.ItemMutation) (*domain.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := r.s.itemRow(id)
	if !ok {
		return nil, repository.ErrNotFound
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	next, err := r.stageItem(row, id, fn)
	if err != nil {
		return nil, err
	}
	err = r.s.commit(func(candidate *Snapshot) (func(), error) {
		candidate.putItem(next)
		return func() { row.value.Store(&next) }, nil
	})
	if err != nil {
		return nil, err
	}
	result := next
	return &result, nil
}

// stageItem applies fn to a copy of the row's value. row.mu must be held.
func (r itemRepo) stageItem(row *itemRow, id int64, fn repository.ItemMutation) (domain.StockItem, error) {
	if row.deleted.Load() {
		return domain.StockItem{}, repository.ErrNotFound
	}
	next := *row.value.Load()
	if err := fn(&next); err != nil {
		return domain.StockItem{}, err
	}
	next.ID = id
	next.UpdatedAt = r.s.now()
	return next, nil
}

func (r itemRepo) Delete(ctx context.Context, id int64, guard repository.ItemMutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, ok := r.s.itemRow(id)
	if !ok {
		return repository.ErrNotFound
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	if row.deleted.Load() {
		return repository.ErrNotFound
	}
	if guard != nil {
		current := *row.value.Load()
		if err := guard(&current); err != nil {
			return err
		}
	}
	return r.s.commit(func(candidate *Snapshot) (func(), error) {
		candidate.dropItem(id)
		return func() {
			row.deleted.Store(true)
			r.s.mu.Lock()
			delete(r.s.items, id)
			r.s.mu.Unlock()
		}, nil
	})
}
