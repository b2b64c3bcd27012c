package memory

import (
	"context"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
)

type reservationRepo struct{ s *Store }

func (r reservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.commit(func(candidate *Snapshot) (func(), error) {
		r.s.mu.RLock()
		id := r.s.nextRes + 1
		r.s.mu.RUnlock()

		stored := *res
		stored.ID = id
		candidate.putReservation(stored)

		return func() {
			row := &reservationRow{}
			row.value.Store(&stored)
			r.s.mu.Lock()
			r.s.nextRes = id
			r.s.reservations[id] = row
			r.s.mu.Unlock()
			res.ID = id
		}, nil
	})
}

func (r reservationRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := r.s.reservationRow(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	res := *row.value.Load()
	return &res, nil
}

func (r reservationRepo) List(ctx context.Context, filter repository.ReservationFilter) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result []domain.Reservation
	for _, res := range r.s.ExportState().Reservations {
		if filter.Status != nil && res.Status != *filter.Status {
			continue
		}
		if filter.Department != nil && res.Department != *filter.Department {
			continue
		}
		result = append(result, res)
	}
	return result, nil
}

func (r reservationRepo) Mutate(ctx context.Context, id int64, fn repository.ReservationMutation) (*domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := r.s.reservationRow(id)
	if !ok {
		return nil, repository.ErrNotFound
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	next := *row.value.Load()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = id
	err := r.s.commit(func(candidate *Snapshot) (func(), error) {
		candidate.putReservation(next)
		return func() { row.value.Store(&next) }, nil
	})
	if err != nil {
		return nil, err
	}
	result := next
	return &result, nil
}

// Fulfill locks the request, then its item, and publishes both changes in a
// single commit.
func (r reservationRepo) Fulfill(ctx context.Context, id int64, fn repository.ReservationMutation, refill repository.ItemMutation) (*domain.Reservation, *domain.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	resRow, ok := r.s.reservationRow(id)
	if !ok {
		return nil, nil, repository.ErrNotFound
	}

	resRow.mu.Lock()
	defer resRow.mu.Unlock()
	nextRes := *resRow.value.Load()
	if err := fn(&nextRes); err != nil {
		return nil, nil, err
	}
	nextRes.ID = id

	stockRow, ok := r.s.itemRow(nextRes.ItemID)
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	stockRow.mu.Lock()
	defer stockRow.mu.Unlock()
	nextItem, err := itemRepo{r.s}.stageItem(stockRow, nextRes.ItemID, refill)
	if err != nil {
		return nil, nil, err
	}

	err = r.s.commit(func(candidate *Snapshot) (func(), error) {
		candidate.putReservation(nextRes)
		candidate.putItem(nextItem)
		return func() {
			resRow.value.Store(&nextRes)
			stockRow.value.Store(&nextItem)
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	res, item := nextRes, nextItem
	return &res, &item, nil
}
