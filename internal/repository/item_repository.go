package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/stock-ledger/internal/domain"
)

// ItemFilter narrows item listings.
type ItemFilter struct {
	Department   *string
	DepletedOnly bool
}

// ItemMutation inspects and modifies an item while its row is locked.
// Returning an error aborts the change.
type ItemMutation func(item *domain.StockItem) error

// ItemRepository encapsulates stock item persistence.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.StockItem) error
	GetByID(ctx context.Context, id int64) (*domain.StockItem, error)
	List(ctx context.Context, filter ItemFilter) ([]domain.StockItem, error)
	// Mutate runs fn under a per-item lock and persists the result atomically.
	Mutate(ctx context.Context, id int64, fn ItemMutation) (*domain.StockItem, error)
	// Delete removes the item once guard accepts it under the same lock.
	Delete(ctx context.Context, id int64, guard ItemMutation) error
}

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository instantiates repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

const itemColumns = `id, department, type, name, current_amount, amount_needed, created_at, updated_at`

func (r *itemRepository) Create(ctx context.Context, item *domain.StockItem) error {
	const query = `
        INSERT INTO items (department, type, name, current_amount, amount_needed)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		item.Department,
		item.Type,
		item.Name,
		item.CurrentAmount,
		item.AmountNeeded,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return translate(err)
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.StockItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id=$1`
	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, filter ItemFilter) ([]domain.StockItem, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.DepletedOnly {
		clauses = append(clauses, "current_amount = 0")
	}

	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY id`, itemColumns, strings.Join(clauses, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.StockItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *itemRepository) Mutate(ctx context.Context, id int64, fn ItemMutation) (*domain.StockItem, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	item, err := lockItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	if err := saveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64, guard ItemMutation) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return translate(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	item, err := lockItem(ctx, tx, id)
	if err != nil {
		return err
	}
	if guard != nil {
		if err := guard(item); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE id=$1`, id); err != nil {
		return translate(err)
	}
	return translate(tx.Commit(ctx))
}

// lockItem reads an item and holds its row lock until tx ends.
func lockItem(ctx context.Context, tx pgx.Tx, id int64) (*domain.StockItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id=$1 FOR UPDATE`
	item, err := scanItem(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return item, nil
}

func saveItem(ctx context.Context, tx pgx.Tx, item *domain.StockItem) error {
	const update = `
        UPDATE items SET department=$1, type=$2, name=$3, current_amount=$4, amount_needed=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := tx.QueryRow(ctx, update,
		item.Department,
		item.Type,
		item.Name,
		item.CurrentAmount,
		item.AmountNeeded,
		item.ID,
	).Scan(&item.UpdatedAt)
	return translate(err)
}

func scanItem(row pgx.Row) (*domain.StockItem, error) {
	var item domain.StockItem
	if err := row.Scan(
		&item.ID,
		&item.Department,
		&item.Type,
		&item.Name,
		&item.CurrentAmount,
		&item.AmountNeeded,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
