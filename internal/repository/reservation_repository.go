package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/stock-ledger/internal/domain"
)

// ReservationFilter narrows restock request listings.
type ReservationFilter struct {
	Status     *domain.ReservationStatus
	Department *string
}

// ReservationMutation inspects and modifies a restock request while its row is locked.
type ReservationMutation func(res *domain.Reservation) error

// ReservationRepository stores restock requests.
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error)
	Mutate(ctx context.Context, id int64, fn ReservationMutation) (*domain.Reservation, error)
	// Fulfill locks the request and then its item in one transaction. fn
	// transitions the request, refill updates the item, and both persist or
	// neither does.
	Fulfill(ctx context.Context, id int64, fn ReservationMutation, refill ItemMutation) (*domain.Reservation, *domain.StockItem, error)
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

const reservationColumns = `id, item_id, item_name, department, user_email, daily_usage, amount_to_refill,
        created_on, expected_restock_date, status, fulfilled_on`

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	const query = `
        INSERT INTO reservations (item_id, item_name, department, user_email, daily_usage, amount_to_refill,
            created_on, expected_restock_date, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		res.ItemID,
		res.ItemName,
		res.Department,
		res.UserEmail,
		res.DailyUsage,
		res.AmountToRefill,
		res.CreatedOn,
		res.ExpectedRestockDate,
		res.Status,
	).Scan(&res.ID)
	return translate(err)
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id=$1`
	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

func (r *reservationRepository) List(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE %s ORDER BY id`, reservationColumns, strings.Join(clauses, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}
	return result, rows.Err()
}

func (r *reservationRepository) Mutate(ctx context.Context, id int64, fn ReservationMutation) (*domain.Reservation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := lockReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(res); err != nil {
		return nil, err
	}
	if err := saveReservation(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translate(err)
	}
	return res, nil
}

func (r *reservationRepository) Fulfill(ctx context.Context, id int64, fn ReservationMutation, refill ItemMutation) (*domain.Reservation, *domain.StockItem, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, translate(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := lockReservation(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := fn(res); err != nil {
		return nil, nil, err
	}
	item, err := lockItem(ctx, tx, res.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if err := refill(item); err != nil {
		return nil, nil, err
	}
	if err := saveItem(ctx, tx, item); err != nil {
		return nil, nil, err
	}
	if err := saveReservation(ctx, tx, res); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, translate(err)
	}
	return res, item, nil
}

func lockReservation(ctx context.Context, tx pgx.Tx, id int64) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id=$1 FOR UPDATE`
	res, err := scanReservation(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

func saveReservation(ctx context.Context, tx pgx.Tx, res *domain.Reservation) error {
	const update = `UPDATE reservations SET status=$1, fulfilled_on=$2 WHERE id=$3`
	_, err := tx.Exec(ctx, update, res.Status, res.FulfilledOn, res.ID)
	return translate(err)
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(
		&res.ID,
		&res.ItemID,
		&res.ItemName,
		&res.Department,
		&res.UserEmail,
		&res.DailyUsage,
		&res.AmountToRefill,
		&res.CreatedOn,
		&res.ExpectedRestockDate,
		&res.Status,
		&res.FulfilledOn,
	); err != nil {
		return nil, err
	}
	return &res, nil
}
