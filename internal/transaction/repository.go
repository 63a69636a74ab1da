package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/mybucks/internal/database"
)

// ErrNotFound is returned for a missing transaction and for one owned by someone else.
var ErrNotFound = errors.New("transaction not found")

// Repository persists transactions. Every read and delete is scoped to an owner.
type Repository interface {
	Create(ctx context.Context, owner uuid.UUID, in NewTransaction) (*Transaction, error)
	GetOwned(ctx context.Context, owner, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, owner uuid.UUID, q ListQuery) ([]Transaction, int, error)
	DeleteOwned(ctx context.Context, owner, id uuid.UUID) (*Transaction, error)
	Totals(ctx context.Context, owner uuid.UUID) (Totals, error)
}

var orderBy = map[Sort]string{
	SortLatest:  "t.datetime DESC, t.seq ASC",
	SortOldest:  "t.datetime ASC, t.seq ASC",
	SortHighest: "t.price DESC, t.seq ASC",
	SortLowest:  "t.price ASC, t.seq ASC",
}

// BunRepository handles transaction persistence in Postgres
type BunRepository struct {
	db bun.IDB
}

func NewBunRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) Create(ctx context.Context, owner uuid.UUID, in NewTransaction) (*Transaction, error) {
	dbTx := &database.Transaction{
		UserID:      owner,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Datetime:    in.Datetime,
	}

	_, err := r.db.NewInsert().
		Model(dbTx).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return mapDBTransactionToModel(dbTx), nil
}

func (r *BunRepository) GetOwned(ctx context.Context, owner, id uuid.UUID) (*Transaction, error) {
	dbTx := new(database.Transaction)
	err := r.db.NewSelect().
		Model(dbTx).
		Where("id = ?", id).
		Where("user_id = ?", owner).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return mapDBTransactionToModel(dbTx), nil
}

// List returns one page in the requested order and the owner's total count
func (r *BunRepository) List(ctx context.Context, owner uuid.UUID, q ListQuery) ([]Transaction, int, error) {
	order, ok := orderBy[q.Sort]
	if !ok {
		return nil, 0, ErrInvalidSort
	}

	total, err := r.db.NewSelect().
		Model((*database.Transaction)(nil)).
		Where("user_id = ?", owner).
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var rows []database.Transaction
	err = r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", owner).
		OrderExpr(order).
		Limit(q.Limit).
		Offset(q.Offset).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, *mapDBTransactionToModel(&rows[i]))
	}
	return out, total, nil
}

// DeleteOwned removes the row only when both id and owner match
func (r *BunRepository) DeleteOwned(ctx context.Context, owner, id uuid.UUID) (*Transaction, error) {
	dbTx := new(database.Transaction)
	err := r.db.NewDelete().
		Model(dbTx).
		Where("id = ?", id).
		Where("user_id = ?", owner).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}

	return mapDBTransactionToModel(dbTx), nil
}

// Totals sums in numeric so income and expenses carry no float drift
func (r *BunRepository) Totals(ctx context.Context, owner uuid.UUID) (Totals, error) {
	var totals Totals
	err := r.db.NewSelect().
		Model((*database.Transaction)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("COALESCE(SUM(price::numeric) FILTER (WHERE price > 0), 0)").
		ColumnExpr("COALESCE(SUM(price::numeric) FILTER (WHERE price < 0), 0)").
		Where("user_id = ?", owner).
		Scan(ctx, &totals.Count, &totals.Income, &totals.Expenses)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return totals, nil
}

func mapDBTransactionToModel(t *database.Transaction) *Transaction {
	return &Transaction{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Datetime:    t.Datetime.UTC(),
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

var _ Repository = (*BunRepository)(nil)
