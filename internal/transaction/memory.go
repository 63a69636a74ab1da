package transaction

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRepository keeps transactions in process memory, in insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []Transaction
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, owner uuid.UUID, in NewTransaction) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := Transaction{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Datetime:    in.Datetime.UTC(),
		UserID:      owner,
		CreatedAt:   r.now().UTC(),
	}
	r.items = append(r.items, t)
	return &t, nil
}

func (r *MemoryRepository) GetOwned(_ context.Context, owner, id uuid.UUID) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.items {
		if t.ID == id && t.UserID == owner {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) List(_ context.Context, owner uuid.UUID, q ListQuery) ([]Transaction, int, error) {
	compare, ok := comparators[q.Sort]
	if !ok {
		return nil, 0, ErrInvalidSort
	}

	r.mu.RLock()
	owned := make([]Transaction, 0)
	for _, t := range r.items {
		if t.UserID == owner {
			owned = append(owned, t)
		}
	}
	r.mu.RUnlock()

	// stable sort keeps insertion order among equal keys
	slices.SortStableFunc(owned, compare)

	total := len(owned)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}

	page := make([]Transaction, end-start)
	copy(page, owned[start:end])
	return page, total, nil
}

func (r *MemoryRepository) DeleteOwned(_ context.Context, owner, id uuid.UUID) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.items {
		if t.ID == id && t.UserID == owner {
			r.items = slices.Delete(r.items, i, i+1)
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Totals(_ context.Context, owner uuid.UUID) (Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := Totals{Income: decimal.Zero, Expenses: decimal.Zero}
	for _, t := range r.items {
		if t.UserID != owner {
			continue
		}
		totals.Count++
		price := decimal.NewFromFloat(t.Price)
		switch {
		case price.IsPositive():
			totals.Income = totals.Income.Add(price)
		case price.IsNegative():
			totals.Expenses = totals.Expenses.Add(price)
		}
	}
	return totals, nil
}

var comparators = map[Sort]func(a, b Transaction) int{
	SortLatest:  func(a, b Transaction) int { return b.Datetime.Compare(a.Datetime) },
	SortOldest:  func(a, b Transaction) int { return a.Datetime.Compare(b.Datetime) },
	SortHighest: func(a, b Transaction) int { return cmp.Compare(b.Price, a.Price) },
	SortLowest:  func(a, b Transaction) int { return cmp.Compare(a.Price, b.Price) },
}

var _ Repository = (*MemoryRepository)(nil)
