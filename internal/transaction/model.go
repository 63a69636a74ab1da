package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a signed monetary entry owned by one user. Negative prices are expenses.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Datetime    time.Time `json:"datetime"`
	UserID      uuid.UUID `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Sort selects the ordering of a listing
type Sort string

const (
	SortLatest  Sort = "latest"
	SortOldest  Sort = "oldest"
	SortHighest Sort = "highest"
	SortLowest  Sort = "lowest"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ListQuery is a normalized listing request
type ListQuery struct {
	Sort   Sort
	Limit  int
	Offset int
}

// Pagination describes the window returned by List
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// ListResult is the body of GET /api/transactions
type ListResult struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

// Totals are the raw aggregates of one owner's transactions
type Totals struct {
	Count    int
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// Summary is the body of GET /api/transactions/summary
type Summary struct {
	Count    int          `json:"count"`
	Income   string       `json:"income" example:"250.00"`
	Expenses string       `json:"expenses" example:"-55.50"`
	Balance  string       `json:"balance" example:"194.50"`
	Latest   *Transaction `json:"latest"`
}

// DeleteResult is the body of DELETE /api/transaction/{id}
type DeleteResult struct {
	Success bool        `json:"success"`
	Deleted Transaction `json:"deleted"`
}
