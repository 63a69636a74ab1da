package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted form of an account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Transaction is the persisted form of a ledger entry.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID      uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	Price       float64   `bun:"price,notnull"`
	Datetime    time.Time `bun:"datetime,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	// Seq is assigned by the database and breaks sort ties in insertion order.
	Seq int64 `bun:"seq,nullzero"`
}
