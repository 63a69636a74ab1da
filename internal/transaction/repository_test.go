package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

var txColumns = []string{"id", "user_id", "name", "description", "price", "datetime", "created_at", "seq"}

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := bun.NewDB(sqlDB, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestBunRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBunRepository(db)

	owner, id := uuid.New(), uuid.New()
	at := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO "transactions" .* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(txColumns).
			AddRow(id.String(), owner.String(), "coffee", "", -5.0, at, at, int64(1)))

	got, err := repo.Create(context.Background(), owner, NewTransaction{Name: "coffee", Price: -5, Datetime: at})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, -5.0, got.Price)
	assert.True(t, got.Datetime.Equal(at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBunRepository_ListScopesAndOrders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBunRepository(db)

	owner := uuid.New()
	at := time.Now().UTC()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "transactions" AS "t" WHERE \(user_id = '` + owner.String() + `'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT .* FROM "transactions" AS "t" WHERE \(user_id = '` + owner.String() + `'\) ORDER BY t.price DESC, t.seq ASC LIMIT 2 OFFSET 1`).
		WillReturnRows(sqlmock.NewRows(txColumns).
			AddRow(uuid.NewString(), owner.String(), "b", "", 10.0, at, at, int64(2)).
			AddRow(uuid.NewString(), owner.String(), "c", "", -50.0, at, at, int64(3)))

	items, total, err := repo.List(context.Background(), owner, ListQuery{Sort: SortHighest, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Name)
	assert.Equal(t, "c", items[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBunRepository_ListRejectsUnknownSort(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBunRepository(db)

	_, _, err := repo.List(context.Background(), uuid.New(), ListQuery{Sort: "random", Limit: 10})
	assert.ErrorIs(t, err, ErrInvalidSort)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBunRepository_DeleteOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBunRepository(db)

	owner, id := uuid.New(), uuid.New()
	at := time.Now().UTC()
	mock.ExpectQuery(`DELETE FROM "transactions" .*WHERE \(id = '` + id.String() + `'\) AND \(user_id = '` + owner.String() + `'\) RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(txColumns).
			AddRow(id.String(), owner.String(), "coffee", "", -5.0, at, at, int64(1)))

	deleted, err := repo.DeleteOwned(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, deleted.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBunRepository_DeleteOwned_Miss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBunRepository(db)

	mock.ExpectQuery(`DELETE FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows(txColumns))

	_, err := repo.DeleteOwned(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBunRepository_GetOwned_Miss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBunRepository(db)

	mock.ExpectQuery(`SELECT .* FROM "transactions" AS "t" WHERE \(id = .+\) AND \(user_id = .+\)`).
		WillReturnRows(sqlmock.NewRows(txColumns))

	_, err := repo.GetOwned(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBunRepository_Totals(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBunRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\), COALESCE\(SUM\(price::numeric\) FILTER \(WHERE price > 0\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "income", "expenses"}).
			AddRow(int64(3), "250.00", "-55.50"))

	totals, err := repo.Totals(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Count)
	assert.Equal(t, "250.00", totals.Income.StringFixed(2))
	assert.Equal(t, "-55.50", totals.Expenses.StringFixed(2))
	assert.Equal(t, "194.50", totals.Income.Add(totals.Expenses).StringFixed(2))
}
