package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_transactions.sql"}, names)

	body, err := fs.ReadFile(migrations, "migrations/00002_create_transactions.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "-- +goose Up"))
	assert.True(t, strings.Contains(string(body), "-- +goose Down"))
}

func TestMigrate_RunsGooseOnEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, "migrations", gotDir)
}

func TestMigrate_WrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	boom := errors.New("boom")
	gooseUp = func(context.Context, *sql.DB, string) error { return boom }

	err := Migrate(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "apply migrations")
}
