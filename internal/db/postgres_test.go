package db

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)

	sql := string(raw)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "CHECK (balance >= 0)")
	assert.Contains(t, sql, "CHECK (required_workers >= 0)")
	assert.Contains(t, sql, "provider_reference TEXT NOT NULL UNIQUE")
}

func TestRunMigrations_WrapsError(t *testing.T) {
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	conn := sqlx.NewDb(raw, "sqlmock")

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	gooseUp = func(ctx context.Context, c *sqlx.DB) error {
		return errors.New("lock timeout")
	}

	err = RunMigrations(context.Background(), conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")
}

func TestRunMigrations_Success(t *testing.T) {
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	conn := sqlx.NewDb(raw, "sqlmock")

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	called := false
	gooseUp = func(ctx context.Context, c *sqlx.DB) error {
		called = true
		assert.Same(t, conn, c)
		return nil
	}

	require.NoError(t, RunMigrations(context.Background(), conn))
	assert.True(t, called)
}
