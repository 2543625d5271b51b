package db

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// NewPostgres создаёт подключение к PostgreSQL с заданным DSN.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	// Настраиваем пул соединений.
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return conn, nil
}

// gooseUp подменяется в тестах.
var gooseUp = func(ctx context.Context, conn *sqlx.DB) error {
	return goose.UpContext(ctx, conn.DB, migrationsDir)
}

// RunMigrations применяет встроенные миграции goose.
func RunMigrations(ctx context.Context, conn *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := gooseUp(ctx, conn); err != nil {
		return fmt.Errorf("postgres: ошибка миграций: %w", err)
	}
	return nil
}

// MigrationStatus печатает состояние миграций через логгер goose.
func MigrationStatus(ctx context.Context, conn *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, conn.DB, migrationsDir)
}

// RollbackMigration откатывает последнюю применённую миграцию.
func RollbackMigration(ctx context.Context, conn *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.DownContext(ctx, conn.DB, migrationsDir)
}

func prepareGoose() error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: не удалось выбрать диалект goose: %w", err)
	}
	return nil
}
