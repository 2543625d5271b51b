package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DBTX: общий интерфейс *sqlx.DB и *sqlx.Tx, через него работают все репозитории.
type DBTX interface {
	sqlx.ExtContext
}

// GetByID - универсальная функция для получения сущности по ID
func GetByID[T any](ctx context.Context, db DBTX, table string, id interface{}, notFoundErr error) (*T, error) {
	var entity T
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", table)

	if err := sqlx.GetContext(ctx, db, &entity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("get by id from %s: %w", table, err)
	}

	return &entity, nil
}

// SelectPage - выборка списка с пагинацией, пустой результат отдаётся как пустой срез
func SelectPage[T any](ctx context.Context, db DBTX, query string, args ...interface{}) ([]T, error) {
	items := make([]T, 0)
	if err := sqlx.SelectContext(ctx, db, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// ExpectOneRow проверяет, что охраняемый UPDATE затронул ровно одну строку
func ExpectOneRow(res sql.Result, noRowsErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return noRowsErr
	}
	return nil
}

// IsUniqueViolation сообщает, что Postgres отклонил вставку из-за уникального индекса
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// WithTransaction выполняет функцию внутри транзакции с правильной обработкой ошибок
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// При панике откатываем транзакцию
			_ = tx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	err = fn(tx)
	if err != nil {
		// При ошибке откатываем транзакцию
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	// Коммитим транзакцию
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
