package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const DBTxKey contextKey = "db_tx"

// Classified transaction failures. Handlers map these onto the user-facing
// message categories; anything else is reported generically.
var (
	ErrDuplicate   = errors.New("duplicate record")
	ErrLockTimeout = errors.New("lock wait timed out")
	ErrForeignKey  = errors.New("referenced record missing")
)

// WithTx runs fn inside a single transaction. The transaction is placed in the
// context so repository methods pick it up via their conn(ctx) helper; partial
// failure rolls everything back.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		return Classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// TxFromContext retrieves the in-flight transaction, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// Classify folds a Postgres error into one of the sentinel categories.
// SQLSTATE 23505 is unique_violation, 23503 foreign_key_violation, 55P03
// lock_not_available (the bounded lock_timeout fired).
func Classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
		case "55P03":
			return ErrLockTimeout
		}
	}
	return err
}
