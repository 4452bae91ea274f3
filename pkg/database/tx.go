package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories run their statements against whichever is active.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

// WithinTx runs fn inside a transaction carried through the context. All
// repository calls made with the derived context join the same transaction;
// any error from fn rolls everything back. Nested calls join the existing
// transaction instead of opening a new one (savepoint-free nesting: the
// outermost scope owns commit and rollback).
func WithinTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// UnitOfWork groups repository calls made with the derived context into one
// transaction. Services depend on this instead of the concrete pool so tests
// can run the function directly.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolUnitOfWork implements UnitOfWork on a pgx pool.
type PoolUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewPoolUnitOfWork creates a UnitOfWork backed by the given pool.
func NewPoolUnitOfWork(pool *pgxpool.Pool) *PoolUnitOfWork {
	return &PoolUnitOfWork{pool: pool}
}

// Within runs fn inside a transaction carried through the context.
func (u *PoolUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithinTx(ctx, u.pool, fn)
}

// QuerierFrom returns the transaction carried by ctx, or fallback when no
// transaction is active.
func QuerierFrom(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}

	return fallback
}
