package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBExecutor wraps a pgx pool and provides transaction scoping.
type DBExecutor struct {
	pool *pgxpool.Pool
}

// NewDBExecutor creates a new PostgreSQL database executor
func NewDBExecutor(pool *pgxpool.Pool) *DBExecutor {
	return &DBExecutor{pool: pool}
}

// Pool returns the underlying database connection pool
func (db *DBExecutor) Pool() *pgxpool.Pool {
	return db.pool
}

// WithTransaction executes a function within a database transaction.
// The transaction is explicitly passed to the callback function.
func (db *DBExecutor) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// EnsureSchema creates the payment_orders table if it does not exist.
// Intended for startup in environments without a separate migration step.
func (db *DBExecutor) EnsureSchema(ctx context.Context) error {
	return db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS payment_orders (
				id              UUID PRIMARY KEY,
				track_id        VARCHAR(255) NOT NULL UNIQUE,
				payment_id      TEXT,
				amount          NUMERIC(12, 2) NOT NULL,
				currency_code   VARCHAR(3) NOT NULL,
				language        VARCHAR(3) NOT NULL,
				response_url    TEXT NOT NULL,
				error_url       TEXT NOT NULL,
				status          VARCHAR(32) NOT NULL,
				result          TEXT,
				response_code   TEXT,
				auth_code       TEXT,
				card_brand      TEXT,
				card_last_four  VARCHAR(4),
				transaction_ref TEXT,
				ack             BYTEA,
				created_at      TIMESTAMPTZ NOT NULL,
				updated_at      TIMESTAMPTZ NOT NULL
			)`)
		if err != nil {
			return fmt.Errorf("create payment_orders: %w", err)
		}
		_, err = tx.Exec(ctx, `
			CREATE INDEX IF NOT EXISTS idx_payment_orders_status_updated
			ON payment_orders (status, updated_at)`)
		if err != nil {
			return fmt.Errorf("create status index: %w", err)
		}
		return nil
	})
}
