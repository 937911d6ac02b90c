// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by the stores.
// Both *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor runs units of work inside a single PostgreSQL transaction.
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor constructs a [Transactor] over the shared pool.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

/*
WithinTx begins a transaction, runs fn with the transactional handle, and
commits when fn returns nil. Any error or panic rolls the transaction back;
panics are re-raised after the rollback.

Parameters:
  - ctx: context.Context
  - fn: func(context.Context, DBTX) error

Returns:
  - error: fn's error, or a begin/commit failure
*/
func (transactor *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	transaction, err := transactor.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("postgres: begin transaction: %w", err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = transaction.Rollback(ctx)
			panic(recovered)
		}
		if err != nil {
			_ = transaction.Rollback(ctx)
		}
	}()

	if err = fn(ctx, transaction); err != nil {
		return err
	}

	if err = transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit transaction: %w", err)
	}

	return nil
}
