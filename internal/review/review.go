// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package review approves and rejects submissions.

A review is one unit of work: lock the submission, authorize the reviewer,
apply the state transition and, on approval, issue the reference number.
Either all of it commits or none of it does. The owner is notified only
after the commit.
*/
package review

import (
	"context"

	"github.com/taibuivan/scholaris/internal/platform/postgres"
	"github.com/taibuivan/scholaris/internal/reference"
	"github.com/taibuivan/scholaris/internal/submission"
)

// Store exposes the repositories bound to one unit of work.
type Store interface {
	Submissions() submission.Repository
	References() reference.Allocator
}

// UnitOfWork runs fn atomically. A non-nil error from fn discards every write.
type UnitOfWork interface {
	Do(context context.Context, fn func(context context.Context, store Store) error) error
}

// # PostgreSQL Unit of Work

// PostgresUnitOfWork binds both repositories to one transaction.
type PostgresUnitOfWork struct {
	transactor *postgres.Transactor
}

// NewPostgresUnitOfWork constructs a [PostgresUnitOfWork].
func NewPostgresUnitOfWork(transactor *postgres.Transactor) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{transactor: transactor}
}

// Do implements [UnitOfWork].
func (unit *PostgresUnitOfWork) Do(ctx context.Context, fn func(context context.Context, store Store) error) error {
	return unit.transactor.WithinTx(ctx, func(ctx context.Context, tx postgres.DBTX) error {
		return fn(ctx, txStore{
			submissions: submission.NewPostgresRepository(tx),
			references:  reference.NewPostgresRepository(tx),
		})
	})
}

type txStore struct {
	submissions *submission.PostgresRepository
	references  *reference.PostgresRepository
}

func (store txStore) Submissions() submission.Repository { return store.submissions }
func (store txStore) References() reference.Allocator    { return store.references }
