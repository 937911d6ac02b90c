// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"

	"github.com/taibuivan/scholaris/pkg/pagination"
)

// # Ledger Data Access

// Repository defines the data access contract for reference numbers.
type Repository interface {
	Allocator

	/*
		NextSerial returns the next serial for (code, year). The counter row stays
		locked until the surrounding transaction ends, and a rollback undoes the
		increment. The counter never falls behind the highest recorded serial.
	*/
	NextSerial(context context.Context, code TypeCode, year int) (int, error)

	/*
		InsertIfAbsent persists record unless its number already exists.

		Returns:
		  - error: [ErrNumberTaken] on collision
	*/
	InsertIfAbsent(context context.Context, record *Record) error

	/*
		AppendVerification atomically appends entry to the record with the given
		number. Nothing is written when the number is unknown.

		Returns:
		  - error: NOT_FOUND if no record carries number
	*/
	AppendVerification(context context.Context, number string, entry LogEntry) error

	// FindByID returns a record with its submission summary and full log.
	FindByID(context context.Context, id string) (*Record, error)

	// FindByNumber returns a record with its submission summary and full log.
	FindByNumber(context context.Context, number string) (*Record, error)

	/*
		MarkReceived persists the receipt of a record that is still issued.

		Returns:
		  - error: INVALID_STATE if already received; NOT_FOUND if gone
	*/
	MarkReceived(context context.Context, record *Record) error

	// ListForUser returns records whose submission is owned or supervised by userID.
	ListForUser(context context.Context, userID string, page pagination.Params) ([]*Record, int, error)

	// ListAll returns every record, newest first.
	ListAll(context context.Context, page pagination.Params) ([]*Record, int, error)
}
