// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
)

// SQLSTATE codes the stores branch on.
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// The action is a snake_case label (e.g. "find_thesis") recorded in the cause.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// Already classified upstream (e.g. by a nested store call).
	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Resource").WithCause(fmt.Errorf("%s: %w", action, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return apperr.Conflict("Resource already exists").WithCause(fmt.Errorf("%s: %w", action, err))
		case checkViolation:
			return apperr.InvalidState("Operation violates a lifecycle constraint").WithCause(fmt.Errorf("%s: %w", action, err))
		}
	}

	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// NotFound is like [Wrap] but names the missing resource in the client message.
func NotFound(err error, resource, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource).WithCause(fmt.Errorf("%s: %w", action, err))
	}
	return Wrap(err, action)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
