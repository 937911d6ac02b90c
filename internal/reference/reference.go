// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reference issues and verifies the reference numbers approved submissions carry.

# Core Responsibility

  - Allocation: a gap-free serial per (type code, year), see [Repository.NextSerial].
  - Minting: [Mint] renders {type}{year}{serial}{suffix}, e.g. MA20250008CS.
  - Issuance: [Issuer.Issue] combines both with an insert-if-absent guard.
  - Ledger: every verification lookup appends an immutable [LogEntry].

A [Record] points back at its submission through a (kind, id) [Link]; the two
submission tables are joined explicitly per kind rather than through a
polymorphic reference.
*/
package reference

import (
	"errors"
	"time"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/submission"
)

// ErrNumberTaken reports that a minted number already exists in the ledger.
// It signals an allocator race and never leaves this package.
var ErrNumberTaken = errors.New("reference: number already issued")

// # Type Codes

// TypeCode is the two-letter prefix that classifies a reference number.
type TypeCode string

const (
	TypeResearch TypeCode = "BH"
	TypeBachelor TypeCode = "LI"
	TypeMaster   TypeCode = "MA"
	TypePhD      TypeCode = "PH"

	// TypeUnknown marks an unmapped submission. It is never persisted.
	TypeUnknown TypeCode = "XX"
)

// CodeFor maps a submission kind and thesis level to its type code.
// Unmapped combinations yield [TypeUnknown].
func CodeFor(kind submission.Kind, level submission.Level) TypeCode {
	switch kind {
	case submission.KindResearch:
		return TypeResearch
	case submission.KindThesis:
		switch level {
		case submission.LevelBachelor:
			return TypeBachelor
		case submission.LevelMaster:
			return TypeMaster
		case submission.LevelPhD:
			return TypePhD
		}
	}
	return TypeUnknown
}

// TypeCodeFor is [CodeFor] that refuses to hand out [TypeUnknown].
func TypeCodeFor(kind submission.Kind, level submission.Level) (TypeCode, error) {
	code := CodeFor(kind, level)
	if code == TypeUnknown {
		return "", apperr.Configuration("No reference type is configured for " + string(kind) + " " + string(level))
	}
	return code, nil
}

// # Core Entities

// Status tracks whether the physical copy has been handed in.
type Status string

const (
	StatusIssued   Status = "issued"
	StatusReceived Status = "received"
)

// Link identifies the submission a number was issued for.
type Link struct {
	Kind submission.Kind `json:"kind"`
	ID   string          `json:"id"`
}

// Summary is the slice of the linked submission shown alongside a record.
type Summary struct {
	Title        string            `json:"title"`
	Status       submission.Status `json:"status"`
	Level        submission.Level  `json:"level,omitempty"`
	OwnerID      string            `json:"owner_id"`
	SupervisorID *string           `json:"supervisor_id,omitempty"`
}

// LogEntry is one verification lookup. Entries are append-only.
type LogEntry struct {
	VerifiedAt time.Time `json:"verified_at"`
	VerifierID string    `json:"verifier_id"`
	Result     bool      `json:"result"`
	Notes      string    `json:"notes"`
}

// Record is an issued reference number with its receipt state and verification log.
type Record struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	TypeCode     TypeCode   `json:"type_code"`
	Year         int        `json:"year"`
	Serial       int        `json:"serial"`
	Submission   Link       `json:"submission"`
	IssuedDate   time.Time  `json:"issued_date"`
	IssuedBy     string     `json:"issued_by"`
	Status       Status     `json:"status"`
	ReceivedDate *time.Time `json:"received_date,omitempty"`
	ReceivedBy   *string    `json:"received_by,omitempty"`

	// Populated by detail lookups only.
	Details *Summary   `json:"details,omitempty"`
	Log     []LogEntry `json:"verification_log,omitempty"`
}

// MarkReceived records the hand-in of the physical copy. A record is received at most once.
func (record *Record) MarkReceived(by string, at time.Time) error {
	if record.Status != StatusIssued {
		return apperr.InvalidState("Reference number has already been received")
	}
	record.Status = StatusReceived
	record.ReceivedDate = &at
	record.ReceivedBy = &by
	return nil
}

// relatedTo reports whether id owns or supervises the linked submission.
func (record *Record) relatedTo(id string) bool {
	if record.Details == nil || id == "" {
		return false
	}
	if record.Details.OwnerID == id {
		return true
	}
	return record.Details.SupervisorID != nil && *record.Details.SupervisorID == id
}
