package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrorKind classifies ledger failures for the HTTP layer. Anything without a
// kind is an unexpected storage error and stays opaque to clients.
type ErrorKind int

const (
	KindInvalid ErrorKind = iota + 1
	KindNotFound
	KindConflict
)

type LedgerError struct {
	Kind    ErrorKind
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &LedgerError{Kind: KindInvalid, Message: msg}
}

func notFound(msg string) error {
	return &LedgerError{Kind: KindNotFound, Message: msg}
}

func conflict(msg string) error {
	return &LedgerError{Kind: KindConflict, Message: msg}
}

// KindOf returns the error's kind, or 0 for unexpected errors.
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

// pgLockNotAvailable is raised when lock_timeout expires while waiting on a
// session row; the caller can simply retry.
const pgLockNotAvailable = "55P03"

func storageErr(err error, missing string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(missing)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return conflict("ledger busy, retry")
	}
	return err
}

// forUpdate acquires a row-level write lock held until commit or rollback.
// SQLite (tests) has no FOR UPDATE syntax and serializes writers anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
