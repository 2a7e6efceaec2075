package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// IsContention reports whether err is a transient write-lock failure that
// succeeds when the transaction is retried.
func IsContention(err error) bool {
	if err == nil {
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	if code := pgCode(err); code != "" {
		switch code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// IsUniqueViolation reports whether err is a unique constraint failure. When
// constraint is provided, the helper also requires the constraint (or column)
// name to appear in the error.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}

	unique := false
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		unique = liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	} else if code := pgCode(err); code != "" {
		unique = code == pgUniqueViolation
	} else {
		msg := err.Error()
		unique = strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "UNIQUE constraint failed")
	}

	if !unique {
		return false
	}
	if constraint != "" {
		return strings.Contains(err.Error(), constraint)
	}
	return true
}

func pgCode(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
