package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/canopy-network/suinsx/pkg/db"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	classConnectionException = "08"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// IsTransient reports whether retrying the same statement may succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch code := pgCode(err); {
	case code == codeSerializationFailure, code == codeDeadlockDetected:
		return true
	case strings.HasPrefix(code, classConnectionException):
		return true
	case code != "":
		return false
	}
	// errors raised before the server answered: dial, reset, timeouts
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err) || isConnError(err)
}

func isConnError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// Classify tags transient failures with db.ErrTransient, leaving the cause reachable.
func Classify(err error) error {
	if err == nil || errors.Is(err, db.ErrTransient) || !IsTransient(err) {
		return err
	}
	return fmt.Errorf("%w: %w", db.ErrTransient, err)
}
