package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the stock repositories react to.
const (
	codeLockNotAvailable = "55P03"
	codeCheckViolation   = "23514"
)

// IsLockNotAvailable reports a lock_timeout expiry on SELECT ... FOR UPDATE.
func IsLockNotAvailable(err error) bool {
	return hasCode(err, codeLockNotAvailable)
}

// IsCheckViolation reports a violated CHECK constraint, such as a
// non-positive ledger quantity.
func IsCheckViolation(err error) bool {
	return hasCode(err, codeCheckViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
