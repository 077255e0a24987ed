// Package repository implements the store contract on MySQL.  Repositories
// expose plain methods that run against the pool and Tx-suffixed methods
// that run inside a caller-provided transaction; SQLStore ties them
// together behind store.Store.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/game-store/internal/apperr"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFoundOr maps sql.ErrNoRows to a NOT_FOUND error with msg and returns
// any other error unchanged.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(msg)
	}
	return err
}
