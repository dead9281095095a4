// Package repository implements data access on top of database/sql and
// the MySQL driver.  Every statement binds its values through `?`
// placeholders; dynamic filters only ever append fixed SQL fragments.
//
// Driver errors are classified here into the domain taxonomy so that the
// service and handler layers never inspect MySQL error numbers.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-ticketing/internal/domain"
)

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports whether err is a unique or primary key violation.
func isDuplicate(err error) bool { return mysqlErrNumber(err) == errDupEntry }

// isTxConflict reports whether InnoDB aborted the transaction to break a
// deadlock or because a row lock could not be obtained in time.
func isTxConflict(err error) bool {
	switch mysqlErrNumber(err) {
	case errDeadlock, errLockWaitTimeout:
		return true
	}
	return false
}

// classify maps a driver error to the domain taxonomy.  Transaction
// conflicts stay retriable; everything else becomes a storage failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTxConflict(err) {
		return errors.Join(domain.ErrTxConflict, err)
	}
	return domain.Storage(op, err)
}

// containsKey reports whether a duplicate-entry message names the given
// index.  MySQL only exposes the index through the message text.
func containsKey(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return strings.Contains(me.Message, "'"+key+"'") || strings.Contains(me.Message, "."+key+"'")
}
