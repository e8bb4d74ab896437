// database/errors.go
package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL server errors after which InnoDB may have rolled back the whole transaction.
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// StorageError is a batch-level failure of the relational store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// txLost reports whether err leaves the surrounding transaction unusable, so that per-row
// savepoint recovery no longer applies and the batch must be abandoned.
func txLost(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout
	}
	return false
}
