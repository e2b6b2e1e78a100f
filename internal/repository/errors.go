package repository

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConstraint is returned when a write violates a table constraint
	ErrConstraint = errors.New("constraint violation")
)

// wrapConstraint marks sqlite constraint failures with ErrConstraint
func wrapConstraint(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return errors.Join(ErrConstraint, err)
	}
	return err
}
