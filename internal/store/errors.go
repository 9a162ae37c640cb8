package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrRowNotFound is returned when a write or lookup targets a missing row.
var ErrRowNotFound = errors.New("row not found")

// ErrReplayDiverged is returned when a replayed image no longer matches the
// table it targets. It means the document changed outside captured writes.
var ErrReplayDiverged = errors.New("replay diverged from recorded history")

// ErrNotTracked is returned by capture writes on an unregistered table.
var ErrNotTracked = errors.New("table is not tracked")

func rowNotFound(table string, id int64) error {
	return fmt.Errorf("%w: %s id %d", ErrRowNotFound, table, id)
}

// IsConstraintError reports whether err is a SQLite constraint failure
// (UNIQUE, CHECK, NOT NULL or FOREIGN KEY).
func IsConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}
	return false
}

// IsForeignKeyError reports whether err is a foreign key failure, which
// with deferred constraints surfaces at commit.
func IsForeignKeyError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
