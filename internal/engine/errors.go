package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/drillstore/internal/ordering"
	"github.com/roach88/drillstore/internal/store"
)

// Error is the structured failure every action reports.
//
// Not-found and constraint errors are recoverable: the caller can retry
// with corrected input. Broken-invariant errors mean the document was
// already inconsistent before the action ran and must not be retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Table is the table the failure concerns, when known.
	Table string

	// IDs lists the offending row ids, when known.
	IDs []int64

	// Err is the underlying cause.
	Err error

	stack string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates referenced rows do not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConstraint indicates the store rejected a write.
	ErrCodeConstraint ErrorCode = "CONSTRAINT_VIOLATION"

	// ErrCodeBrokenInvariant indicates the document is inconsistent.
	ErrCodeBrokenInvariant ErrorCode = "BROKEN_INVARIANT"

	// ErrCodeInvalidArgument indicates a request the engine refuses.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeInternal covers everything else.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s (table=%s)", e.Code, e.Message, e.Table)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Stack returns the goroutine stack captured for internal failures.
func (e *Error) Stack() string {
	return e.stack
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundError reports ids missing from table.
func NotFoundError(table string, ids []int64) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("No items with ids [%s] in table %q", joinIDs(ids), table),
		Table:   table,
		IDs:     ids,
	}
}

// InvalidArgument reports a request the engine refuses to apply.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// ConstraintViolation reports a write the document rules forbid even
// though the store itself would accept it.
func ConstraintViolation(table, format string, args ...any) *Error {
	return &Error{Code: ErrCodeConstraint, Message: fmt.Sprintf(format, args...), Table: table}
}

// BrokenInvariant reports a document that was inconsistent before the
// action ran.
func BrokenInvariant(table string, err error) *Error {
	return &Error{Code: ErrCodeBrokenInvariant, Message: "document may be corrupted: " + err.Error(), Table: table, Err: err}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool {
	return hasCode(err, ErrCodeConstraint)
}

// IsBrokenInvariant reports whether err means the document is corrupted.
func IsBrokenInvariant(err error) bool {
	return hasCode(err, ErrCodeBrokenInvariant)
}

// IsInvalidArgument reports whether err is an invalid-argument error.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// classify maps any error surfacing from an action to an *Error.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case store.IsConstraintError(err):
		return &Error{Code: ErrCodeConstraint, Message: err.Error(), Err: err}
	case errors.Is(err, ordering.ErrBrokenInvariant), errors.Is(err, store.ErrReplayDiverged):
		return BrokenInvariant("", err)
	case errors.Is(err, store.ErrRowNotFound):
		return &Error{Code: ErrCodeNotFound, Message: err.Error(), Err: err}
	default:
		return &Error{Code: ErrCodeInternal, Message: err.Error(), Err: err}
	}
}

func joinIDs(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
