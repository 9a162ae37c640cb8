package ir

import (
	"fmt"
	"math"
	"time"
)

// IRValue is a sealed interface representing a single column value.
// Only IRNull, IRInt, IRFloat and IRString implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents SQL NULL.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRInt represents an INTEGER column value.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a REAL column value (marcher coordinates).
// NaN and infinities are rejected by MarshalCanonical.
type IRFloat float64

func (IRFloat) irValue() {}

// IRString represents a TEXT column value.
type IRString string

func (IRString) irValue() {}

// Null is the shared IRNull value.
var Null = IRNull{}

// Bool encodes b the way SQLite stores booleans.
func Bool(b bool) IRInt {
	if b {
		return 1
	}
	return 0
}

// NullableString returns IRNull for nil and IRString otherwise.
func NullableString(s *string) IRValue {
	if s == nil {
		return Null
	}
	return IRString(*s)
}

// NullableInt returns IRNull for nil and IRInt otherwise.
func NullableInt(n *int64) IRValue {
	if n == nil {
		return Null
	}
	return IRInt(*n)
}

// IsNull reports whether v is SQL NULL. A nil interface counts as NULL.
func IsNull(v IRValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(IRNull)
	return ok
}

// Equal compares two values by type and content.
// IRInt(1) and IRFloat(1) are different values.
func Equal(a, b IRValue) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch av := a.(type) {
	case IRInt:
		bv, ok := b.(IRInt)
		return ok && av == bv
	case IRFloat:
		bv, ok := b.(IRFloat)
		return ok && (av == bv || (math.IsNaN(float64(av)) && math.IsNaN(float64(bv))))
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	default:
		return false
	}
}

// FromSQL converts a value scanned by database/sql into an IRValue.
//
// go-sqlite3 yields int64, float64, string, []byte, bool, time.Time or nil.
// Time values only appear for DATE/DATETIME columns, which the schema
// avoids; they are formatted as RFC 3339 for safety.
func FromSQL(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return Null, nil
	case int64:
		return IRInt(val), nil
	case int:
		return IRInt(int64(val)), nil
	case float64:
		return IRFloat(val), nil
	case string:
		return IRString(val), nil
	case []byte:
		return IRString(string(val)), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return IRString(val.UTC().Format(time.RFC3339Nano)), nil
	default:
		return nil, fmt.Errorf("unsupported SQL value type %T", v)
	}
}

// ToSQL converts an IRValue into a database/sql argument.
func ToSQL(v IRValue) any {
	switch val := v.(type) {
	case IRInt:
		return int64(val)
	case IRFloat:
		return float64(val)
	case IRString:
		return string(val)
	default:
		return nil
	}
}
