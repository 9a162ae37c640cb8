package ir

import (
	"slices"
	"unicode/utf16"
)

// Row is a full or partial column map for one table row.
// Use SortedKeys() for deterministic iteration.
type Row map[string]IRValue

// ColumnID is the primary-key column every tracked table carries.
const ColumnID = "id"

// Clone returns a shallow copy of the row. Values are immutable so a
// shallow copy is a full copy.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Without returns a copy of the row with the named columns removed.
func (r Row) Without(cols ...string) Row {
	out := r.Clone()
	for _, c := range cols {
		delete(out, c)
	}
	return out
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (r Row) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Equal reports whether both rows hold the same columns with equal values.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// ID returns the row's primary key.
func (r Row) ID() (int64, bool) {
	return r.Int(ColumnID)
}

// Int returns an integer column. False when absent, NULL or not an integer.
func (r Row) Int(col string) (int64, bool) {
	v, ok := r[col].(IRInt)
	return int64(v), ok
}

// Float returns a numeric column as float64. Integers are widened.
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case IRFloat:
		return float64(v), true
	case IRInt:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns a text column. False when absent, NULL or not text.
func (r Row) String(col string) (string, bool) {
	v, ok := r[col].(IRString)
	return string(v), ok
}

// StringPtr returns a nullable text column.
func (r Row) StringPtr(col string) *string {
	s, ok := r.String(col)
	if !ok {
		return nil
	}
	return &s
}

// IntPtr returns a nullable integer column.
func (r Row) IntPtr(col string) *int64 {
	n, ok := r.Int(col)
	if !ok {
		return nil
	}
	return &n
}

// Bool decodes a 0/1 integer column.
func (r Row) Bool(col string) bool {
	n, ok := r.Int(col)
	return ok && n != 0
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
