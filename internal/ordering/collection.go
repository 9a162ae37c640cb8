package ordering

import (
	"errors"
	"fmt"
)

// Change is one column write: set Key's value to *Value, or NULL when
// Value is nil.
type Change[K comparable, V any] struct {
	Key   K
	Value *V
}

// Collection is an ordered set of keys maintained through emitted changes.
type Collection[K comparable, V any] interface {
	// Keys returns the keys in collection order.
	Keys() ([]K, error)
	// InsertAfter places keys directly after an existing key, in the
	// given order.
	InsertAfter(after K, keys ...K) ([]Change[K, V], error)
	// Remove drops keys and repairs the order around them.
	Remove(keys ...K) ([]Change[K, V], error)
	// Flatten normalizes the order. A second call returns no changes.
	Flatten() []Change[K, V]
}

// ErrBrokenInvariant reports an ordering that cannot be walked: no head,
// several heads, a cycle, or unreachable members.
var ErrBrokenInvariant = errors.New("ordering invariant broken")

// ErrUnknownKey is returned when an operation references a key the
// collection does not hold.
var ErrUnknownKey = errors.New("unknown key")

// ErrDuplicateKey is returned when inserting a key that is already present.
var ErrDuplicateKey = errors.New("duplicate key")

func unknownKey[K comparable](k K) error {
	return fmt.Errorf("%w: %v", ErrUnknownKey, k)
}

func ptr[T any](v T) *T {
	return &v
}
