package ir

// Opt is an optional patch field. The zero value means "leave unchanged".
//
// Nullable columns use Opt[*string] so that "set to NULL" (Some(nil)) and
// "leave unchanged" (the zero Opt) stay distinguishable.
type Opt[T any] struct {
	value T
	set   bool
}

// Some returns an Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the held value and whether one is set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the field carries a value.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
