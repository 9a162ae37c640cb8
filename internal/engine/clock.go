package engine

import "time"

// Clock supplies the timestamps the Mutation Layer stamps on
// created_at and updated_at.
//
// Production uses SystemClock. Tests inject testutil.DeterministicClock so
// stamped rows, and therefore row images, are byte-stable across runs.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// timestampLayout matches the format the schema defaults write, so rows
// stamped by either path sort and compare the same way.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way the store keeps created_at and updated_at.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
