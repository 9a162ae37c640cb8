package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniqueTable mimics a column with a UNIQUE constraint that allows many
// NULLs. apply fails the test on any transient duplicate.
type uniqueTable map[int64]*int64

func (u uniqueTable) apply(t *testing.T, changes []Change[int64, int64]) {
	t.Helper()
	for _, ch := range changes {
		if ch.Value != nil {
			for k, v := range u {
				if k != ch.Key && v != nil && *v == *ch.Value {
					t.Fatalf("transient duplicate: %d and %d both at %d", k, ch.Key, *v)
				}
			}
			u[ch.Key] = ptr(*ch.Value)
		} else {
			u[ch.Key] = nil
		}
	}
}

// collectionCase drives both collections through the shared contract.
type collectionCase struct {
	name  string
	build func(keys []int64) (Collection[int64, int64], uniqueTable)
}

func collectionCases() []collectionCase {
	return []collectionCase{
		{
			name: "linked list",
			build: func(keys []int64) (Collection[int64, int64], uniqueTable) {
				l := NewLinkedList[int64]()
				table := uniqueTable{}
				for i, k := range keys {
					var next *int64
					if i+1 < len(keys) {
						next = ptr(keys[i+1])
					}
					l.Add(k, next)
					table[k] = next
				}
				return l, table
			},
		},
		{
			name: "compact order",
			build: func(keys []int64) (Collection[int64, int64], uniqueTable) {
				c := NewCompactOrder[int64](0)
				table := uniqueTable{}
				for i, k := range keys {
					c.Add(k, ptr(int64(i)))
					table[k] = ptr(int64(i))
				}
				return c, table
			},
		},
	}
}

func TestCollection_InsertAfterKeepsCallerOrder(t *testing.T) {
	for _, tc := range collectionCases() {
		t.Run(tc.name, func(t *testing.T) {
			c, table := tc.build([]int64{0, 1, 2})

			changes, err := c.InsertAfter(0, 10, 11)
			require.NoError(t, err)
			table[10], table[11] = nil, nil
			table.apply(t, changes)

			keys, err := c.Keys()
			require.NoError(t, err)
			assert.Equal(t, []int64{0, 10, 11, 1, 2}, keys)
			assert.Empty(t, c.Flatten())
		})
	}
}

func TestCollection_RemoveClosesGaps(t *testing.T) {
	for _, tc := range collectionCases() {
		t.Run(tc.name, func(t *testing.T) {
			c, table := tc.build([]int64{0, 1, 2, 3, 4})

			changes, err := c.Remove(1, 2)
			require.NoError(t, err)
			delete(table, 1)
			delete(table, 2)
			table.apply(t, changes)

			keys, err := c.Keys()
			require.NoError(t, err)
			assert.Equal(t, []int64{0, 3, 4}, keys)
			assert.Empty(t, c.Flatten(), "flatten is idempotent")
		})
	}
}

func TestCollection_UnknownKeys(t *testing.T) {
	for _, tc := range collectionCases() {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := tc.build([]int64{0, 1})

			_, err := c.InsertAfter(9, 10)
			assert.ErrorIs(t, err, ErrUnknownKey)

			_, err = c.Remove(9)
			assert.ErrorIs(t, err, ErrUnknownKey)

			_, err = c.InsertAfter(0, 1)
			assert.ErrorIs(t, err, ErrDuplicateKey)
		})
	}
}
