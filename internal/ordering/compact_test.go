package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orders(c *CompactOrder[int64]) map[int64]int64 {
	out := map[int64]int64{}
	for _, m := range c.members {
		if m.order != nil {
			out[m.key] = *m.order
		}
	}
	return out
}

func loaded(positions map[int64]int64) (*CompactOrder[int64], uniqueTable) {
	c := NewCompactOrder[int64](0)
	table := uniqueTable{}
	for k, o := range positions {
		c.Add(k, ptr(o))
		table[k] = ptr(o)
	}
	return c, table
}

func TestCompactOrder_ShiftFromIsTailFirst(t *testing.T) {
	c, table := loaded(map[int64]int64{1: 0, 2: 1, 3: 2})

	changes := c.ShiftFrom(1)
	require.Len(t, changes, 2)
	assert.Equal(t, int64(3), changes[0].Key, "tail moves first")
	table.apply(t, changes)

	assert.Equal(t, map[int64]int64{1: 0, 2: 2, 3: 3}, orders(c))
}

func TestCompactOrder_PlaceAtOccupiedPosition(t *testing.T) {
	c, table := loaded(map[int64]int64{1: 0, 2: 1})

	changes, err := c.Place(9, 0)
	require.NoError(t, err)
	table.apply(t, changes)
	table[9] = ptr(int64(0))

	keys, _ := c.Keys()
	assert.Equal(t, []int64{9, 1, 2}, keys)
	assert.Empty(t, c.Flatten())
}

func TestCompactOrder_PlaceAtFreePositionThenFlatten(t *testing.T) {
	c, table := loaded(map[int64]int64{1: 0, 2: 1})

	changes, err := c.Place(9, 10)
	require.NoError(t, err)
	assert.Empty(t, changes)
	table[9] = ptr(int64(10))

	flat := c.Flatten()
	table.apply(t, flat)
	assert.Equal(t, map[int64]int64{1: 0, 2: 1, 9: 2}, orders(c))
}

func TestCompactOrder_MoveToOccupied(t *testing.T) {
	// a0 b1 c2 d3 e4, move c to 4: c lands before e.
	c, table := loaded(map[int64]int64{'a': 0, 'b': 1, 'c': 2, 'd': 3, 'e': 4})

	changes, err := c.MoveTo('c', 4)
	require.NoError(t, err)
	table.apply(t, changes)
	table.apply(t, c.Flatten())

	keys, _ := c.Keys()
	assert.Equal(t, []int64{'a', 'b', 'd', 'c', 'e'}, keys)
	assert.Equal(t, int64(3), orders(c)['c'])
}

func TestCompactOrder_MoveToLower(t *testing.T) {
	c, table := loaded(map[int64]int64{'a': 0, 'b': 1, 'c': 2, 'd': 3})

	changes, err := c.MoveTo('d', 0)
	require.NoError(t, err)
	table.apply(t, changes)
	table.apply(t, c.Flatten())

	keys, _ := c.Keys()
	assert.Equal(t, []int64{'d', 'a', 'b', 'c'}, keys)
}

func TestCompactOrder_MoveToSamePositionIsNoop(t *testing.T) {
	c, _ := loaded(map[int64]int64{1: 0, 2: 1})
	changes, err := c.MoveTo(2, 1)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestCompactOrder_FlattenWithBaseOne(t *testing.T) {
	c := NewCompactOrder[int64](1)
	table := uniqueTable{}
	for k, o := range map[int64]int64{1: 0, 2: 1, 3: 5, 4: 9} {
		c.Add(k, ptr(o))
		table[k] = ptr(o)
	}

	table.apply(t, c.Flatten())
	assert.Equal(t, map[int64]int64{1: 1, 2: 2, 3: 3, 4: 4}, orders(c))
	assert.Empty(t, c.Flatten())
}

func TestCompactOrder_FlattenAssignsUnsetLast(t *testing.T) {
	c := NewCompactOrder[int64](0)
	c.Add(1, nil)
	c.Add(2, ptr(int64(3)))

	changes := c.Flatten()
	require.Len(t, changes, 2)
	assert.Equal(t, map[int64]int64{2: 0, 1: 1}, orders(c))
}

func TestCompactOrder_SwapThroughNull(t *testing.T) {
	c, table := loaded(map[int64]int64{1: 0, 2: 1, 3: 2})

	changes, err := c.Swap(1, 3)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Nil(t, changes[0].Value)
	table.apply(t, changes)

	keys, _ := c.Keys()
	assert.Equal(t, []int64{3, 2, 1}, keys)
	assert.Empty(t, c.Flatten())
}

func TestCompactOrder_SwapErrors(t *testing.T) {
	c, _ := loaded(map[int64]int64{1: 0})
	c.Add(2, nil)

	_, err := c.Swap(1, 9)
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = c.Swap(1, 2)
	assert.Error(t, err)

	changes, err := c.Swap(1, 1)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
