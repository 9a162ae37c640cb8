package ordering

import (
	"fmt"
	"slices"
)

// CompactOrder models shape-page membership: each member holds an integer
// position, unique within the collection. A nil position is a transient
// state that only exists in the middle of a swap.
type CompactOrder[K comparable] struct {
	base    int64
	members []member[K]
	loaded  int
}

type member[K comparable] struct {
	key   K
	order *int64
	seq   int // load order, tiebreak for nil positions
}

var _ Collection[int64, int64] = (*CompactOrder[int64])(nil)

// NewCompactOrder returns an empty collection whose flattened positions
// start at base.
func NewCompactOrder[K comparable](base int64) *CompactOrder[K] {
	return &CompactOrder[K]{base: base}
}

// Add loads an existing member with its current position.
func (c *CompactOrder[K]) Add(key K, order *int64) {
	if order != nil {
		order = ptr(*order)
	}
	if i := c.index(key); i >= 0 {
		c.members[i].order = order
	} else {
		c.members = append(c.members, member[K]{key: key, order: order, seq: c.nextSeq()})
	}
	c.sort()
}

// Len returns the number of members.
func (c *CompactOrder[K]) Len() int {
	return len(c.members)
}

// Order returns a member's position. The bool is false for unknown keys.
func (c *CompactOrder[K]) Order(key K) (*int64, bool) {
	i := c.index(key)
	if i < 0 {
		return nil, false
	}
	return c.members[i].order, true
}

// Occupant returns the member holding a position.
func (c *CompactOrder[K]) Occupant(order int64) (K, bool) {
	for _, m := range c.members {
		if m.order != nil && *m.order == order {
			return m.key, true
		}
	}
	var zero K
	return zero, false
}

// Keys returns members by ascending position; nil positions last.
func (c *CompactOrder[K]) Keys() ([]K, error) {
	keys := make([]K, len(c.members))
	for i, m := range c.members {
		keys[i] = m.key
	}
	return keys, nil
}

// ShiftFrom moves every member at or after order up by one. Changes are
// listed from the tail backward so no two members share a position while
// they are applied.
func (c *CompactOrder[K]) ShiftFrom(order int64) []Change[K, int64] {
	return c.shift(order, 1)
}

func (c *CompactOrder[K]) shift(from, delta int64) []Change[K, int64] {
	changes := []Change[K, int64]{}
	for i := len(c.members) - 1; i >= 0; i-- {
		m := &c.members[i]
		if m.order == nil || *m.order < from {
			continue
		}
		m.order = ptr(*m.order + delta)
		changes = append(changes, Change[K, int64]{Key: m.key, Value: ptr(*m.order)})
	}
	return changes
}

// Place inserts a new member at order, shifting an occupied position and
// everything after it first. The new member's own position is not part
// of the returned changes: the caller writes it with the new row.
func (c *CompactOrder[K]) Place(key K, order int64) ([]Change[K, int64], error) {
	if c.index(key) >= 0 {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	changes := []Change[K, int64]{}
	if _, taken := c.Occupant(order); taken {
		changes = c.ShiftFrom(order)
	}
	c.members = append(c.members, member[K]{key: key, order: ptr(order), seq: c.nextSeq()})
	c.sort()
	return changes, nil
}

// MoveTo gives an existing member a new position. An occupied target
// shifts its occupant and everything after it first; the member's own
// write is the last change.
func (c *CompactOrder[K]) MoveTo(key K, order int64) ([]Change[K, int64], error) {
	i := c.index(key)
	if i < 0 {
		return nil, unknownKey(key)
	}
	if cur := c.members[i].order; cur != nil && *cur == order {
		return []Change[K, int64]{}, nil
	}

	changes := []Change[K, int64]{}
	if occ, taken := c.Occupant(order); taken && occ != key {
		changes = c.ShiftFrom(order)
	}
	i = c.index(key)
	c.members[i].order = ptr(order)
	changes = append(changes, Change[K, int64]{Key: key, Value: ptr(order)})
	c.sort()
	return changes, nil
}

// InsertAfter places keys in the positions directly after an existing
// member, shifting later members up to make room. Returned changes hold
// the shifts followed by the new members' positions.
func (c *CompactOrder[K]) InsertAfter(after K, keys ...K) ([]Change[K, int64], error) {
	i := c.index(after)
	if i < 0 {
		return nil, unknownKey(after)
	}
	if c.members[i].order == nil {
		return nil, fmt.Errorf("insert after %v: member has no position", after)
	}
	for _, k := range keys {
		if c.index(k) >= 0 {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, k)
		}
	}

	pos := *c.members[i].order + 1
	changes := c.shift(pos, int64(len(keys)))
	for j, k := range keys {
		order := pos + int64(j)
		c.members = append(c.members, member[K]{key: k, order: ptr(order), seq: c.nextSeq()})
		changes = append(changes, Change[K, int64]{Key: k, Value: ptr(order)})
	}
	c.sort()
	return changes, nil
}

// Remove drops members and flattens the survivors.
func (c *CompactOrder[K]) Remove(keys ...K) ([]Change[K, int64], error) {
	drop := make(map[K]bool, len(keys))
	for _, k := range keys {
		if c.index(k) < 0 {
			return nil, unknownKey(k)
		}
		drop[k] = true
	}
	c.members = slices.DeleteFunc(c.members, func(m member[K]) bool { return drop[m.key] })
	return c.Flatten(), nil
}

// Flatten renumbers members to base, base+1, ... in their current order,
// emitting only members whose position changes.
//
// Positions are strictly increasing, so the offset old-new is monotonic
// along the list: members moving down form a suffix and are written head
// first, members moving up form a prefix and are written tail first, and
// members without a position go last. No write lands on a position still
// held by an unwritten member.
func (c *CompactOrder[K]) Flatten() []Change[K, int64] {
	var down, up, unset []Change[K, int64]
	for i := range c.members {
		m := &c.members[i]
		target := c.base + int64(i)
		switch {
		case m.order == nil:
			unset = append(unset, Change[K, int64]{Key: m.key, Value: ptr(target)})
		case *m.order > target:
			down = append(down, Change[K, int64]{Key: m.key, Value: ptr(target)})
		case *m.order < target:
			up = append(up, Change[K, int64]{Key: m.key, Value: ptr(target)})
		}
		m.order = ptr(target)
	}

	slices.Reverse(up)
	changes := make([]Change[K, int64], 0, len(down)+len(up)+len(unset))
	changes = append(changes, down...)
	changes = append(changes, up...)
	changes = append(changes, unset...)
	return changes
}

// Swap exchanges two members' positions in three writes through NULL:
// a -> NULL, b -> a's old position, a -> b's old position.
func (c *CompactOrder[K]) Swap(a, b K) ([]Change[K, int64], error) {
	ia, ib := c.index(a), c.index(b)
	if ia < 0 {
		return nil, unknownKey(a)
	}
	if ib < 0 {
		return nil, unknownKey(b)
	}
	if a == b {
		return []Change[K, int64]{}, nil
	}
	oa, ob := c.members[ia].order, c.members[ib].order
	if oa == nil || ob == nil {
		return nil, fmt.Errorf("swap %v and %v: both members need a position", a, b)
	}

	changes := []Change[K, int64]{
		{Key: a, Value: nil},
		{Key: b, Value: ptr(*oa)},
		{Key: a, Value: ptr(*ob)},
	}
	c.members[ia].order, c.members[ib].order = ptr(*ob), ptr(*oa)
	c.sort()
	return changes, nil
}

func (c *CompactOrder[K]) nextSeq() int {
	c.loaded++
	return c.loaded
}

func (c *CompactOrder[K]) index(key K) int {
	return slices.IndexFunc(c.members, func(m member[K]) bool { return m.key == key })
}

// sort orders members by position, nil last, then by load order.
func (c *CompactOrder[K]) sort() {
	slices.SortStableFunc(c.members, func(x, y member[K]) int {
		switch {
		case x.order == nil && y.order == nil:
			return x.seq - y.seq
		case x.order == nil:
			return 1
		case y.order == nil:
			return -1
		case *x.order != *y.order:
			if *x.order < *y.order {
				return -1
			}
			return 1
		default:
			return x.seq - y.seq
		}
	})
}
