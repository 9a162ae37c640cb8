package ordering

import "fmt"

// LinkedList models the page timeline. Each key points at its successor;
// the tail points at nothing.
type LinkedList[K comparable] struct {
	next  map[K]*K
	added []K // insertion order, for deterministic iteration
}

var _ Collection[int64, int64] = (*LinkedList[int64])(nil)

// NewLinkedList returns an empty list.
func NewLinkedList[K comparable]() *LinkedList[K] {
	return &LinkedList[K]{next: make(map[K]*K)}
}

// Add loads an existing node with its current successor (nil = tail).
func (l *LinkedList[K]) Add(key K, next *K) {
	if _, ok := l.next[key]; !ok {
		l.added = append(l.added, key)
	}
	if next != nil {
		n := *next
		next = &n
	}
	l.next[key] = next
}

// Len returns the number of nodes.
func (l *LinkedList[K]) Len() int {
	return len(l.next)
}

// Contains reports whether key is a node of the list.
func (l *LinkedList[K]) Contains(key K) bool {
	_, ok := l.next[key]
	return ok
}

// Next returns key's successor, or nil for the tail.
func (l *LinkedList[K]) Next(key K) *K {
	return l.next[key]
}

// Head returns the single node nothing points at.
func (l *LinkedList[K]) Head() (K, error) {
	var zero K
	targeted := make(map[K]int, len(l.next))
	for _, k := range l.added {
		if n := l.next[k]; n != nil {
			targeted[*n]++
		}
	}

	var heads []K
	for _, k := range l.added {
		if targeted[k] == 0 {
			heads = append(heads, k)
		}
	}
	switch len(heads) {
	case 1:
		return heads[0], nil
	case 0:
		if len(l.added) == 0 {
			return zero, fmt.Errorf("%w: list is empty", ErrBrokenInvariant)
		}
		return zero, fmt.Errorf("%w: no head, list is cyclic", ErrBrokenInvariant)
	default:
		return zero, fmt.Errorf("%w: %d heads %v", ErrBrokenInvariant, len(heads), heads)
	}
}

// Keys walks the list from the head and verifies integrity: exactly one
// head, every pointer lands on a node, no node is visited twice, and
// every node is reachable.
func (l *LinkedList[K]) Keys() ([]K, error) {
	if len(l.added) == 0 {
		return []K{}, nil
	}
	head, err := l.Head()
	if err != nil {
		return nil, err
	}

	order := make([]K, 0, len(l.added))
	seen := make(map[K]bool, len(l.added))
	for cur := &head; cur != nil; cur = l.next[*cur] {
		if _, ok := l.next[*cur]; !ok {
			return nil, fmt.Errorf("%w: next pointer to missing node %v", ErrBrokenInvariant, *cur)
		}
		if seen[*cur] {
			return nil, fmt.Errorf("%w: cycle at %v", ErrBrokenInvariant, *cur)
		}
		seen[*cur] = true
		order = append(order, *cur)
	}

	if len(order) != len(l.added) {
		return nil, fmt.Errorf("%w: %d of %d nodes reachable from head %v",
			ErrBrokenInvariant, len(order), len(l.added), head)
	}
	return order, nil
}

// InsertAfter threads keys in after the given node. The first new key
// takes over after's old successor chain: after -> keys[0] -> ... ->
// keys[n-1] -> old successor.
//
// Changes are ordered predecessor first, so no two nodes ever share a
// successor while they are applied.
func (l *LinkedList[K]) InsertAfter(after K, keys ...K) ([]Change[K, K], error) {
	if !l.Contains(after) {
		return nil, unknownKey(after)
	}
	if len(keys) == 0 {
		return []Change[K, K]{}, nil
	}
	fresh := make(map[K]bool, len(keys))
	for _, k := range keys {
		if l.Contains(k) || fresh[k] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, k)
		}
		fresh[k] = true
	}

	oldNext := l.next[after]
	changes := make([]Change[K, K], 0, len(keys)+1)

	prev := after
	for _, k := range keys {
		l.added = append(l.added, k)
		l.next[prev] = ptr(k)
		changes = append(changes, Change[K, K]{Key: prev, Value: ptr(k)})
		prev = k
	}
	l.next[prev] = oldNext
	if oldNext != nil {
		changes = append(changes, Change[K, K]{Key: prev, Value: ptr(*oldNext)})
	}
	return changes, nil
}

// Remove unlinks keys. Removed nodes have their own pointers nulled
// first; then every surviving node that pointed into the removed set is
// repointed at the nearest surviving node downstream.
func (l *LinkedList[K]) Remove(keys ...K) ([]Change[K, K], error) {
	removed := make(map[K]bool, len(keys))
	for _, k := range keys {
		if !l.Contains(k) {
			return nil, unknownKey(k)
		}
		removed[k] = true
	}

	changes := []Change[K, K]{}
	for _, k := range l.added {
		if removed[k] && l.next[k] != nil {
			changes = append(changes, Change[K, K]{Key: k, Value: nil})
		}
	}

	for _, k := range l.added {
		if removed[k] {
			continue
		}
		n := l.next[k]
		if n == nil || !removed[*n] {
			continue
		}
		target := l.survivorFrom(*n, removed)
		changes = append(changes, Change[K, K]{Key: k, Value: target})
		l.next[k] = target
	}

	kept := l.added[:0]
	for _, k := range l.added {
		if removed[k] {
			delete(l.next, k)
			continue
		}
		kept = append(kept, k)
	}
	l.added = kept
	return changes, nil
}

// survivorFrom walks forward from start past removed nodes. Returns nil
// when the chain ends. A cycle among removed nodes also ends the walk.
func (l *LinkedList[K]) survivorFrom(start K, removed map[K]bool) *K {
	seen := make(map[K]bool)
	cur := &start
	for cur != nil && removed[*cur] {
		if seen[*cur] {
			return nil
		}
		seen[*cur] = true
		cur = l.next[*cur]
	}
	if cur == nil {
		return nil
	}
	return ptr(*cur)
}

// Flatten nulls pointers that target nodes outside the list, which can
// only appear when the list was loaded from inconsistent rows.
func (l *LinkedList[K]) Flatten() []Change[K, K] {
	changes := []Change[K, K]{}
	for _, k := range l.added {
		n := l.next[k]
		if n != nil && !l.Contains(*n) {
			l.next[k] = nil
			changes = append(changes, Change[K, K]{Key: k, Value: nil})
		}
	}
	return changes
}
