package cache

// lruNode is an element of the recency list. It stores its key so the
// owning shard can drop the map entry on eviction.
type lruNode[K comparable] struct {
	key        K
	prev, next *lruNode[K]
}

// lruList is an intrusive doubly-linked list ordered from most recently used
// (front) to least recently used (back). A sentinel root closes the ring so
// no operation needs nil checks. It is not thread-safe.
type lruList[K comparable] struct {
	root lruNode[K]
	len  int
}

func newLRUList[K comparable]() *lruList[K] {
	l := &lruList[K]{}
	l.root.prev = &l.root
	l.root.next = &l.root
	return l
}

// Len returns the number of nodes.
func (l *lruList[K]) Len() int { return l.len }

// PushFront inserts key as the most recently used node.
func (l *lruList[K]) PushFront(key K) *lruNode[K] {
	n := &lruNode[K]{key: key}
	l.insertAfter(n, &l.root)
	l.len++
	return n
}

// Touch marks n as most recently used.
func (l *lruList[K]) Touch(n *lruNode[K]) {
	if l.root.next == n {
		return
	}
	l.detach(n)
	l.insertAfter(n, &l.root)
}

// Remove unlinks n.
func (l *lruList[K]) Remove(n *lruNode[K]) {
	if n == nil || n.next == nil {
		return
	}
	l.detach(n)
	n.prev, n.next = nil, nil
	l.len--
}

// PopBack removes and returns the least recently used key.
func (l *lruList[K]) PopBack() (K, bool) {
	if l.len == 0 {
		var zero K
		return zero, false
	}
	n := l.root.prev
	l.Remove(n)
	return n.key, true
}

// Back returns the least recently used key without removing it.
func (l *lruList[K]) Back() (K, bool) {
	if l.len == 0 {
		var zero K
		return zero, false
	}
	return l.root.prev.key, true
}

// Reset empties the list.
func (l *lruList[K]) Reset() {
	l.root.prev = &l.root
	l.root.next = &l.root
	l.len = 0
}

func (l *lruList[K]) insertAfter(n, at *lruNode[K]) {
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
}

func (l *lruList[K]) detach(n *lruNode[K]) {
	n.prev.next = n.next
	n.next.prev = n.prev
}
