// Package memcache implements the bounded in-memory tier of the content
// cache: a string-keyed LRU map designed to hold future cache entries, with
// atomic insert-if-absent and conditional removal so racing loaders can agree
// on a single in-flight computation per key.
package memcache

import "sync"

// EvictFunc is invoked for every entry displaced by a capacity eviction.
// It runs with the cache lock held, so it must not call back into the cache.
type EvictFunc[V any] func(key string, value V)

// node is an entry in the intrusive doubly-linked recency list. The head is
// the most recently used entry.
type node[V any] struct {
	key   string
	value V
	prev  *node[V]
	next  *node[V]
}

// LRU is a bounded map with least-recently-used eviction. The value type is
// constrained to comparable so that RemoveEntry can implement the
// "remove only if still the same entry" contract needed by loaders that
// replace failed futures.
//
// All methods are safe for concurrent use.
type LRU[V comparable] struct {
	mu      sync.Mutex
	index   map[string]*node[V]
	head    *node[V]
	tail    *node[V]
	cap     int
	onEvict EvictFunc[V]
}

// NewLRU creates an LRU holding at most capacity entries. A capacity below 1
// is raised to 1. onEvict may be nil.
func NewLRU[V comparable](capacity int, onEvict EvictFunc[V]) *LRU[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[V]{
		index:   make(map[string]*node[V], capacity),
		cap:     capacity,
		onEvict: onEvict,
	}
}

// Get returns the value for key and marks it as most recently used.
func (l *LRU[V]) Get(key string) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	l.moveToFront(n)
	return n.value, true
}

// Put stores value under key, replacing any existing entry, and evicts the
// least recently used entry if the cache is over capacity.
func (l *LRU[V]) Put(key string, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, ok := l.index[key]; ok {
		n.value = value
		l.moveToFront(n)
		return
	}
	l.insert(key, value)
}

// PutIfAbsent atomically installs value under key if no entry exists. It
// returns the value now present in the cache, and true when an existing entry
// won the race (in which case the passed value was not stored).
func (l *LRU[V]) PutIfAbsent(key string, value V) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, ok := l.index[key]; ok {
		l.moveToFront(n)
		return n.value, true
	}
	l.insert(key, value)
	return value, false
}

// Remove deletes the entry for key, if any.
func (l *LRU[V]) Remove(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, ok := l.index[key]; ok {
		l.unlink(n)
	}
}

// RemoveEntry deletes the entry for key only if its value is still the given
// one, reporting whether a removal happened. It is the equivalent of a
// conditional remove on a concurrent map and lets a loader discard its own
// failed entry without clobbering a replacement installed by a racer.
func (l *LRU[V]) RemoveEntry(key string, value V) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.index[key]
	if !ok || n.value != value {
		return false
	}
	l.unlink(n)
	return true
}

// Len returns the number of cached entries.
func (l *LRU[V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.index)
}

// Clear removes every entry without invoking the eviction callback.
func (l *LRU[V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.index = make(map[string]*node[V], l.cap)
	l.head = nil
	l.tail = nil
}

// insert links a new node at the front and evicts from the back when over
// capacity. Must be called with the lock held.
func (l *LRU[V]) insert(key string, value V) {
	n := &node[V]{key: key, value: value, next: l.head}
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.index[key] = n

	if len(l.index) > l.cap {
		victim := l.tail
		l.unlink(victim)
		if l.onEvict != nil {
			l.onEvict(victim.key, victim.value)
		}
	}
}

// unlink detaches n from the recency list and the index. Must be called with
// the lock held.
func (l *LRU[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
	delete(l.index, n.key)
}

// moveToFront marks n as most recently used. Must be called with the lock
// held.
func (l *LRU[V]) moveToFront(n *node[V]) {
	if l.head == n {
		return
	}
	// Detach.
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	// Re-link at the head.
	n.prev = nil
	n.next = l.head
	l.head.prev = n
	l.head = n
}
