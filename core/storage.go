package core

// storage.go – key/value storage with copy-on-write change sets.
//
// Grounded on the prior memState (virtual_machine.go: Get/Set/composite,
// Snapshot) and Ledger's State map (ledger.go), generalised into the
// Storage/ChangeSet split the calls for: a chain owns a base Storage,
// and every block/transaction executes against a forked ChangeSet that
// either merges back atomically or is thrown away.

import (
	"encoding/hex"
	"sync"
)

// Storage is the chain-level key/value collaborator hook (§6).
type Storage interface {
	Get(key []byte) ([]byte, bool)
	Set(key []byte, value []byte)
	Delete(key []byte)
	ForkChangeSet() *ChangeSet
	Commit(cs *ChangeSet)
}

// MemStorage is an in-memory Storage implementation, the only one chainforge
// ships (disk persistence format is out of scope per spec §1).
type MemStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStorage returns an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{data: make(map[string][]byte)}
}

func (s *MemStorage) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

func (s *MemStorage) Set(key []byte, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[string(key)] = cp
}

func (s *MemStorage) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
}

// ForkChangeSet returns a fresh overlay view backed by s.
func (s *MemStorage) ForkChangeSet() *ChangeSet {
	return newChangeSet(s)
}

// Commit applies cs's overlay writes/deletes onto s atomically.
func (s *MemStorage) Commit(cs *ChangeSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range cs.deletes {
		delete(s.data, k)
	}
	for k, v := range cs.writes {
		s.data[k] = v
	}
}

// kvBase is the minimal read surface a ChangeSet can fork from — either a
// Storage or another ChangeSet, so sub-changesets (read-only invocations)
// compose without touching the chain's committed state.
type kvBase interface {
	Get(key []byte) ([]byte, bool)
}

// ChangeSet is a two-level overlay over a base key/value space. Writes
// accumulate in the overlay; Commit merges them into the base storage,
// or they are simply discarded by letting the ChangeSet go out of scope.
type ChangeSet struct {
	mu      sync.RWMutex
	base    kvBase
	writes  map[string][]byte
	deletes map[string]struct{}
}

func newChangeSet(base kvBase) *ChangeSet {
	return &ChangeSet{
		base:    base,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Get resolves key through the overlay first, then the base.
func (c *ChangeSet) Get(key []byte) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k := string(key)
	if _, deleted := c.deletes[k]; deleted {
		return nil, false
	}
	if v, ok := c.writes[k]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, true
	}
	if c.base == nil {
		return nil, false
	}
	return c.base.Get(key)
}

// Set stages a write in the overlay.
func (c *ChangeSet) Set(key []byte, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := string(key)
	delete(c.deletes, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	c.writes[k] = cp
}

// Delete stages a deletion in the overlay, shadowing the base value.
func (c *ChangeSet) Delete(key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := string(key)
	delete(c.writes, k)
	c.deletes[k] = struct{}{}
}

// ForkChangeSet returns a nested overlay view, used by read-only contract
// invocations so they can never mutate the transaction's own change set.
func (c *ChangeSet) ForkChangeSet() *ChangeSet { return newChangeSet(c) }

// Fork is an alias for ForkChangeSet kept for call-site readability at
// block/transaction boundaries.
func (c *ChangeSet) Fork() *ChangeSet { return c.ForkChangeSet() }

// Commit merges a child ChangeSet's overlay into this one. Used when a
// nested call succeeds and its writes should become visible to the parent.
func (c *ChangeSet) Commit(child *ChangeSet) {
	if child == nil {
		return
	}
	child.mu.RLock()
	defer child.mu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range child.deletes {
		delete(c.writes, k)
		c.deletes[k] = struct{}{}
	}
	for k, v := range child.writes {
		delete(c.deletes, k)
		c.writes[k] = v
	}
}

//---------------------------------------------------------------------
// Map: hashed key -> value, namespaced by prefix.
//---------------------------------------------------------------------

// Map is a content-hashed key/value sub-structure layered over a ChangeSet,
// matching the prior memState.composite(ns,key) namespacing idiom.
type Map struct {
	store  *ChangeSet
	prefix string
}

// NewMap returns a Map namespaced under prefix within store.
func NewMap(store *ChangeSet, prefix string) *Map {
	return &Map{store: store, prefix: prefix}
}

func (m *Map) storageKey(key []byte) []byte {
	h := HashBytes(key)
	return []byte(m.prefix + ":" + hex.EncodeToString(h[:]))
}

func (m *Map) Get(key []byte) ([]byte, bool) { return m.store.Get(m.storageKey(key)) }

func (m *Map) Set(key, value []byte) { m.store.Set(m.storageKey(key), value) }

func (m *Map) Delete(key []byte) { m.store.Delete(m.storageKey(key)) }

func (m *Map) Has(key []byte) bool {
	_, ok := m.Get(key)
	return ok
}

//---------------------------------------------------------------------
// List: integer-indexed sequence, namespaced by prefix.
//---------------------------------------------------------------------

// List is an integer-indexed append/replace/remove sequence. RemoveAt is
// O(1): it swaps the removed slot with the last element before shrinking
// the count, so List does not preserve insertion order across removals.
type List struct {
	store  *ChangeSet
	prefix string
}

// NewList returns a List namespaced under prefix within store.
func NewList(store *ChangeSet, prefix string) *List {
	return &List{store: store, prefix: prefix}
}

func (l *List) countKey() []byte { return []byte(l.prefix + ":count") }

func (l *List) itemKey(i uint64) []byte {
	w := NewWriter()
	w.WriteUint64(i)
	return []byte(l.prefix + ":item:" + hex.EncodeToString(w.Bytes()))
}

// Count returns the number of elements currently stored.
func (l *List) Count() uint64 {
	v, ok := l.store.Get(l.countKey())
	if !ok {
		return 0
	}
	r := NewReader(v)
	n, _ := r.ReadUint64()
	return n
}

func (l *List) setCount(n uint64) {
	w := NewWriter()
	w.WriteUint64(n)
	l.store.Set(l.countKey(), w.Bytes())
}

// Add appends value to the end of the list.
func (l *List) Add(value []byte) {
	n := l.Count()
	l.store.Set(l.itemKey(n), value)
	l.setCount(n + 1)
}

// Get returns the element at index i.
func (l *List) Get(i uint64) ([]byte, bool) {
	if i >= l.Count() {
		return nil, false
	}
	return l.store.Get(l.itemKey(i))
}

// Replace overwrites the element at index i.
func (l *List) Replace(i uint64, value []byte) bool {
	if i >= l.Count() {
		return false
	}
	l.store.Set(l.itemKey(i), value)
	return true
}

// RemoveAt removes the element at index i, swapping in the last element.
func (l *List) RemoveAt(i uint64) bool {
	n := l.Count()
	if i >= n {
		return false
	}
	last := n - 1
	if i != last {
		if v, ok := l.store.Get(l.itemKey(last)); ok {
			l.store.Set(l.itemKey(i), v)
		}
	}
	l.store.Delete(l.itemKey(last))
	l.setCount(last)
	return true
}

// Clear removes every element.
func (l *List) Clear() {
	n := l.Count()
	for i := uint64(0); i < n; i++ {
		l.store.Delete(l.itemKey(i))
	}
	l.setCount(0)
}

// All returns every element in index order.
func (l *List) All() [][]byte {
	n := l.Count()
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		if v, ok := l.Get(i); ok {
			out = append(out, v)
		}
	}
	return out
}
