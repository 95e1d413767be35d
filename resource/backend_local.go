package resource

import (
	"errors"
	"sync"
)

// ErrExhausted is returned when every slot index is in use.
var ErrExhausted = errors.New("resource backend exhausted")

// LocalBackend is an in-memory resource backend with generation-checked tokens.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
}

type entry struct {
	value      any
	kind       Kind
	generation uint32
	valid      bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 16),
		freeList: make([]uint32, 0, 4),
	}
}

// Create stores a value and returns a token.
// A reused slot gets the next generation so tokens issued for its previous
// occupant no longer resolve.
func (b *LocalBackend) Create(kind Kind, value any) (Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.freeList) > 0 {
		index := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		e := &b.entries[index-1]
		e.generation++
		if e.generation == 0 {
			e.generation = 1
		}
		e.kind = kind
		e.value = value
		e.valid = true
		return makeToken(index, e.generation), nil
	}

	if uint64(len(b.entries)) >= 1<<32-1 {
		return 0, ErrExhausted
	}

	b.entries = append(b.entries, entry{
		kind:       kind,
		value:      value,
		generation: 1,
		valid:      true,
	})
	return makeToken(uint32(len(b.entries)), 1), nil
}

// lookup returns the live entry for token. Caller must hold mu.
func (b *LocalBackend) lookup(token Token) *entry {
	if token == 0 {
		return nil
	}
	idx := token.Index()
	if idx == 0 || int(idx) > len(b.entries) {
		return nil
	}
	e := &b.entries[idx-1]
	if !e.valid || e.generation != token.Generation() {
		return nil
	}
	return e
}

// Get retrieves a value by token.
func (b *LocalBackend) Get(token Token) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(token)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Drop removes a resource and returns (value, true) if the token was live.
func (b *LocalBackend) Drop(token Token) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(token)
	if e == nil {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	b.freeList = append(b.freeList, token.Index())

	return value, true
}

// Kind returns the kind recorded for a token.
func (b *LocalBackend) Kind(token Token) (Kind, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(token)
	if e == nil {
		return 0, false
	}
	return e.kind, true
}

// Len returns the number of active resources.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}
