package resource

import (
	"sync"
)

// UnifiedTable stores kind-tagged values in a LocalBackend and reports
// lifecycle events to observers.
type UnifiedTable struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates a new unified table with a LocalBackend.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its token, or 0 once every token is in use.
func (t *UnifiedTable) Insert(kind Kind, value any) Token {
	token, err := t.backend.Create(kind, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:  EventCreated,
		Token: token,
		Kind:  kind,
		Value: value,
	})

	return token
}

// Get retrieves a value by token.
func (t *UnifiedTable) Get(token Token) (any, bool) {
	return t.backend.Get(token)
}

// GetTyped retrieves a value only if it was inserted with the expected kind.
func (t *UnifiedTable) GetTyped(token Token, kind Kind) (any, bool) {
	actual, ok := t.backend.Kind(token)
	if !ok || actual != kind {
		return nil, false
	}
	return t.backend.Get(token)
}

// Remove drops a resource and returns (value, true) if found. A stale or
// already removed token is not an event.
func (t *UnifiedTable) Remove(token Token) (any, bool) {
	kind, _ := t.backend.Kind(token)
	value, ok := t.backend.Drop(token)
	if !ok {
		return nil, false
	}

	t.notify(Event{
		Type:  EventDropped,
		Token: token,
		Kind:  kind,
		Value: value,
	})

	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of active resources.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
