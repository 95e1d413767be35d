package resource

// TypedTable provides type-safe access to resources of one kind.
type TypedTable[T any] struct {
	table *UnifiedTable
	kind  Kind
}

// NewTyped creates a typed view over a fresh table.
func NewTyped[T any](kind Kind) *TypedTable[T] {
	return &TypedTable[T]{
		table: NewTable(),
		kind:  kind,
	}
}

// Insert adds a value and returns its token.
func (t *TypedTable[T]) Insert(value T) Token {
	return t.table.Insert(t.kind, value)
}

// Get retrieves a value by token.
func (t *TypedTable[T]) Get(token Token) (T, bool) {
	var zero T
	value, ok := t.table.GetTyped(token, t.kind)
	if !ok {
		return zero, false
	}
	v, ok := value.(T)
	return v, ok
}

// Remove drops a resource and returns (value, true) if found.
func (t *TypedTable[T]) Remove(token Token) (T, bool) {
	var zero T
	if _, ok := t.table.GetTyped(token, t.kind); !ok {
		return zero, false
	}
	value, ok := t.table.Remove(token)
	if !ok {
		return zero, false
	}
	v, ok := value.(T)
	return v, ok
}

// Len returns the number of active resources.
func (t *TypedTable[T]) Len() int {
	return t.table.Len()
}

// Subscribe adds an observer for lifecycle events.
func (t *TypedTable[T]) Subscribe(o Observer) {
	t.table.Subscribe(o)
}
