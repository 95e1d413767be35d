package resource

// Token is an opaque reference to a resource in a table.
// The low 32 bits hold the 1-based slot index and the high 32 bits the slot's
// generation. Token 0 is reserved and always invalid.
type Token uint64

// Index returns the 1-based slot index encoded in the token.
func (t Token) Index() uint32 { return uint32(t) }

// Generation returns the slot generation encoded in the token.
func (t Token) Generation() uint32 { return uint32(t >> 32) }

func makeToken(index, generation uint32) Token {
	return Token(uint64(generation)<<32 | uint64(index))
}

// Kind tags the values stored in a table.
type Kind uint32

const (
	KindConnection Kind = iota + 1
	KindAccessRequest
)

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a resource lifecycle event.
type Event struct {
	Value any
	Token Token
	Kind  Kind
	Type  EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}
