package network

import "github.com/wippyai/pdbridge/errors"

// Callback handles a connection event.
//
// conn is a reference owned by the dispatcher and released when the callback
// returns. Any use after that fails with an InvalidState error and Clone
// panics. Call conn.Clone inside the callback to keep the connection.
type Callback func(conn *Connection)

// HeaderCallback handles one received header. conn follows the same rules as
// in Callback. key and value are only valid until the callback returns; copy
// them to keep them.
type HeaderCallback func(conn *Connection, key, value []byte)

// event identifies a callback slot.
type event uint8

const (
	eventHeaderReceived event = iota
	eventHeadersRead
	eventResponse
	eventRequestComplete
	eventConnectionClosed
)

func (e event) String() string {
	switch e {
	case eventHeaderReceived:
		return "header-received"
	case eventHeadersRead:
		return "headers-read"
	case eventResponse:
		return "response"
	case eventRequestComplete:
		return "request-complete"
	case eventConnectionClosed:
		return "connection-closed"
	}
	return "unknown"
}

// slotTable maps each event to at most one closure.
//
// Access goes through borrow/release. The bridge is single-threaded, so
// overlapping access can only come from a reentrancy bug and panics instead of
// blocking.
type slotTable struct {
	headerReceived   HeaderCallback
	headersRead      Callback
	response         Callback
	requestComplete  Callback
	connectionClosed Callback
	borrowed         bool
}

func (s *slotTable) borrow() *slotTable {
	if s.borrowed {
		panic(errors.InvalidState(errors.PhaseDispatch, "network.slots", "callback slot table already borrowed"))
	}
	s.borrowed = true
	return s
}

func (s *slotTable) release() {
	s.borrowed = false
}

// simple returns the slot for a connection event. eventHeaderReceived has its
// own field.
func (s *slotTable) simple(ev event) *Callback {
	switch ev {
	case eventHeadersRead:
		return &s.headersRead
	case eventResponse:
		return &s.response
	case eventRequestComplete:
		return &s.requestComplete
	case eventConnectionClosed:
		return &s.connectionClosed
	}
	panic("network: no simple slot for " + ev.String())
}

// clear empties every slot.
func (s *slotTable) clear() {
	s.headerReceived = nil
	s.headersRead = nil
	s.response = nil
	s.requestComplete = nil
	s.connectionClosed = nil
}
