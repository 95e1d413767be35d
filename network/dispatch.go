package network

import (
	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/resource"
)

// trampolines is the fixed set of function values handed to the host. They
// are created once per bridge so every registration passes the same values.
type trampolines struct {
	headerReceived   native.HeaderCallback
	headersRead      native.ConnectionCallback
	response         native.ConnectionCallback
	requestComplete  native.ConnectionCallback
	connectionClosed native.ConnectionCallback
	access           native.AccessRequestCallback
	enabled          native.EnableCallback
}

func newTrampolines(b *Bridge) trampolines {
	return trampolines{
		headerReceived: b.dispatchHeader,
		headersRead: func(conn native.Conn) {
			b.dispatch(conn, eventHeadersRead)
		},
		response: func(conn native.Conn) {
			b.dispatch(conn, eventResponse)
		},
		requestComplete: func(conn native.Conn) {
			b.dispatch(conn, eventRequestComplete)
		},
		connectionClosed: func(conn native.Conn) {
			b.dispatch(conn, eventConnectionClosed)
		},
		access:  b.accessTrampoline,
		enabled: b.enableTrampoline,
	}
}

func (t *trampolines) simple(ev event) native.ConnectionCallback {
	switch ev {
	case eventHeadersRead:
		return t.headersRead
	case eventResponse:
		return t.response
	case eventRequestComplete:
		return t.requestComplete
	case eventConnectionClosed:
		return t.connectionClosed
	}
	return nil
}

// upgrade resolves the userdata the host stored for conn into a temporary
// strong reference. It returns nil when the owning connection is gone; the
// host may keep firing for a connection that is being closed under it.
func (b *Bridge) upgrade(conn native.Conn) *Connection {
	get := b.http.GetUserdata
	if get == nil {
		b.log.Debug("dispatch without getUserdata", zap.Uintptr("conn", uintptr(conn)))
		return nil
	}
	ud := get(conn)
	if ud == 0 {
		return nil
	}
	wp, ok := b.conns.Get(resource.Token(ud))
	if !ok {
		b.log.Debug("dispatch with stale token",
			zap.Uintptr("conn", uintptr(conn)),
			zap.Uint64("token", uint64(ud)))
		return nil
	}
	inner := wp.Value()
	if inner == nil || inner.refs == 0 || inner.raw != conn {
		return nil
	}
	inner.refs++
	return &Connection{inner: inner}
}

func (b *Bridge) dispatch(conn native.Conn, ev event) {
	c := b.upgrade(conn)
	if c == nil {
		return
	}
	defer c.Release()

	slots := c.inner.slots.borrow()
	cb := *slots.simple(ev)
	slots.release()

	// The borrow is released before the call so the callback may replace
	// or clear any slot, its own included. cb stays valid regardless.
	if cb != nil {
		cb(c)
	}
}

func (b *Bridge) dispatchHeader(conn native.Conn, key, value []byte) {
	if key == nil || value == nil {
		return
	}
	c := b.upgrade(conn)
	if c == nil {
		return
	}
	defer c.Release()

	slots := c.inner.slots.borrow()
	cb := slots.headerReceived
	slots.release()

	if cb != nil {
		cb(c, key, value)
	}
}
