package network

import (
	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
)

// OnHeaderReceived installs the closure called for each response header. A
// nil callback clears the slot and unregisters the trampoline.
func (c *Connection) OnHeaderReceived(callback HeaderCallback) error {
	const op = "http.setHeaderReceivedCallback"
	inner, err := c.live(op)
	if err != nil {
		return err
	}

	slots := inner.slots.borrow()
	prev := slots.headerReceived
	slots.headerReceived = callback
	slots.release()

	set := inner.bridge.http.SetHeaderReceivedCallback
	if set == nil {
		slots = inner.slots.borrow()
		slots.headerReceived = prev
		slots.release()
		return errors.MissingFunction(errors.PhaseRequest, op)
	}

	var tramp native.HeaderCallback
	if callback != nil {
		tramp = inner.bridge.tramp.headerReceived
	}
	set(inner.raw, tramp)
	return nil
}

// OnHeadersRead installs the closure called once all headers have arrived.
func (c *Connection) OnHeadersRead(callback Callback) error {
	return c.configure(eventHeadersRead, "http.setHeadersReadCallback", callback,
		func(api *native.HTTP) func(native.Conn, native.ConnectionCallback) {
			return api.SetHeadersReadCallback
		})
}

// OnResponse installs the closure called when body data is available.
func (c *Connection) OnResponse(callback Callback) error {
	return c.configure(eventResponse, "http.setResponseCallback", callback,
		func(api *native.HTTP) func(native.Conn, native.ConnectionCallback) {
			return api.SetResponseCallback
		})
}

// OnRequestComplete installs the closure called when the request finishes.
func (c *Connection) OnRequestComplete(callback Callback) error {
	return c.configure(eventRequestComplete, "http.setRequestCompleteCallback", callback,
		func(api *native.HTTP) func(native.Conn, native.ConnectionCallback) {
			return api.SetRequestCompleteCallback
		})
}

// OnConnectionClosed installs the closure called when the host closes the
// connection.
func (c *Connection) OnConnectionClosed(callback Callback) error {
	return c.configure(eventConnectionClosed, "http.setConnectionClosedCallback", callback,
		func(api *native.HTTP) func(native.Conn, native.ConnectionCallback) {
			return api.SetConnectionClosedCallback
		})
}

// configure stores callback in its slot and registers the matching trampoline
// with the host, or null when callback is nil. The slot is restored if the
// host has no setter.
func (c *Connection) configure(ev event, op string, callback Callback,
	pick func(*native.HTTP) func(native.Conn, native.ConnectionCallback),
) error {
	inner, err := c.live(op)
	if err != nil {
		return err
	}

	slots := inner.slots.borrow()
	slot := slots.simple(ev)
	prev := *slot
	*slot = callback
	slots.release()

	set := pick(inner.bridge.http)
	if set == nil {
		slots = inner.slots.borrow()
		*slots.simple(ev) = prev
		slots.release()
		return errors.MissingFunction(errors.PhaseRequest, op)
	}

	var tramp native.ConnectionCallback
	if callback != nil {
		tramp = inner.bridge.tramp.simple(ev)
	}
	set(inner.raw, tramp)
	return nil
}
