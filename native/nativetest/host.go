// Package nativetest provides a scriptable in-memory host for testing code
// that talks to the native API tables.
//
// The host never fires callbacks on its own. Tests drive it explicitly with
// the Fire* methods, which run the registered callback on the calling
// goroutine, the same way firmware re-enters the application during a native
// call.
package nativetest

import (
	"github.com/wippyai/pdbridge/native"
)

// Event names a per-connection callback slot.
type Event int

const (
	EventHeaderReceived Event = iota
	EventHeadersRead
	EventResponse
	EventRequestComplete
	EventConnectionClosed
)

// Conn is the host-side state of one HTTP connection.
type Conn struct {
	Server string
	Port   int32
	UseSSL bool

	Userdata native.Userdata

	HeaderReceived   native.HeaderCallback
	HeadersRead      native.ConnectionCallback
	Response         native.ConnectionCallback
	RequestComplete  native.ConnectionCallback
	ConnectionClosed native.ConnectionCallback

	// Scripted behaviour.
	Status     int32
	Headers    [][2]string
	Body       []byte
	RequestErr native.NetErr
	ReadErr    native.NetErr
	Error      native.NetErr

	// Recorded state.
	Method         string
	Path           string
	RequestHeaders []byte
	RequestBody    []byte
	ConnectTimeout int32
	ReadTimeout    int32
	ReadBufferSize int32
	KeepAlive      bool
	RangeStart     int32
	RangeEnd       int32
	Discarded      int
	Delivered      int
	Closes         int
	Releases       int
}

// Registered reports whether a callback is installed for ev.
func (c *Conn) Registered(ev Event) bool {
	switch ev {
	case EventHeaderReceived:
		return c.HeaderReceived != nil
	case EventHeadersRead:
		return c.HeadersRead != nil
	case EventResponse:
		return c.Response != nil
	case EventRequestComplete:
		return c.RequestComplete != nil
	case EventConnectionClosed:
		return c.ConnectionClosed != nil
	}
	return false
}

type pendingAccess struct {
	callback native.AccessRequestCallback
	userdata native.Userdata
}

// Host is a fake firmware.
type Host struct {
	api   *native.API
	conns map[native.Conn]*Conn
	order []native.Conn
	next  native.Conn
	calls []string

	// DefaultStatus is copied into every new connection.
	DefaultStatus int32
	// RefuseConnections makes NewConnection return the null connection.
	RefuseConnections bool
	// AccessReply is returned by RequestAccess.
	AccessReply native.AccessReply
	// WifiStatus is returned by GetStatus.
	WifiStatus native.WifiStatus
	// Enabled tracks SetEnabled.
	Enabled bool

	pendingAccess []pendingAccess
	pendingEnable native.EnableCallback

	Logs   []string
	Errors []string

	sound *soundState
}

// New creates a host with every table entry populated.
func New() *Host {
	h := &Host{
		conns:         make(map[native.Conn]*Conn),
		next:          0x1000,
		DefaultStatus: 200,
		AccessReply:   native.AccessAllow,
		WifiStatus:    native.WifiConnected,
		sound:         newSoundState(),
	}
	h.api = &native.API{
		System: &native.System{
			LogToConsole: func(msg string) {
				h.record("system.logToConsole")
				h.Logs = append(h.Logs, msg)
			},
			Error: func(msg string) {
				h.record("system.error")
				h.Errors = append(h.Errors, msg)
			},
		},
		Network: &native.Network{
			GetStatus:  h.getStatus,
			SetEnabled: h.setEnabled,
			HTTP:       h.httpTable(),
		},
		Sound: h.soundTable(),
	}
	return h
}

// API returns the root table. Tests may nil out entries to simulate older
// firmware.
func (h *Host) API() *native.API { return h.api }

// HTTP returns the HTTP table.
func (h *Host) HTTP() *native.HTTP { return h.api.Network.HTTP }

// Conn returns the host state for conn, including released connections.
func (h *Host) Conn(conn native.Conn) *Conn { return h.conns[conn] }

// Conns returns every connection ever created, oldest first.
func (h *Host) Conns() []*Conn {
	out := make([]*Conn, 0, len(h.order))
	for _, c := range h.order {
		out = append(out, h.conns[c])
	}
	return out
}

// Calls returns the names of native calls in order.
func (h *Host) Calls() []string { return append([]string(nil), h.calls...) }

// CallCount returns how many times the named native call ran.
func (h *Host) CallCount(name string) int {
	n := 0
	for _, c := range h.calls {
		if c == name {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (h *Host) ResetCalls() { h.calls = nil }

func (h *Host) record(name string) { h.calls = append(h.calls, name) }

func (h *Host) getStatus() native.WifiStatus {
	h.record("network.getStatus")
	return h.WifiStatus
}

func (h *Host) setEnabled(flag bool, cb native.EnableCallback) {
	h.record("network.setEnabled")
	h.Enabled = flag
	h.pendingEnable = cb
}

// CompleteEnable fires the pending enable callback, if any.
func (h *Host) CompleteEnable(err native.NetErr) bool {
	cb := h.pendingEnable
	h.pendingEnable = nil
	if cb == nil {
		return false
	}
	cb(err)
	return true
}

// PendingAccess returns the number of deferred access decisions.
func (h *Host) PendingAccess() int { return len(h.pendingAccess) }

// RespondAccess delivers a decision to every deferred access request.
func (h *Host) RespondAccess(allowed bool) int {
	pending := h.pendingAccess
	h.pendingAccess = nil
	for _, p := range pending {
		p.callback(allowed, p.userdata)
	}
	return len(pending)
}

// PendingAccessUserdata returns the userdata words the host holds for
// deferred access requests.
func (h *Host) PendingAccessUserdata() []native.Userdata {
	out := make([]native.Userdata, 0, len(h.pendingAccess))
	for _, p := range h.pendingAccess {
		out = append(out, p.userdata)
	}
	return out
}

// FireHeader invokes the header-received callback.
func (h *Host) FireHeader(conn native.Conn, key, value string) bool {
	c := h.conns[conn]
	if c == nil || c.HeaderReceived == nil {
		return false
	}
	// Transient buffers, invalidated after the call like firmware scratch space.
	k, v := []byte(key), []byte(value)
	c.HeaderReceived(conn, k, v)
	clear(k)
	clear(v)
	return true
}

// Fire invokes a connection callback.
func (h *Host) Fire(conn native.Conn, ev Event) bool {
	c := h.conns[conn]
	if c == nil {
		return false
	}
	var cb native.ConnectionCallback
	switch ev {
	case EventHeadersRead:
		cb = c.HeadersRead
	case EventResponse:
		cb = c.Response
	case EventRequestComplete:
		cb = c.RequestComplete
	case EventConnectionClosed:
		cb = c.ConnectionClosed
	}
	if cb == nil {
		return false
	}
	cb(conn)
	return true
}

// Serve plays a full response in firing order: every scripted header, then
// headers-read, response and request-complete.
func (h *Host) Serve(conn native.Conn) {
	c := h.conns[conn]
	if c == nil {
		return
	}
	for _, kv := range c.Headers {
		h.FireHeader(conn, kv[0], kv[1])
	}
	h.Fire(conn, EventHeadersRead)
	h.Fire(conn, EventResponse)
	h.Fire(conn, EventRequestComplete)
}
