package network

import (
	"bytes"
	"runtime"
	"weak"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/resource"
)

// connection is the state shared by every strong reference to one native
// connection. The host reaches it only through token, whose table entry is a
// weak pointer.
type connection struct {
	bridge *Bridge
	raw    native.Conn
	token  resource.Token
	slots  slotTable
	refs   int
	leak   runtime.Cleanup
	torn   bool
}

// Connection is a strong reference to a native HTTP connection.
//
// Clone adds a reference and Release drops one. When the last reference is
// released the token is reclaimed, the host's userdata is cleared and the
// native connection is closed and released, exactly once.
type Connection struct {
	inner    *connection
	released bool
}

func newConnection(b *Bridge, raw native.Conn) (*Connection, error) {
	api := b.http
	// Teardown needs all four; a table missing one is refused before the
	// connection is handed out.
	if name := missingTeardownFunc(api); name != "" {
		if api.Release != nil {
			api.Release(raw)
		}
		return nil, errors.MissingFunction(errors.PhaseRequest, name)
	}

	inner := &connection{
		bridge: b,
		raw:    raw,
		refs:   1,
	}
	inner.token = b.conns.Insert(weak.Make(inner))
	if inner.token == 0 {
		api.Release(raw)
		return nil, errors.InvalidState(errors.PhaseRequest, "http.newConnection", "no free connection token")
	}
	api.SetUserdata(raw, native.Userdata(inner.token))

	inner.leak = runtime.AddCleanup(inner, func(raw native.Conn) {
		Logger().Warn("http connection collected without Release",
			zap.Uintptr("conn", uintptr(raw)))
	}, raw)

	b.log.Debug("http connection created",
		zap.Uintptr("conn", uintptr(raw)),
		zap.Uint64("token", uint64(inner.token)))

	return &Connection{inner: inner}, nil
}

// Clone returns a new strong reference to the same connection.
func (c *Connection) Clone() *Connection {
	if c.released {
		panic("network: Clone of released connection")
	}
	c.inner.refs++
	return &Connection{inner: c.inner}
}

// Release drops this reference. Releasing the same reference twice is a no-op.
// The last release tears the native connection down; a native failure at that
// point panics, since there is no way left to report it.
func (c *Connection) Release() {
	if c.released {
		return
	}
	c.released = true
	inner := c.inner
	inner.refs--
	if inner.refs == 0 {
		inner.teardown()
	}
}

// Raw returns the opaque native connection.
func (c *Connection) Raw() native.Conn {
	return c.inner.raw
}

// Token returns the userdata token the host holds for this connection.
func (c *Connection) Token() resource.Token {
	return c.inner.token
}

// SameAs reports whether both references share one native connection.
func (c *Connection) SameAs(other *Connection) bool {
	return other != nil && c.inner == other.inner
}

func (inner *connection) teardown() {
	if inner.torn {
		return
	}
	inner.torn = true
	inner.leak.Stop()

	b := inner.bridge
	api := b.http
	if name := missingTeardownFunc(api); name != "" {
		panic(errors.Teardown("http.release", errors.MissingFunction(errors.PhaseTeardown, name)))
	}

	ud := api.GetUserdata(inner.raw)
	if resource.Token(ud) != inner.token {
		panic(errors.Teardown("http.getUserdata", errors.New(errors.PhaseTeardown, errors.KindInvalidState).
			Value(uint64(ud)).
			Detail("userdata %#x does not hold token %#x", uint64(ud), uint64(inner.token)).
			Build()))
	}
	b.conns.Remove(inner.token)

	api.SetUserdata(inner.raw, 0)
	api.Close(inner.raw)
	api.Release(inner.raw)

	inner.slots.clear()

	b.log.Debug("http connection released",
		zap.Uintptr("conn", uintptr(inner.raw)),
		zap.Uint64("token", uint64(inner.token)))
}

// missingTeardownFunc names the first teardown entry the table lacks, or
// returns "".
func missingTeardownFunc(api *native.HTTP) string {
	switch {
	case api.GetUserdata == nil:
		return "http.getUserdata"
	case api.SetUserdata == nil:
		return "http.setUserdata"
	case api.Close == nil:
		return "http.close"
	case api.Release == nil:
		return "http.release"
	}
	return ""
}

// live returns the shared state, or an error once this reference was released.
func (c *Connection) live(op string) (*connection, error) {
	if c == nil || c.released {
		return nil, errors.InvalidState(errors.PhaseRequest, op, "connection already released")
	}
	return c.inner, nil
}

// SetConnectTimeout sets the connect timeout in milliseconds.
func (c *Connection) SetConnectTimeout(ms uint32) error {
	return c.setInt("http.setConnectTimeout", ms, func(api *native.HTTP) func(native.Conn, int32) {
		return api.SetConnectTimeout
	})
}

// SetReadTimeout sets the read timeout in milliseconds.
func (c *Connection) SetReadTimeout(ms uint32) error {
	return c.setInt("http.setReadTimeout", ms, func(api *native.HTTP) func(native.Conn, int32) {
		return api.SetReadTimeout
	})
}

// SetReadBufferSize sets the host-side read buffer size in bytes.
func (c *Connection) SetReadBufferSize(n uint32) error {
	return c.setInt("http.setReadBufferSize", n, func(api *native.HTTP) func(native.Conn, int32) {
		return api.SetReadBufferSize
	})
}

func (c *Connection) setInt(op string, v uint32, pick func(*native.HTTP) func(native.Conn, int32)) error {
	inner, err := c.live(op)
	if err != nil {
		return err
	}
	n, ok := native.CheckInt32(v)
	if !ok {
		return errors.Overflow(errors.PhaseRequest, op, v, "int32")
	}
	fn := pick(inner.bridge.http)
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, op)
	}
	fn(inner.raw, n)
	return nil
}

// SetKeepAlive toggles connection reuse.
func (c *Connection) SetKeepAlive(keepAlive bool) error {
	const op = "http.setKeepAlive"
	inner, err := c.live(op)
	if err != nil {
		return err
	}
	fn := inner.bridge.http.SetKeepAlive
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, op)
	}
	fn(inner.raw, keepAlive)
	return nil
}

// SetByteRange requests only bytes start..end of the resource.
func (c *Connection) SetByteRange(start, end uint32) error {
	const op = "http.setByteRange"
	inner, err := c.live(op)
	if err != nil {
		return err
	}
	s, ok := native.CheckInt32(start)
	if !ok {
		return errors.Overflow(errors.PhaseRequest, op, start, "int32")
	}
	e, ok := native.CheckInt32(end)
	if !ok {
		return errors.Overflow(errors.PhaseRequest, op, end, "int32")
	}
	fn := inner.bridge.http.SetByteRange
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, op)
	}
	fn(inner.raw, s, e)
	return nil
}

// Get issues a GET request. headers is a raw header block and may be nil.
func (c *Connection) Get(path string, headers []byte) error {
	const op = "http.get"
	inner, err := c.live(op)
	if err != nil {
		return err
	}
	pathC, err := encode(op, "path", path)
	if err != nil {
		return err
	}
	if err := checkHeaders(op, headers); err != nil {
		return err
	}
	fn := inner.bridge.http.Get
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, op)
	}
	return netResult(op, fn(inner.raw, pathC, native.Buffer(headers)))
}

// Post issues a POST request. headers and body may be nil.
func (c *Connection) Post(path string, headers, body []byte) error {
	const op = "http.post"
	inner, err := c.live(op)
	if err != nil {
		return err
	}
	pathC, err := encode(op, "path", path)
	if err != nil {
		return err
	}
	if err := checkHeaders(op, headers); err != nil {
		return err
	}
	fn := inner.bridge.http.Post
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, op)
	}
	return netResult(op, fn(inner.raw, pathC, native.Buffer(headers), native.Buffer(body)))
}

// Query issues a request with an arbitrary method.
func (c *Connection) Query(method, path string, headers, body []byte) error {
	const op = "http.query"
	inner, err := c.live(op)
	if err != nil {
		return err
	}
	methodC, err := encode(op, "method", method)
	if err != nil {
		return err
	}
	pathC, err := encode(op, "path", path)
	if err != nil {
		return err
	}
	if err := checkHeaders(op, headers); err != nil {
		return err
	}
	fn := inner.bridge.http.Query
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, op)
	}
	return netResult(op, fn(inner.raw, methodC, pathC, native.Buffer(headers), native.Buffer(body)))
}

// NetError returns the connection's last network error.
func (c *Connection) NetError() (native.NetErr, error) {
	const op = "http.getError"
	inner, err := c.live(op)
	if err != nil {
		return 0, err
	}
	fn := inner.bridge.http.GetError
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseRequest, op)
	}
	return fn(inner.raw), nil
}

// Progress returns bytes received so far and the expected total.
func (c *Connection) Progress() (read, total int, err error) {
	const op = "http.getProgress"
	inner, err := c.live(op)
	if err != nil {
		return 0, 0, err
	}
	fn := inner.bridge.http.GetProgress
	if fn == nil {
		return 0, 0, errors.MissingFunction(errors.PhaseRequest, op)
	}
	r, t := fn(inner.raw)
	return int(r), int(t), nil
}

// ResponseStatus returns the HTTP status code of the response.
func (c *Connection) ResponseStatus() (int, error) {
	const op = "http.getResponseStatus"
	inner, err := c.live(op)
	if err != nil {
		return 0, err
	}
	fn := inner.bridge.http.GetResponseStatus
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseRequest, op)
	}
	return int(fn(inner.raw)), nil
}

// BytesAvailable returns how many body bytes can be read without waiting.
func (c *Connection) BytesAvailable() (int, error) {
	const op = "http.getBytesAvailable"
	inner, err := c.live(op)
	if err != nil {
		return 0, err
	}
	fn := inner.bridge.http.GetBytesAvailable
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseRequest, op)
	}
	return int(fn(inner.raw)), nil
}

// Read copies available body bytes into buf and returns the count. buf must
// not be empty, so that a zero count always means nothing was available.
func (c *Connection) Read(buf []byte) (int, error) {
	const op = "http.read"
	inner, err := c.live(op)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, errors.InvalidArgument(errors.PhaseRequest, op, "buffer must not be empty")
	}
	n, ok := native.CheckUint32(len(buf))
	if !ok {
		return 0, errors.Overflow(errors.PhaseRequest, op, len(buf), "uint32")
	}
	fn := inner.bridge.http.Read
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseRequest, op)
	}
	return readResult(op, fn(inner.raw, buf, n))
}

// Discard skips up to n body bytes and returns how many were skipped.
func (c *Connection) Discard(n int) (int, error) {
	const op = "http.read(discard)"
	inner, err := c.live(op)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	length, ok := native.CheckUint32(n)
	if !ok {
		return 0, errors.Overflow(errors.PhaseRequest, op, n, "uint32")
	}
	fn := inner.bridge.http.Read
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseRequest, op)
	}
	return readResult(op, fn(inner.raw, nil, length))
}

// Close asks the host to close the connection. It may be called any number of
// times before Release; a host without close makes it a no-op.
func (c *Connection) Close() {
	if c == nil || c.released {
		return
	}
	if fn := c.inner.bridge.http.Close; fn != nil {
		fn(c.inner.raw)
	}
}

func encode(op, field, s string) ([]byte, error) {
	b, err := native.CString(s)
	if err != nil {
		var at int
		if nul, ok := err.(*native.NulError); ok {
			at = nul.Offset
		}
		return nil, errors.EmbeddedNul(errors.PhaseRequest, op, field, at)
	}
	return b, nil
}

func checkHeaders(op string, headers []byte) error {
	if i := bytes.IndexByte(headers, 0); i >= 0 {
		return errors.EmbeddedNul(errors.PhaseRequest, op, "headers", i)
	}
	return nil
}

func netResult(op string, code native.NetErr) error {
	if code == native.NetOK {
		return nil
	}
	return errors.Native(errors.PhaseRequest, op, int32(code), code.String())
}

func readResult(op string, result int32) (int, error) {
	if result >= 0 {
		return int(result), nil
	}
	return 0, errors.Native(errors.PhaseRequest, op, result, native.DescribeNetErr(result))
}
