package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/native/nativetest"
	"github.com/wippyai/pdbridge/resource"
)

func newTestBridge(t *testing.T) (*Bridge, *nativetest.Host) {
	t.Helper()
	host := nativetest.New()
	b, err := NewBridge(host.API().Network)
	require.NoError(t, err)
	return b, host
}

func newTestConn(t *testing.T, b *Bridge) *Connection {
	t.Helper()
	conn, err := b.HTTP().NewConnection("example.com", 80, false)
	require.NoError(t, err)
	return conn
}

func TestNewBridge_MissingTables(t *testing.T) {
	_, err := NewBridge(nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))

	_, err = NewBridge(&native.Network{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestNewConnection(t *testing.T) {
	b, host := newTestBridge(t)

	conn := newTestConn(t, b)
	defer conn.Release()

	hc := host.Conn(conn.Raw())
	require.NotNil(t, hc)
	assert.Equal(t, "example.com", hc.Server)
	assert.Equal(t, int32(80), hc.Port)
	assert.False(t, hc.UseSSL)
	assert.Equal(t, native.Userdata(conn.Token()), hc.Userdata)
	assert.Equal(t, 1, b.LiveConnections())
}

func TestNewConnection_Errors(t *testing.T) {
	t.Run("empty server", func(t *testing.T) {
		b, host := newTestBridge(t)
		_, err := b.HTTP().NewConnection("", 80, false)
		assert.True(t, errors.IsKind(err, errors.KindArgument))
		assert.Zero(t, host.CallCount("http.newConnection"))
	})

	t.Run("nul in server", func(t *testing.T) {
		b, host := newTestBridge(t)
		_, err := b.HTTP().NewConnection("exa\x00mple.com", 80, false)
		assert.True(t, errors.IsKind(err, errors.KindArgument))
		assert.Zero(t, host.CallCount("http.newConnection"))
	})

	t.Run("port out of range", func(t *testing.T) {
		b, _ := newTestBridge(t)
		_, err := b.HTTP().NewConnection("example.com", 70000, false)
		assert.True(t, errors.IsKind(err, errors.KindArgument))
	})

	t.Run("missing constructor", func(t *testing.T) {
		b, host := newTestBridge(t)
		host.HTTP().NewConnection = nil
		_, err := b.HTTP().NewConnection("example.com", 80, false)
		assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	})

	t.Run("null connection", func(t *testing.T) {
		b, host := newTestBridge(t)
		host.RefuseConnections = true
		_, err := b.HTTP().NewConnection("example.com", 80, false)
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindProtocolViolation))
		assert.Contains(t, err.Error(), "permission denied")
		assert.Zero(t, b.LiveConnections())
	})

	t.Run("missing setUserdata releases native connection", func(t *testing.T) {
		b, host := newTestBridge(t)
		host.HTTP().SetUserdata = nil
		_, err := b.HTTP().NewConnection("example.com", 80, false)
		assert.True(t, errors.IsKind(err, errors.KindConfiguration))
		require.Len(t, host.Conns(), 1)
		assert.Equal(t, 1, host.Conns()[0].Releases)
		assert.Zero(t, b.LiveConnections())
	})

	teardownFuncs := []struct {
		name     string
		clear    func(*native.HTTP)
		releases int
	}{
		{"http.getUserdata", func(h *native.HTTP) { h.GetUserdata = nil }, 1},
		{"http.close", func(h *native.HTTP) { h.Close = nil }, 1},
		{"http.release", func(h *native.HTTP) { h.Release = nil }, 0},
	}
	for _, tt := range teardownFuncs {
		t.Run("missing "+tt.name+" refused at creation", func(t *testing.T) {
			b, host := newTestBridge(t)
			tt.clear(host.HTTP())
			conn, err := b.HTTP().NewConnection("example.com", 80, false)
			assert.Nil(t, conn)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindConfiguration))
			assert.Contains(t, err.Error(), tt.name)
			require.Len(t, host.Conns(), 1)
			assert.Equal(t, tt.releases, host.Conns()[0].Releases)
			assert.Zero(t, b.LiveConnections())
		})
	}
}

func TestConnection_ReleaseTearsDownOnce(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	hc := host.Conn(conn.Raw())

	clone := conn.Clone()
	assert.True(t, clone.SameAs(conn))

	conn.Release()
	conn.Release()
	assert.Zero(t, hc.Closes)
	assert.Zero(t, hc.Releases)
	assert.Equal(t, 1, b.LiveConnections())

	clone.Release()
	assert.Equal(t, 1, hc.Closes)
	assert.Equal(t, 1, hc.Releases)
	assert.Equal(t, native.Userdata(0), hc.Userdata)
	assert.Zero(t, b.LiveConnections())

	clone.Release()
	assert.Equal(t, 1, hc.Closes)
	assert.Equal(t, 1, hc.Releases)
}

func TestConnection_TeardownOrder(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	host.ResetCalls()

	conn.Release()
	assert.Equal(t, []string{
		"http.getUserdata",
		"http.setUserdata",
		"http.close",
		"http.release",
	}, host.Calls())
}

func TestConnection_TeardownReclaimsToken(t *testing.T) {
	b, _ := newTestBridge(t)
	var dropped []resource.Token
	b.Subscribe(observerFunc(func(e resource.Event) {
		if e.Type == resource.EventDropped {
			dropped = append(dropped, e.Token)
		}
	}))

	conn := newTestConn(t, b)
	tok := conn.Token()
	conn.Release()

	assert.Equal(t, []resource.Token{tok}, dropped)
}

func TestConnection_TeardownMissingFunctionPanics(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	host.HTTP().Release = nil

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(*errors.Error)
		require.True(t, ok, "panic value %T", r)
		assert.Equal(t, errors.PhaseTeardown, err.Phase)
	}()
	conn.Release()
}

func TestConnection_UseAfterRelease(t *testing.T) {
	b, _ := newTestBridge(t)
	conn := newTestConn(t, b)
	conn.Release()

	err := conn.Get("/", nil)
	assert.True(t, errors.IsKind(err, errors.KindInvalidState))
	assert.Panics(t, func() { conn.Clone() })
}

func TestConnection_Requests(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	hc := host.Conn(conn.Raw())

	require.NoError(t, conn.Get("/ping", nil))
	assert.Equal(t, "GET", hc.Method)
	assert.Equal(t, "/ping", hc.Path)
	assert.Empty(t, hc.RequestHeaders)

	require.NoError(t, conn.Post("/submit", []byte("Content-Type: text/plain\r\n"), []byte("a\x00b")))
	assert.Equal(t, "POST", hc.Method)
	assert.Equal(t, "Content-Type: text/plain\r\n", string(hc.RequestHeaders))
	assert.Equal(t, []byte("a\x00b"), hc.RequestBody)

	require.NoError(t, conn.Query("PUT", "/item", nil, []byte("x")))
	assert.Equal(t, "PUT", hc.Method)
	assert.Equal(t, "/item", hc.Path)
}

func TestConnection_RequestNativeError(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	host.Conn(conn.Raw()).RequestErr = native.NetNotConnectedToAP

	err := conn.Get("/", nil)
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindNative, e.Kind)
	assert.Equal(t, "http.get", e.Op)
	assert.Equal(t, "NET_NOT_CONNECTED_TO_AP", e.Tag)
	assert.Equal(t, int32(-16), e.Code)
}

func TestConnection_RejectsNulBeforeNativeCall(t *testing.T) {
	tests := []struct {
		name string
		call func(*Connection) error
	}{
		{"get path", func(c *Connection) error { return c.Get("/a\x00b", nil) }},
		{"get headers", func(c *Connection) error { return c.Get("/", []byte("X: a\x00\r\n")) }},
		{"post path", func(c *Connection) error { return c.Post("/\x00", nil, nil) }},
		{"post headers", func(c *Connection) error { return c.Post("/", []byte("\x00"), nil) }},
		{"query method", func(c *Connection) error { return c.Query("GE\x00T", "/", nil, nil) }},
		{"query path", func(c *Connection) error { return c.Query("GET", "/\x00", nil, nil) }},
		{"query headers", func(c *Connection) error { return c.Query("GET", "/", []byte("\x00"), nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, host := newTestBridge(t)
			conn := newTestConn(t, b)
			defer conn.Release()
			host.ResetCalls()

			err := tt.call(conn)
			assert.True(t, errors.IsKind(err, errors.KindArgument), "got %v", err)
			assert.Empty(t, host.Calls())
		})
	}
}

func TestConnection_MissingRequestFunctions(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()

	host.HTTP().Get = nil
	host.HTTP().Post = nil
	host.HTTP().Query = nil
	host.HTTP().GetResponseStatus = nil

	assert.True(t, errors.IsKind(conn.Get("/", nil), errors.KindConfiguration))
	assert.True(t, errors.IsKind(conn.Post("/", nil, nil), errors.KindConfiguration))
	assert.True(t, errors.IsKind(conn.Query("GET", "/", nil, nil), errors.KindConfiguration))
	_, err := conn.ResponseStatus()
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestConnection_Read(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	hc := host.Conn(conn.Raw())

	buf := make([]byte, 8)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	hc.Body = []byte("hello world")
	avail, err := conn.BytesAvailable()
	require.NoError(t, err)
	assert.Equal(t, 11, avail)

	n, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "hello wo", string(buf[:n]))

	read, total, err := conn.Progress()
	require.NoError(t, err)
	assert.Equal(t, 8, read)
	assert.Equal(t, 11, total)

	_, err = conn.Read(nil)
	assert.True(t, errors.IsKind(err, errors.KindArgument))

	hc.ReadErr = native.NetReadTimeout
	_, err = conn.Read(buf)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindNative, e.Kind)
	assert.Equal(t, "http.read", e.Op)
	assert.Equal(t, "NET_READ_TIMEOUT", e.Tag)
}

func TestConnection_ReadUnknownCode(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	host.Conn(conn.Raw()).ReadErr = native.NetErr(-42)

	_, err := conn.Read(make([]byte, 4))
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "unknown code -42", e.Tag)
}

func TestConnection_Discard(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	hc := host.Conn(conn.Raw())
	hc.Body = []byte("0123456789")

	host.ResetCalls()
	n, err := conn.Discard(0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, host.Calls())

	n, err = conn.Discard(4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, hc.Discarded)
	assert.Equal(t, "456789", string(hc.Body))

	hc.ReadErr = native.NetConnectionClosed
	_, err = conn.Discard(1)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "http.read(discard)", e.Op)
	assert.Equal(t, "NET_CONNECTION_CLOSED", e.Tag)

	_, err = conn.Discard(-1)
	assert.True(t, errors.IsKind(err, errors.KindArgument))
}

func TestConnection_Setters(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	hc := host.Conn(conn.Raw())

	require.NoError(t, conn.SetConnectTimeout(5000))
	require.NoError(t, conn.SetReadTimeout(2500))
	require.NoError(t, conn.SetReadBufferSize(4096))
	require.NoError(t, conn.SetKeepAlive(true))
	require.NoError(t, conn.SetByteRange(10, 20))

	assert.Equal(t, int32(5000), hc.ConnectTimeout)
	assert.Equal(t, int32(2500), hc.ReadTimeout)
	assert.Equal(t, int32(4096), hc.ReadBufferSize)
	assert.True(t, hc.KeepAlive)
	assert.Equal(t, int32(10), hc.RangeStart)
	assert.Equal(t, int32(20), hc.RangeEnd)
}

func TestConnection_SettersOverflow(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	host.ResetCalls()

	tooBig := uint32(math.MaxInt32) + 1
	assert.True(t, errors.IsKind(conn.SetConnectTimeout(tooBig), errors.KindArgument))
	assert.True(t, errors.IsKind(conn.SetReadTimeout(tooBig), errors.KindArgument))
	assert.True(t, errors.IsKind(conn.SetReadBufferSize(tooBig), errors.KindArgument))
	assert.True(t, errors.IsKind(conn.SetByteRange(0, tooBig), errors.KindArgument))
	assert.True(t, errors.IsKind(conn.SetByteRange(tooBig, 0), errors.KindArgument))
	assert.Empty(t, host.Calls())

	require.NoError(t, conn.SetConnectTimeout(math.MaxInt32))
}

func TestConnection_Close(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	hc := host.Conn(conn.Raw())

	conn.Close()
	conn.Close()
	assert.Equal(t, 2, hc.Closes)
	assert.Zero(t, hc.Releases)

	host.HTTP().Close = func(native.Conn) {}
	conn.Close()

	conn.Release()
	assert.Equal(t, 1, hc.Releases)

	// Closing a released reference is a no-op.
	conn.Close()
}

func TestConnection_NetError(t *testing.T) {
	b, host := newTestBridge(t)
	conn := newTestConn(t, b)
	defer conn.Release()
	host.Conn(conn.Raw()).Error = native.NetBusy

	code, err := conn.NetError()
	require.NoError(t, err)
	assert.Equal(t, native.NetBusy, code)
	assert.Equal(t, "NET_BUSY", code.String())
}

type observerFunc func(resource.Event)

func (f observerFunc) OnResourceEvent(e resource.Event) { f(e) }
