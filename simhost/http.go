package simhost

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/native"
)

type conn struct {
	server string
	port   int32
	ssl    bool

	userdata native.Userdata

	headerReceived   native.HeaderCallback
	headersRead      native.ConnectionCallback
	response         native.ConnectionCallback
	requestComplete  native.ConnectionCallback
	connectionClosed native.ConnectionCallback

	connectTimeout time.Duration
	readTimeout    time.Duration
	keepAlive      bool
	rangeStart     int32
	rangeEnd       int32
	hasRange       bool

	busy   bool
	seq    uint64
	cancel context.CancelFunc

	status    int32
	body      []byte
	delivered int
	total     int
	err       native.NetErr
}

func (c *conn) cancelRequest() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// result is what a worker hands back to the application goroutine.
type result struct {
	status  int
	headers http.Header
	body    []byte
	err     error
}

func (h *Host) httpTable() *native.HTTP {
	return &native.HTTP{
		RequestAccess: h.requestAccess,
		NewConnection: h.newConnection,
		Release: func(c native.Conn) {
			if cn := h.conns[c]; cn != nil {
				cn.cancelRequest()
				delete(h.conns, c)
			}
		},
		Close: func(c native.Conn) {
			cn := h.conns[c]
			if cn == nil {
				return
			}
			cn.cancelRequest()
			if cn.busy {
				cn.busy = false
				cn.err = native.NetConnectionClosed
			}
			if cn.connectionClosed != nil {
				h.post(func() {
					if h.conns[c] == cn && cn.connectionClosed != nil {
						cn.connectionClosed(c)
					}
				})
			}
		},
		SetConnectTimeout: func(c native.Conn, ms int32) {
			h.conns[c].connectTimeout = time.Duration(ms) * time.Millisecond
		},
		SetKeepAlive: func(c native.Conn, keepAlive bool) {
			h.conns[c].keepAlive = keepAlive
		},
		SetByteRange: func(c native.Conn, start, end int32) {
			cn := h.conns[c]
			cn.rangeStart, cn.rangeEnd, cn.hasRange = start, end, true
		},
		SetReadTimeout: func(c native.Conn, ms int32) {
			h.conns[c].readTimeout = time.Duration(ms) * time.Millisecond
		},
		SetReadBufferSize: func(native.Conn, int32) {},
		SetUserdata: func(c native.Conn, ud native.Userdata) {
			h.conns[c].userdata = ud
		},
		GetUserdata: func(c native.Conn) native.Userdata {
			if cn := h.conns[c]; cn != nil {
				return cn.userdata
			}
			return 0
		},
		Get: func(c native.Conn, path, headers []byte) native.NetErr {
			return h.request(c, http.MethodGet, path, headers, nil)
		},
		Post: func(c native.Conn, path, headers, body []byte) native.NetErr {
			return h.request(c, http.MethodPost, path, headers, body)
		},
		Query: func(c native.Conn, method, path, headers, body []byte) native.NetErr {
			return h.request(c, native.GoString(method), path, headers, body)
		},
		GetError: func(c native.Conn) native.NetErr {
			return h.conns[c].err
		},
		GetProgress: func(c native.Conn) (int32, int32) {
			cn := h.conns[c]
			return int32(cn.delivered), int32(cn.total)
		},
		GetResponseStatus: func(c native.Conn) int32 {
			return h.conns[c].status
		},
		GetBytesAvailable: func(c native.Conn) uint32 {
			return uint32(len(h.conns[c].body))
		},
		Read: func(c native.Conn, buf []byte, length uint32) int32 {
			cn := h.conns[c]
			if len(cn.body) == 0 && cn.err != native.NetOK {
				return int32(cn.err)
			}
			n := min(int(length), len(cn.body))
			if buf != nil {
				n = copy(buf[:min(len(buf), n)], cn.body)
			}
			cn.body = cn.body[n:]
			cn.delivered += n
			return int32(n)
		},
		SetHeaderReceivedCallback: func(c native.Conn, cb native.HeaderCallback) {
			h.conns[c].headerReceived = cb
		},
		SetHeadersReadCallback: func(c native.Conn, cb native.ConnectionCallback) {
			h.conns[c].headersRead = cb
		},
		SetResponseCallback: func(c native.Conn, cb native.ConnectionCallback) {
			h.conns[c].response = cb
		},
		SetRequestCompleteCallback: func(c native.Conn, cb native.ConnectionCallback) {
			h.conns[c].requestComplete = cb
		},
		SetConnectionClosedCallback: func(c native.Conn, cb native.ConnectionCallback) {
			h.conns[c].connectionClosed = cb
		},
	}
}

func (h *Host) requestAccess(server []byte, port int32, useSSL bool, purpose []byte, cb native.AccessRequestCallback, ud native.Userdata) native.AccessReply {
	h.log.Debug("access requested",
		zap.String("server", native.GoString(server)),
		zap.Int32("port", port),
		zap.String("purpose", native.GoString(purpose)),
		zap.Stringer("reply", h.access))
	if h.access == native.AccessAsk && cb != nil {
		consent := h.consent
		h.post(func() { cb(consent, ud) })
	}
	return h.access
}

func (h *Host) newConnection(server []byte, port int32, useSSL bool) native.Conn {
	if h.access == native.AccessDeny {
		return 0
	}
	h.next++
	c := h.next
	h.conns[c] = &conn{
		server:    native.GoString(server),
		port:      port,
		ssl:       useSSL,
		keepAlive: true,
	}
	return c
}

func (h *Host) request(c native.Conn, method string, path, headers, body []byte) native.NetErr {
	cn := h.conns[c]
	if cn == nil {
		return native.NetConnectionClosed
	}
	if h.getStatus() != native.WifiConnected {
		return native.NetNotConnectedToAP
	}
	if cn.busy {
		return native.NetBusy
	}

	scheme := "http"
	if cn.ssl {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(cn.server, strconv.Itoa(int(cn.port))),
		Path:   native.GoString(path),
	}
	if i := strings.IndexByte(u.Path, '?'); i >= 0 {
		u.RawQuery = u.Path[i+1:]
		u.Path = u.Path[:i]
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if d := cn.connectTimeout + cn.readTimeout; d > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), d)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		cancel()
		h.log.Debug("bad request", zap.Error(err))
		return native.NetWriteError
	}
	parseHeaders(req.Header, headers)
	if cn.hasRange {
		req.Header.Set("Range", "bytes="+strconv.Itoa(int(cn.rangeStart))+"-"+strconv.Itoa(int(cn.rangeEnd)))
	}
	req.Close = !cn.keepAlive

	cn.busy = true
	cn.seq++
	seq := cn.seq
	cn.cancel = cancel
	cn.status, cn.body, cn.delivered, cn.total, cn.err = 0, nil, 0, 0, native.NetOK

	h.log.Debug("request started", zap.String("method", method), zap.String("url", u.String()))

	h.work.Add(1)
	go func() {
		defer h.work.Done()
		defer cancel()
		res := h.do(req)
		h.post(func() { h.complete(c, cn, seq, res) })
	}()
	return native.NetOK
}

func (h *Host) do(req *http.Request) result {
	resp, err := h.client.Do(req)
	if err != nil {
		return result{err: err}
	}
	body, readErr := io.ReadAll(resp.Body)
	// Close error is ignored after a full body read
	_ = resp.Body.Close()
	if readErr != nil {
		return result{err: readErr}
	}
	return result{status: resp.StatusCode, headers: resp.Header, body: body}
}

// complete runs on the application goroutine. Every callback may release
// the connection, so liveness is rechecked after each one.
func (h *Host) complete(c native.Conn, cn *conn, seq uint64, res result) {
	alive := func() bool { return h.conns[c] == cn }
	if !alive() || !cn.busy || cn.seq != seq {
		return
	}
	cn.busy = false
	cn.cancel = nil

	if res.err != nil {
		cn.err = netErrFor(res.err)
		h.log.Debug("request failed", zap.Error(res.err), zap.Stringer("code", cn.err))
		if cb := cn.connectionClosed; cb != nil {
			cb(c)
		}
		return
	}

	cn.status = int32(res.status)
	cn.body = res.body
	cn.total = len(res.body)
	h.log.Debug("request complete", zap.Int("status", res.status), zap.Int("bytes", len(res.body)))

	keys := make([]string, 0, len(res.headers))
	for k := range res.headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range res.headers[k] {
			if !alive() || cn.headerReceived == nil {
				break
			}
			key, value := []byte(k), []byte(v)
			cn.headerReceived(c, key, value)
			clear(key)
			clear(value)
		}
	}

	for _, pick := range []func() native.ConnectionCallback{
		func() native.ConnectionCallback { return cn.headersRead },
		func() native.ConnectionCallback { return cn.response },
		func() native.ConnectionCallback { return cn.requestComplete },
	} {
		if !alive() {
			return
		}
		if cb := pick(); cb != nil {
			cb(c)
		}
	}
}

// parseHeaders reads a raw "Key: Value" block separated by CRLF or LF.
func parseHeaders(dst http.Header, raw []byte) {
	for line := range strings.SplitSeq(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		dst.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}
}

func netErrFor(err error) native.NetErr {
	var (
		ne    net.Error
		opErr *net.OpError
	)
	switch {
	case stderrors.Is(err, context.Canceled):
		return native.NetConnectionClosed
	case stderrors.Is(err, context.DeadlineExceeded):
		return native.NetReadTimeout
	case stderrors.As(err, &ne) && ne.Timeout():
		return native.NetReadTimeout
	case stderrors.As(err, &opErr) && opErr.Op == "dial":
		return native.NetNoDevice
	}
	return native.NetReadError
}
