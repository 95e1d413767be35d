package main

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/network"
	"github.com/wippyai/pdbridge/runtime"
)

// request describes one HTTP exchange driven through the bridge.
type request struct {
	server  string
	port    int
	ssl     bool
	method  string
	path    string
	headers []byte
	body    []byte
	timeout time.Duration
	purpose string
}

// parseTarget fills server, port, ssl and path from a URL.
func (r *request) parseTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
	case "https":
		r.ssl = true
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	r.server = u.Hostname()
	if r.server == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	r.port = 80
	if r.ssl {
		r.port = 443
	}
	if p := u.Port(); p != "" {
		if r.port, err = strconv.Atoi(p); err != nil {
			return fmt.Errorf("bad port %q", p)
		}
	}
	r.path = u.EscapedPath()
	if r.path == "" {
		r.path = "/"
	}
	if u.RawQuery != "" {
		r.path += "?" + u.RawQuery
	}
	return nil
}

type fetchState int

const (
	stateAccess fetchState = iota
	stateWaitAccess
	stateRequest
	stateWaitResponse
	stateDone
)

// fetchApp runs one request per process and records every callback it sees.
type fetchApp struct {
	req   request
	conn  *network.Connection
	state fetchState

	trace  []string
	body   []byte
	status int
	failed bool
}

func newFetchApp(req request) *fetchApp {
	if req.method == "" {
		req.method = "GET"
	}
	return &fetchApp{req: req}
}

func (f *fetchApp) logf(format string, args ...any) {
	f.trace = append(f.trace, fmt.Sprintf(format, args...))
}

func (f *fetchApp) finish(failed bool) {
	f.failed = failed
	f.state = stateDone
}

// Done reports whether the exchange has ended.
func (f *fetchApp) Done() bool { return f.state == stateDone }

func (f *fetchApp) Update(rt *runtime.Runtime) error {
	switch f.state {
	case stateAccess:
		return f.requestAccess(rt)
	case stateRequest:
		return f.send(rt)
	}
	return nil
}

func (f *fetchApp) requestAccess(rt *runtime.Runtime) error {
	r := f.req
	reply, err := rt.HTTP().RequestAccess(r.server, r.port, r.ssl, r.purpose, func(allowed bool) {
		f.logf("access decided: allowed=%t", allowed)
		if !allowed {
			f.finish(true)
			return
		}
		f.state = stateRequest
	})
	if err != nil {
		f.finish(true)
		return err
	}
	f.logf("access reply: %s", reply)
	switch reply {
	case native.AccessAllow:
		f.state = stateRequest
	case native.AccessAsk:
		f.state = stateWaitAccess
	default:
		f.finish(true)
	}
	return nil
}

func (f *fetchApp) send(rt *runtime.Runtime) error {
	r := f.req
	ms, err := timeoutMillis(r.timeout)
	if err != nil {
		f.finish(true)
		return err
	}
	conn, err := rt.HTTP().NewConnection(r.server, r.port, r.ssl)
	if err != nil {
		f.finish(true)
		return err
	}
	f.conn = conn
	f.logf("connection opened to %s:%d (ssl=%t)", r.server, r.port, r.ssl)

	if err := f.start(conn, ms); err != nil {
		f.release()
		f.finish(true)
		return err
	}
	f.logf("%s %s sent", strings.ToUpper(r.method), r.path)
	f.state = stateWaitResponse
	return nil
}

// start configures conn and issues the request.
func (f *fetchApp) start(conn *network.Connection, timeoutMS uint32) error {
	r := f.req
	if timeoutMS > 0 {
		if err := conn.SetConnectTimeout(timeoutMS); err != nil {
			return err
		}
		if err := conn.SetReadTimeout(timeoutMS); err != nil {
			return err
		}
	}
	if err := f.register(conn); err != nil {
		return err
	}

	method := strings.ToUpper(r.method)
	switch method {
	case "GET":
		return conn.Get(r.path, r.headers)
	case "POST":
		return conn.Post(r.path, r.headers, r.body)
	}
	return conn.Query(method, r.path, r.headers, r.body)
}

// timeoutMillis converts d to the millisecond count the host accepts.
func timeoutMillis(d time.Duration) (uint32, error) {
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", d)
	}
	ms := d / time.Millisecond
	if ms > math.MaxInt32 {
		return 0, fmt.Errorf("timeout %s exceeds %d ms", d, math.MaxInt32)
	}
	return uint32(ms), nil
}

func (f *fetchApp) register(conn *network.Connection) error {
	if err := conn.OnHeaderReceived(func(_ *network.Connection, key, value []byte) {
		f.logf("header: %s: %s", key, value)
	}); err != nil {
		return err
	}
	if err := conn.OnHeadersRead(func(c *network.Connection) {
		status, _ := c.ResponseStatus()
		f.status = status
		f.logf("headers read: status %d", status)
	}); err != nil {
		return err
	}
	if err := conn.OnResponse(func(c *network.Connection) {
		n, err := c.BytesAvailable()
		if err != nil || n == 0 {
			f.logf("response: nothing to read")
			return
		}
		buf := make([]byte, n)
		n, err = c.Read(buf)
		if err != nil {
			f.logf("response: read failed: %v", err)
			return
		}
		f.body = append(f.body, buf[:n]...)
		f.logf("response: %d bytes", n)
	}); err != nil {
		return err
	}
	if err := conn.OnRequestComplete(func(c *network.Connection) {
		read, total, _ := c.Progress()
		f.logf("request complete: %d/%d bytes", read, total)
		f.finish(false)
	}); err != nil {
		return err
	}
	return conn.OnConnectionClosed(func(c *network.Connection) {
		code, _ := c.NetError()
		f.logf("connection closed: %s", code)
		f.finish(code != native.NetOK)
	})
}

// Cleanup releases the connection when the runtime halts.
func (f *fetchApp) Cleanup(string) {
	f.release()
}

func (f *fetchApp) release() {
	if f.conn != nil {
		f.conn.Release()
		f.conn = nil
	}
}
