package nativetest

import (
	"github.com/wippyai/pdbridge/native"
)

func (h *Host) httpTable() *native.HTTP {
	return &native.HTTP{
		RequestAccess: func(server []byte, port int32, useSSL bool, purpose []byte, cb native.AccessRequestCallback, ud native.Userdata) native.AccessReply {
			h.record("http.requestAccess")
			if h.AccessReply == native.AccessAsk && cb != nil {
				h.pendingAccess = append(h.pendingAccess, pendingAccess{callback: cb, userdata: ud})
			}
			return h.AccessReply
		},
		NewConnection: func(server []byte, port int32, useSSL bool) native.Conn {
			h.record("http.newConnection")
			if h.RefuseConnections {
				return 0
			}
			h.next++
			conn := h.next
			h.conns[conn] = &Conn{
				Server: native.GoString(server),
				Port:   port,
				UseSSL: useSSL,
				Status: h.DefaultStatus,
			}
			h.order = append(h.order, conn)
			return conn
		},
		Release: func(conn native.Conn) {
			h.record("http.release")
			if c := h.conns[conn]; c != nil {
				c.Releases++
			}
		},
		Close: func(conn native.Conn) {
			h.record("http.close")
			if c := h.conns[conn]; c != nil {
				c.Closes++
			}
		},
		SetConnectTimeout: func(conn native.Conn, ms int32) {
			h.record("http.setConnectTimeout")
			h.conns[conn].ConnectTimeout = ms
		},
		SetKeepAlive: func(conn native.Conn, keepAlive bool) {
			h.record("http.setKeepAlive")
			h.conns[conn].KeepAlive = keepAlive
		},
		SetByteRange: func(conn native.Conn, start, end int32) {
			h.record("http.setByteRange")
			c := h.conns[conn]
			c.RangeStart, c.RangeEnd = start, end
		},
		SetReadTimeout: func(conn native.Conn, ms int32) {
			h.record("http.setReadTimeout")
			h.conns[conn].ReadTimeout = ms
		},
		SetReadBufferSize: func(conn native.Conn, n int32) {
			h.record("http.setReadBufferSize")
			h.conns[conn].ReadBufferSize = n
		},
		SetUserdata: func(conn native.Conn, ud native.Userdata) {
			h.record("http.setUserdata")
			h.conns[conn].Userdata = ud
		},
		GetUserdata: func(conn native.Conn) native.Userdata {
			h.record("http.getUserdata")
			if c := h.conns[conn]; c != nil {
				return c.Userdata
			}
			return 0
		},
		Get: func(conn native.Conn, path, headers []byte) native.NetErr {
			h.record("http.get")
			return h.request(conn, "GET", path, headers, nil)
		},
		Post: func(conn native.Conn, path, headers, body []byte) native.NetErr {
			h.record("http.post")
			return h.request(conn, "POST", path, headers, body)
		},
		Query: func(conn native.Conn, method, path, headers, body []byte) native.NetErr {
			h.record("http.query")
			return h.request(conn, native.GoString(method), path, headers, body)
		},
		GetError: func(conn native.Conn) native.NetErr {
			h.record("http.getError")
			return h.conns[conn].Error
		},
		GetProgress: func(conn native.Conn) (int32, int32) {
			h.record("http.getProgress")
			c := h.conns[conn]
			return int32(c.Delivered), int32(c.Delivered + len(c.Body))
		},
		GetResponseStatus: func(conn native.Conn) int32 {
			h.record("http.getResponseStatus")
			return h.conns[conn].Status
		},
		GetBytesAvailable: func(conn native.Conn) uint32 {
			h.record("http.getBytesAvailable")
			return uint32(len(h.conns[conn].Body))
		},
		Read: func(conn native.Conn, buf []byte, length uint32) int32 {
			h.record("http.read")
			c := h.conns[conn]
			if c.ReadErr != native.NetOK {
				return int32(c.ReadErr)
			}
			n := min(int(length), len(c.Body))
			if buf != nil {
				n = copy(buf[:min(len(buf), n)], c.Body)
			} else {
				c.Discarded += n
			}
			c.Body = c.Body[n:]
			c.Delivered += n
			return int32(n)
		},
		SetHeaderReceivedCallback: func(conn native.Conn, cb native.HeaderCallback) {
			h.record("http.setHeaderReceivedCallback")
			h.conns[conn].HeaderReceived = cb
		},
		SetHeadersReadCallback: func(conn native.Conn, cb native.ConnectionCallback) {
			h.record("http.setHeadersReadCallback")
			h.conns[conn].HeadersRead = cb
		},
		SetResponseCallback: func(conn native.Conn, cb native.ConnectionCallback) {
			h.record("http.setResponseCallback")
			h.conns[conn].Response = cb
		},
		SetRequestCompleteCallback: func(conn native.Conn, cb native.ConnectionCallback) {
			h.record("http.setRequestCompleteCallback")
			h.conns[conn].RequestComplete = cb
		},
		SetConnectionClosedCallback: func(conn native.Conn, cb native.ConnectionCallback) {
			h.record("http.setConnectionClosedCallback")
			h.conns[conn].ConnectionClosed = cb
		},
	}
}

func (h *Host) request(conn native.Conn, method string, path, headers, body []byte) native.NetErr {
	c := h.conns[conn]
	c.Method = method
	c.Path = native.GoString(path)
	c.RequestHeaders = append([]byte(nil), headers...)
	c.RequestBody = append([]byte(nil), body...)
	return c.RequestErr
}
