package native

import "sync/atomic"

// API is the root table the firmware hands the application at startup.
// Every function field may be nil; callers treat a nil entry they need as a
// configuration error at first use.
type API struct {
	System  *System
	Network *Network
	Sound   *Sound

	// Collaborator tables the bridge stores but never calls.
	Graphics any
	Sprite   any
	File     any
	Lua      any
	Display  any

	claimed atomic.Bool
}

// Claim marks the table as bound to a runtime. It returns false if the table
// was already claimed.
func (a *API) Claim() bool {
	return a.claimed.CompareAndSwap(false, true)
}

// System is the subset of the system table the bridge uses.
type System struct {
	LogToConsole func(msg string)
	Error        func(msg string)
}

// Network is the network table.
type Network struct {
	GetStatus  func() WifiStatus
	SetEnabled func(flag bool, callback EnableCallback)
	HTTP       *HTTP
}

// HTTP is the HTTP table. Strings are nul-terminated; buffers are passed with
// their length and may be nil.
type HTTP struct {
	RequestAccess func(server []byte, port int32, useSSL bool, purpose []byte, callback AccessRequestCallback, userdata Userdata) AccessReply
	NewConnection func(server []byte, port int32, useSSL bool) Conn
	Release       func(conn Conn)
	Close         func(conn Conn)

	SetConnectTimeout func(conn Conn, ms int32)
	SetKeepAlive      func(conn Conn, keepAlive bool)
	SetByteRange      func(conn Conn, start, end int32)
	SetReadTimeout    func(conn Conn, ms int32)
	SetReadBufferSize func(conn Conn, bytes int32)

	SetUserdata func(conn Conn, userdata Userdata)
	GetUserdata func(conn Conn) Userdata

	Get   func(conn Conn, path, headers []byte) NetErr
	Post  func(conn Conn, path, headers, body []byte) NetErr
	Query func(conn Conn, method, path, headers, body []byte) NetErr

	GetError          func(conn Conn) NetErr
	GetProgress       func(conn Conn) (read, total int32)
	GetResponseStatus func(conn Conn) int32
	GetBytesAvailable func(conn Conn) uint32

	// Read copies up to length bytes into buf. A nil buf discards them.
	// Returns the count, or a negative NetErr.
	Read func(conn Conn, buf []byte, length uint32) int32

	SetHeaderReceivedCallback   func(conn Conn, callback HeaderCallback)
	SetHeadersReadCallback      func(conn Conn, callback ConnectionCallback)
	SetResponseCallback         func(conn Conn, callback ConnectionCallback)
	SetRequestCompleteCallback  func(conn Conn, callback ConnectionCallback)
	SetConnectionClosedCallback func(conn Conn, callback ConnectionCallback)
}
