package native

// Conn is an opaque native HTTP connection. Zero is the null connection.
type Conn uintptr

// Userdata is the opaque word the host stores per connection or per request
// and passes back to callbacks unmodified. Zero is null.
type Userdata uintptr

// AccessReply is the host's answer to a permission request.
type AccessReply int32

const (
	AccessAsk AccessReply = iota
	AccessDeny
	AccessAllow
)

func (r AccessReply) String() string {
	switch r {
	case AccessAsk:
		return "ask"
	case AccessDeny:
		return "deny"
	case AccessAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// WifiStatus is the link state reported by the network table.
type WifiStatus int32

const (
	WifiNotConnected WifiStatus = iota
	WifiConnected
	WifiNotAvailable
)

func (s WifiStatus) String() string {
	switch s {
	case WifiNotConnected:
		return "not-connected"
	case WifiConnected:
		return "connected"
	case WifiNotAvailable:
		return "not-available"
	default:
		return "unknown"
	}
}

// Callback signatures the host invokes.
type (
	// ConnectionCallback fires for headers-read, response, request-complete
	// and connection-closed.
	ConnectionCallback func(conn Conn)

	// HeaderCallback fires once per received header. key and value are only
	// valid for the duration of the call.
	HeaderCallback func(conn Conn, key, value []byte)

	// AccessRequestCallback delivers a deferred permission decision.
	AccessRequestCallback func(allowed bool, userdata Userdata)

	// EnableCallback reports the outcome of enabling the network.
	EnableCallback func(err NetErr)
)
