// Package native describes the device firmware's API tables.
//
// The firmware exposes its services as tables of function values reached
// through opaque handles. This package mirrors those tables as Go structs whose
// fields may be nil: a nil entry means the firmware revision does not provide
// that function, and the facade that needs it reports a configuration error at
// first use.
//
// # Handles and userdata
//
// Conn, Channel, Effect and Source are opaque words owned by the host. The
// application never interprets their bits. Userdata is the one word the host
// stores on the application's behalf and passes back to callbacks unmodified;
// the bridge fills it with a resource.Token, never with a Go pointer.
//
// # Text
//
// Strings crossing the boundary are nul-terminated. CString rejects text that
// already contains a terminator, since the host would silently truncate it.
//
// # Result codes
//
// Network and HTTP calls report failures from the closed NetErr set. Its
// String method is the bridge's error-code translator.
package native
