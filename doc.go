// Package pdbridge is a safe Go layer over a handheld console's firmware
// networking and sound API.
//
// The firmware hands the application a table of function pointers and calls
// back into it with opaque connection handles. The bridge keeps closures on
// the Go side, stores only a weak generation token in each native
// connection, and tears the connection down exactly once when the last
// strong reference is released.
//
// # Architecture Overview
//
//	pdbridge/
//	├── native/          Function tables the host fills in, NetErr codes, C strings
//	│   └── nativetest/  Scriptable in-memory host for tests
//	├── errors/          Structured error types (phase, kind, op, native code)
//	├── resource/        Generation-token handle table
//	├── network/         Connection handles, callback slots, dispatch, access requests
//	├── sound/           Channels, effects and synth sources
//	├── runtime/         Process context, fatal supervisor, frame runner
//	├── simhost/         Desktop host backed by net/http
//	└── cmd/pdsim/       Simulator CLI and TUI
//
// # Quick Start
//
//	rt, err := runtime.New(api, nil)
//	if err != nil {
//	    return err
//	}
//
//	conn, err := rt.HTTP().NewConnection("example.com", 443, true)
//	if err != nil {
//	    return err
//	}
//	conn.OnResponse(func(c *network.Connection) {
//	    buf := make([]byte, 512)
//	    n, _ := c.Read(buf)
//	    rt.Logf("got %d bytes", n)
//	})
//	conn.OnRequestComplete(func(c *network.Connection) {
//	    c.Release()
//	})
//	err = conn.Get("/", nil)
//
// # Threading
//
// Everything in the bridge runs on the single application thread. Host
// callbacks arrive during native calls on that thread and may re-enter the
// bridge, for example to release or close the connection that is being
// dispatched. Nothing here is safe for concurrent use.
package pdbridge
