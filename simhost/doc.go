// Package simhost runs the bridge on a desktop against real HTTP servers.
//
// Host implements the native API tables. Requests are sent by worker
// goroutines, but their outcome is queued and only delivered from Run or
// Pump, on the goroutine that drives frames. The application therefore sees
// the same single-threaded, re-entrant callback model as on the device:
//
//	host := simhost.New().WithFrameRate(30)
//	rt, _ := runtime.New(host.API(), nil)
//	...
//	err := host.Run(ctx, runner.Update)
//
// Sound calls are accepted and tracked but produce no audio.
package simhost
