// Package runtime is the process context for an application running on the
// host.
//
// # Quick Start
//
//	rt, err := runtime.New(api, runtime.NewConfig().
//	    WithLogger(logger).
//	    WithFatalHook(func(msg string) { saveState() }))
//	if err != nil {
//	    return err
//	}
//
//	runner, err := runtime.NewRunner(rt, func(rt *runtime.Runtime) (runtime.App, error) {
//	    return newGame(rt)
//	})
//
//	// once per frame
//	if err := runner.Update(); runtime.IsFatal(err) {
//	    return err
//	}
//
// # Set-once initialization
//
// New binds the API table to exactly one Runtime. The network and sound
// facades are built from it once and handed out by reference.
//
// # Fatal conditions
//
// Supervise converts a panic into a fatal *errors.Error. The first fatal
// condition calls the configured hook, or an App's Cleanup, reports
// "panic: <value>" through the host's error channel and halts the runtime.
// Errors returned normally by an App are only logged.
package runtime
