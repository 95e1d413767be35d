package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
)

// Event is a system lifecycle event delivered by the host.
type Event int

const (
	EventInit Event = iota
	EventInitLua
	EventLock
	EventUnlock
	EventPause
	EventResume
	EventTerminate
	EventKeyPressed
	EventKeyReleased
	EventLowPower
)

func (e Event) String() string {
	switch e {
	case EventInit:
		return "init"
	case EventInitLua:
		return "init-lua"
	case EventLock:
		return "lock"
	case EventUnlock:
		return "unlock"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventTerminate:
		return "terminate"
	case EventKeyPressed:
		return "key-pressed"
	case EventKeyReleased:
		return "key-released"
	case EventLowPower:
		return "low-power"
	}
	return "unknown"
}

// App is the application driven by a Runner. Update runs once per frame.
type App interface {
	Update(rt *Runtime) error
}

// EventHandler is implemented by apps that want lifecycle events.
type EventHandler interface {
	HandleEvent(rt *Runtime, ev Event) error
}

// Cleaner is implemented by apps that want a last chance to save state when
// the runtime hits a fatal condition.
type Cleaner interface {
	Cleanup(msg string)
}

// Runner drives an App frame by frame under the runtime's supervisor.
// Ordinary errors from the app are logged to the console and do not stop
// the runner.
type Runner struct {
	rt         *Runtime
	app        App
	initFailed bool
	frames     uint64
}

// NewRunner builds the app with create. If create fails the error is logged
// and the runner stays inert; a panic in create is fatal.
func NewRunner(rt *Runtime, create func(*Runtime) (App, error)) (*Runner, error) {
	r := &Runner{rt: rt}

	err := rt.Supervise(func() error {
		app, err := create(rt)
		if err != nil {
			rt.Logf("Got error while creating app: %v", err)
			r.initFailed = true
			return nil
		}
		if app == nil {
			rt.Log("create returned no app")
			r.initFailed = true
			return nil
		}
		r.app = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c, ok := r.app.(Cleaner); ok {
		if err := rt.OnFatal(c.Cleanup); err != nil {
			rt.log.Debug("app cleanup not registered", zap.Error(err))
		}
	}
	return r, nil
}

// App returns the driven app, or nil if creation failed.
func (r *Runner) App() App { return r.app }

// Frames returns the number of frames run.
func (r *Runner) Frames() uint64 { return r.frames }

// Update runs one frame. It returns an error only when the runtime is
// halted.
func (r *Runner) Update() error {
	if r.initFailed {
		return nil
	}
	return r.rt.Supervise(func() error {
		r.frames++
		if err := r.app.Update(r.rt); err != nil {
			r.rt.Logf("Error in update: %v", err)
		}
		return nil
	})
}

// HandleEvent forwards ev to the app if it implements EventHandler.
func (r *Runner) HandleEvent(ev Event) error {
	if r.initFailed {
		r.rt.Log("no app to handle event")
		return nil
	}
	h, ok := r.app.(EventHandler)
	if !ok {
		return nil
	}
	return r.rt.Supervise(func() error {
		if err := h.HandleEvent(r.rt, ev); err != nil {
			r.rt.Logf("Error in handle_event(%s): %v", ev, err)
		}
		return nil
	})
}

// Failed reports whether the runtime behind the runner is halted.
func (r *Runner) Failed() bool {
	return r.rt.Halted()
}

// IsFatal reports whether err came from the supervisor.
func IsFatal(err error) bool {
	return errors.IsKind(err, errors.KindFatal)
}
