package runtime

import (
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/network"
	"github.com/wippyai/pdbridge/sound"
)

// Runtime is the process context: the API table the firmware handed over at
// startup and the facades built from it. It is created once per table and
// never reinitialized.
type Runtime struct {
	api    *native.API
	log    *zap.Logger
	bridge *network.Bridge
	sound  *sound.Sound

	fatalMu   sync.Mutex
	fatalHook func(msg string)
	fatalMsg  string
	fatalOnce sync.Once
}

// New validates api and builds the runtime. A table can back only one
// runtime; a second New on the same table fails.
func New(api *native.API, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	log := cfg.logger
	if log == nil {
		log = Logger()
	}

	if api == nil {
		return nil, errors.MissingTable("api")
	}
	if api.System == nil {
		return nil, errors.MissingTable("system")
	}
	if api.Sound == nil {
		return nil, errors.MissingTable("sound")
	}
	bridge, err := network.NewBridge(api.Network)
	if err != nil {
		return nil, err
	}
	snd, err := sound.New(api.Sound)
	if err != nil {
		return nil, err
	}
	if !api.Claim() {
		return nil, errors.InvalidState(errors.PhaseInit, "runtime.new", "api table is already bound to a runtime")
	}

	log.Debug("runtime initialized")
	return &Runtime{
		api:       api,
		log:       log,
		bridge:    bridge.WithLogger(log.Named("network")),
		sound:     snd.WithLogger(log.Named("sound")),
		fatalHook: cfg.fatalHook,
	}, nil
}

// API returns the root table. Collaborator tables such as graphics are
// reachable only through it.
func (r *Runtime) API() *native.API { return r.api }

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *zap.Logger { return r.log }

// Bridge returns the network bridge state.
func (r *Runtime) Bridge() *network.Bridge { return r.bridge }

// Network returns the network facade.
func (r *Runtime) Network() network.Network { return r.bridge.Network() }

// HTTP returns the HTTP facade.
func (r *Runtime) HTTP() network.HTTP { return r.bridge.HTTP() }

// Sound returns the sound facade.
func (r *Runtime) Sound() *sound.Sound { return r.sound }

// Log writes msg to the host console.
func (r *Runtime) Log(msg string) {
	if fn := r.api.System.LogToConsole; fn != nil {
		fn(msg)
		return
	}
	r.log.Info(msg)
}

// Logf formats and writes to the host console.
func (r *Runtime) Logf(format string, args ...any) {
	r.Log(fmt.Sprintf(format, args...))
}

// OnFatal registers the fatal hook if none was configured. It fails once a
// hook is set.
func (r *Runtime) OnFatal(fn func(msg string)) error {
	r.fatalMu.Lock()
	defer r.fatalMu.Unlock()
	if r.fatalHook != nil {
		return errors.InvalidState(errors.PhaseFatal, "runtime.onFatal", "fatal hook already registered")
	}
	r.fatalHook = fn
	return nil
}

// Halted reports whether the supervisor has caught a fatal condition. A
// halted runtime runs nothing further under Supervise.
func (r *Runtime) Halted() bool {
	r.fatalMu.Lock()
	defer r.fatalMu.Unlock()
	return r.fatalMsg != ""
}

// Supervise runs fn and converts a panic into a fatal error. The first
// fatal condition calls the fatal hook and reports the message through the
// host's error channel; after that every call returns the same fatal error
// without running fn.
func (r *Runtime) Supervise(fn func() error) (err error) {
	r.fatalMu.Lock()
	msg := r.fatalMsg
	r.fatalMu.Unlock()
	if msg != "" {
		return errors.Fatal(msg, nil)
	}

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		err = r.fatal(rec)
	}()
	return fn()
}

func (r *Runtime) fatal(rec any) error {
	msg := fmt.Sprintf("panic: %v", rec)
	cause, _ := rec.(error)

	r.fatalOnce.Do(func() {
		r.fatalMu.Lock()
		r.fatalMsg = msg
		hook := r.fatalHook
		r.fatalMu.Unlock()

		r.log.Error("fatal condition", zap.String("msg", msg), zap.ByteString("stack", debug.Stack()))
		if hook != nil {
			hook(msg)
		}
		if fn := r.api.System.Error; fn != nil {
			fn(msg)
		}
	})
	return errors.Fatal(msg, cause)
}
