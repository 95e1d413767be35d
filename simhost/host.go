package simhost

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/native"
)

// ErrStop ends Run without an error when returned from a frame.
var ErrStop = stderrors.New("simhost: stop")

// Host is a desktop stand-in for the device firmware. HTTP requests go out
// through a real http.Client on worker goroutines; their results are queued
// and delivered by Run or Pump on the caller's goroutine, so every callback
// runs on the same goroutine as the application.
type Host struct {
	client *http.Client
	log    *zap.Logger
	fps    int
	start  time.Time

	status  native.WifiStatus
	enabled bool
	access  native.AccessReply
	consent bool

	api *native.API

	// Connection state is touched only from the application goroutine.
	conns map[native.Conn]*conn
	next  native.Conn

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	work  sync.WaitGroup

	Console []string
	Errors  []string
}

// New creates a host with a connected network, an allowing access policy and
// a 30 fps frame rate.
func New() *Host {
	h := &Host{
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
		fps:     30,
		start:   time.Now(),
		status:  native.WifiConnected,
		enabled: true,
		access:  native.AccessAllow,
		consent: true,
		conns:   make(map[native.Conn]*conn),
		next:    0x100,
		wake:    make(chan struct{}, 1),
	}
	h.api = &native.API{
		System: &native.System{
			LogToConsole: func(msg string) {
				h.Console = append(h.Console, msg)
				h.log.Info(msg)
			},
			Error: func(msg string) {
				h.Errors = append(h.Errors, msg)
				h.log.Error(msg)
			},
		},
		Network: &native.Network{
			GetStatus:  h.getStatus,
			SetEnabled: h.setEnabled,
			HTTP:       h.httpTable(),
		},
		Sound: h.soundTable(),
	}
	return h
}

// WithClient sets the HTTP client used for requests.
func (h *Host) WithClient(c *http.Client) *Host {
	if c != nil {
		h.client = c
	}
	return h
}

// WithLogger sets the logger for host diagnostics and console output.
func (h *Host) WithLogger(l *zap.Logger) *Host {
	if l != nil {
		h.log = l
	}
	return h
}

// WithFrameRate sets how many frames per second Run drives.
func (h *Host) WithFrameRate(fps int) *Host {
	if fps > 0 {
		h.fps = fps
	}
	return h
}

// WithStatus sets the reported link state.
func (h *Host) WithStatus(s native.WifiStatus) *Host {
	h.status = s
	return h
}

// WithAccessReply sets the answer to access requests. With AccessAsk the
// decision is delivered later as consent.
func (h *Host) WithAccessReply(reply native.AccessReply, consent bool) *Host {
	h.access = reply
	h.consent = consent
	return h
}

// API returns the root table to hand to the runtime.
func (h *Host) API() *native.API { return h.api }

// Run drives frame at the configured frame rate until ctx is done or frame
// returns an error. Queued host events are delivered before each frame.
// A frame returning ErrStop ends Run with a nil error.
func (h *Host) Run(ctx context.Context, frame func() error) error {
	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		h.Pump()
		if err := frame(); err != nil {
			if stderrors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// Pump delivers every queued event and returns how many ran.
func (h *Host) Pump() int {
	h.mu.Lock()
	queue := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, ev := range queue {
		ev()
	}
	return len(queue)
}

// Wait blocks until an event is queued or ctx is done.
func (h *Host) Wait(ctx context.Context) error {
	h.mu.Lock()
	n := len(h.queue)
	h.mu.Unlock()
	if n > 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.wake:
		return nil
	}
}

// Close waits for in-flight requests to finish.
func (h *Host) Close() {
	for _, c := range h.conns {
		c.cancelRequest()
	}
	h.work.Wait()
}

func (h *Host) post(ev func()) {
	h.mu.Lock()
	h.queue = append(h.queue, ev)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Host) getStatus() native.WifiStatus {
	if !h.enabled {
		return native.WifiNotConnected
	}
	return h.status
}

func (h *Host) setEnabled(flag bool, cb native.EnableCallback) {
	h.enabled = flag
	h.log.Debug("network enabled", zap.Bool("flag", flag))
	if cb == nil {
		return
	}
	result := native.NetOK
	if flag && h.status == native.WifiNotAvailable {
		result = native.NetNoDevice
	}
	h.post(func() { cb(result) })
}
