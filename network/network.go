package network

import (
	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
)

// Network is a stateless accessor over the network table.
type Network struct {
	b *Bridge
}

// HTTP returns the HTTP facade.
func (n Network) HTTP() HTTP {
	return HTTP{b: n.b}
}

// Status returns the current link state.
func (n Network) Status() (native.WifiStatus, error) {
	fn := n.b.api.GetStatus
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseRequest, "network.getStatus")
	}
	return fn(), nil
}

// SetEnabled turns the network on or off without waiting for the outcome.
func (n Network) SetEnabled(flag bool) error {
	fn := n.b.api.SetEnabled
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, "network.setEnabled")
	}
	fn(flag, nil)
	return nil
}

// SetEnabledWithCallback turns the network on and reports the outcome to
// callback exactly once. Only one such request may be pending at a time.
func (n Network) SetEnabledWithCallback(callback func(native.NetErr)) error {
	const op = "network.setEnabled"
	if callback == nil {
		return errors.InvalidArgument(errors.PhaseRequest, op, "callback is required")
	}
	b := n.b
	if b.pendingEnable != nil {
		return errors.InvalidArgument(errors.PhaseRequest, op, "a previous enable request is still pending")
	}
	fn := b.api.SetEnabled
	if fn == nil {
		return errors.MissingFunction(errors.PhaseRequest, op)
	}
	b.pendingEnable = callback
	fn(true, b.tramp.enabled)
	return nil
}

// EnablePending reports whether an enable callback is waiting for the host.
func (n Network) EnablePending() bool {
	return n.b.pendingEnable != nil
}

func (b *Bridge) enableTrampoline(err native.NetErr) {
	cb := b.pendingEnable
	b.pendingEnable = nil
	if cb == nil {
		b.log.Debug("enable callback fired with nothing pending", zap.Stringer("err", err))
		return
	}
	cb(err)
}
