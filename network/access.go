package network

import (
	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/resource"
)

// accessRequest is a permission callback owned by the host until it answers.
type accessRequest struct {
	callback func(allowed bool)
}

// RequestAccess asks the user for permission to reach server. An empty
// server or purpose is passed as null, and so is a nil callback.
//
// The host either answers synchronously, returning AccessAllow or AccessDeny,
// or returns AccessAsk and calls callback later, exactly once. callback is
// never invoked when the answer is synchronous.
func (h HTTP) RequestAccess(server string, port int, useSSL bool, purpose string, callback func(allowed bool)) (native.AccessReply, error) {
	const op = "http.requestAccess"
	b := h.b

	serverC, err := optional(op, "server", server)
	if err != nil {
		return 0, err
	}
	purposeC, err := optional(op, "purpose", purpose)
	if err != nil {
		return 0, err
	}
	p, err := checkPort(op, port)
	if err != nil {
		return 0, err
	}
	fn := b.http.RequestAccess
	if fn == nil {
		return 0, errors.MissingFunction(errors.PhaseAccess, op)
	}

	var (
		token resource.Token
		tramp native.AccessRequestCallback
	)
	if callback != nil {
		token = b.access.Insert(&accessRequest{callback: callback})
		tramp = b.tramp.access
	}
	reply := fn(serverC, p, useSSL, purposeC, tramp, native.Userdata(token))
	if token != 0 && reply != native.AccessAsk {
		// The host will not call back; the state is ours again.
		b.access.Remove(token)
	}

	b.log.Debug("http access requested",
		zap.String("server", server),
		zap.Int("port", port),
		zap.Stringer("reply", reply))
	return reply, nil
}

func optional(op, field, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return encode(op, field, s)
}

func (b *Bridge) accessTrampoline(allowed bool, ud native.Userdata) {
	req, ok := b.access.Remove(resource.Token(ud))
	if !ok {
		b.log.Debug("access callback with stale token", zap.Uint64("token", uint64(ud)))
		return
	}
	req.callback(allowed)
}
