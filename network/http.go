package network

import (
	"math"

	"github.com/wippyai/pdbridge/errors"
)

// HTTP is a stateless accessor over the HTTP table.
type HTTP struct {
	b *Bridge
}

// NewConnection opens a connection to server:port. The host returns null when
// the application lacks permission for server, which is reported as a
// protocol violation.
func (h HTTP) NewConnection(server string, port int, useSSL bool) (*Connection, error) {
	const op = "http.newConnection"
	b := h.b

	if server == "" {
		return nil, errors.InvalidArgument(errors.PhaseRequest, op, "server is required")
	}
	serverC, err := encode(op, "server", server)
	if err != nil {
		return nil, err
	}
	p, err := checkPort(op, port)
	if err != nil {
		return nil, err
	}
	fn := b.http.NewConnection
	if fn == nil {
		return nil, errors.MissingFunction(errors.PhaseRequest, op)
	}

	raw := fn(serverC, p, useSSL)
	if raw == 0 {
		return nil, errors.ProtocolViolation(errors.PhaseRequest, op, "returned null (permission denied?)")
	}
	return newConnection(b, raw)
}

func checkPort(op string, port int) (int32, error) {
	if port < 0 || port > math.MaxUint16 {
		return 0, errors.Overflow(errors.PhaseRequest, op, port, "port")
	}
	return int32(port), nil
}
