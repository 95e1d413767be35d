package network

import (
	"weak"

	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/errors"
	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/resource"
)

// Bridge holds the state shared by every facade derived from one network
// table: the token tables the host reaches managed state through and the
// fixed set of trampolines registered with the host.
//
// A Bridge is built once per API table and is not safe for concurrent use.
// The host only re-enters it synchronously from inside native calls.
type Bridge struct {
	api   *native.Network
	http  *native.HTTP
	log   *zap.Logger
	conns *resource.TypedTable[weak.Pointer[connection]]
	// access holds one-shot permission callbacks while the host owns them.
	access *resource.TypedTable[*accessRequest]

	tramp trampolines

	pendingEnable func(native.NetErr)
}

// NewBridge validates the network table and builds the bridge state.
func NewBridge(api *native.Network) (*Bridge, error) {
	if api == nil {
		return nil, errors.MissingTable("network")
	}
	if api.HTTP == nil {
		return nil, errors.MissingTable("network.http")
	}
	b := &Bridge{
		api:    api,
		http:   api.HTTP,
		log:    Logger(),
		conns:  resource.NewTyped[weak.Pointer[connection]](resource.KindConnection),
		access: resource.NewTyped[*accessRequest](resource.KindAccessRequest),
	}
	b.tramp = newTrampolines(b)
	return b, nil
}

// WithLogger sets the logger used for bridge diagnostics.
func (b *Bridge) WithLogger(l *zap.Logger) *Bridge {
	if l != nil {
		b.log = l
	}
	return b
}

// Network returns the network facade.
func (b *Bridge) Network() Network {
	return Network{b: b}
}

// HTTP returns the HTTP facade.
func (b *Bridge) HTTP() HTTP {
	return HTTP{b: b}
}

// LiveConnections returns the number of connection tokens the host may still
// present.
func (b *Bridge) LiveConnections() int {
	return b.conns.Len()
}

// PendingAccessRequests returns the number of access callbacks awaiting a
// deferred decision.
func (b *Bridge) PendingAccessRequests() int {
	return b.access.Len()
}

// Subscribe observes token creation and reclamation for both tables.
func (b *Bridge) Subscribe(o resource.Observer) {
	b.conns.Subscribe(o)
	b.access.Subscribe(o)
}
