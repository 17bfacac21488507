// Package channel abstracts the already-connected realtime duplex stream the
// sync engine runs over. Connection establishment, retry, and TLS policy
// belong to whoever dialed the stream.
package channel

import "context"

// Handlers receives inbound frames and lifecycle signals. Exactly one handler
// set is active per channel; attaching replaces the previous one.
type Handlers struct {
	OnMessage func(data []byte)
	OnOpen    func()
	OnClose   func()
	OnError   func(err error)
}

// Channel is a connected duplex message stream.
type Channel interface {
	Send(ctx context.Context, data []byte) error
	Attach(h Handlers)
	Close() error
}
