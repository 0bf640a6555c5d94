package core

import (
	"context"
	"errors"
)

// Frame is one raw websocket text payload.
type Frame []byte

var (
	ErrBackpressure = errors.New("backpressure")
	ErrNotOpen      = errors.New("transport not open")
)

type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventError
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// TransportEvent is what a transport reports to its owner. Gen identifies
// the connection attempt the event belongs to so stale events can be dropped.
type TransportEvent struct {
	Gen  uint64
	Kind EventKind
	Data Frame
	Err  error
}

// Transport abstracts one messaging connection to the server.
// Owned by the connection state machine; it must Close() it.
// Close is idempotent.
type Transport interface {
	TrySend(Frame) error
	Close()
}

// Dialer opens transports. Open returns immediately; the outcome is reported
// on events: Open (or Error) then, eventually, exactly one Close.
// Events are delivered until ctx is done.
type Dialer interface {
	Open(ctx context.Context, gen uint64, events chan<- TransportEvent) Transport
}
