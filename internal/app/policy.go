package app

import "github.com/dkeye/chatcube/internal/protocol"

type BackpressureAction int

const (
	// DropFrame fails the send and keeps the connection.
	DropFrame BackpressureAction = iota
	// ResetConnection closes the transport; the close branch reconnects.
	ResetConnection
)

// Policy decides what to do when the transport's send queue is full.
type Policy interface {
	OnBackPressure(tag protocol.Tag) BackpressureAction
}

type SimplePolicy struct{}

// OnBackPressure resets only when the identify envelope cannot go out,
// since nothing else can progress without it.
func (SimplePolicy) OnBackPressure(tag protocol.Tag) BackpressureAction {
	if tag == protocol.TagUserConnect {
		return ResetConnection
	}
	return DropFrame
}
