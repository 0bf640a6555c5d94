package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrUnknownType       = errors.New("unknown envelope type")
)

// ProtocolError describes an inbound frame that was discarded.
type ProtocolError struct {
	Tag Tag
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("protocol: %v", e.Err)
	}
	return fmt.Sprintf("protocol: %s: %v", e.Tag, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
