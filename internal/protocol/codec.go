package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type decodeFunc func(json.RawMessage) (Inbound, error)

var inboundDecoders = map[Tag]decodeFunc{
	TagUserConnected:     decodeInto[UserConnected],
	TagRoomCreated:       decodeInto[RoomCreated],
	TagRoomJoined:        decodeInto[RoomJoined],
	TagMessageReceive:    decodeInto[MessageReceive],
	TagRoomsList:         decodeInto[RoomsList],
	TagRoomUsers:         decodeInto[RoomUsers],
	TagUsersOnlineUpdate: decodeInto[UsersOnlineUpdate],
	TagSystemMessage:     decodeInto[SystemMessage],
	TagError:             decodeInto[ServerError],
	TagPong:              decodeInto[Pong],
}

// Codec stamps outbound envelopes with its own clock and turns inbound
// frames into typed messages.
type Codec struct {
	now func() time.Time
}

func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

// WithClock replaces the clock used for outbound timestamps.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	return &Codec{now: now}
}

func (c *Codec) Encode(out Outbound) ([]byte, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", out.Tag(), err)
	}
	now := time.Now
	if c != nil && c.now != nil {
		now = c.now
	}
	env := Envelope{
		Type:      out.Tag(),
		Data:      data,
		Timestamp: now().UTC().Format(ISOLayout),
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", out.Tag(), err)
	}
	return b, nil
}

// MustEncode panics if out cannot be serialized. Every Outbound in this
// package is plain data, so a failure is a programming error.
func (c *Codec) MustEncode(out Outbound) []byte {
	b, err := c.Encode(out)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode never panics. Any problem is reported as *ProtocolError and the
// frame should be dropped by the caller.
func (c *Codec) Decode(frame []byte) (Inbound, error) {
	var env struct {
		Type Tag             `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, &ProtocolError{Err: fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)}
	}
	if env.Type == "" {
		return nil, &ProtocolError{Err: fmt.Errorf("%w: missing type", ErrMalformedEnvelope)}
	}
	dec, ok := inboundDecoders[env.Type]
	if !ok {
		return nil, &ProtocolError{Tag: env.Type, Err: ErrUnknownType}
	}

	payload := env.Data
	if len(bytes.TrimSpace(payload)) == 0 {
		// flat envelope: payload fields sit next to "type"
		payload = frame
	}
	in, err := dec(payload)
	if err != nil {
		return nil, &ProtocolError{Tag: env.Type, Err: fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)}
	}
	return in, nil
}

func decodeInto[T Inbound](raw json.RawMessage) (Inbound, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if err := validate.Struct(v); err != nil {
		return nil, err
	}
	return v, nil
}
