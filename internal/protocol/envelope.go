// Package protocol is the ChatCube wire format: JSON envelopes of the form
// {"type": <tag>, "data": {...}, "timestamp": <RFC 3339>}.
package protocol

import "encoding/json"

type Tag string

// Outbound tags.
const (
	TagUserConnect Tag = "user_connect"
	TagRoomCreate  Tag = "room_create"
	TagRoomJoin    Tag = "room_join"
	TagRoomLeave   Tag = "room_leave"
	TagMessageSend Tag = "message_send"
	TagPing        Tag = "ping"
)

// TagRoomsList is used in both directions.
const TagRoomsList Tag = "rooms_list"

// Inbound tags.
const (
	TagUserConnected     Tag = "user_connected"
	TagRoomCreated       Tag = "room_created"
	TagRoomJoined        Tag = "room_joined"
	TagMessageReceive    Tag = "message_receive"
	TagRoomUsers         Tag = "room_users"
	TagUsersOnlineUpdate Tag = "users_online_update"
	TagSystemMessage     Tag = "system_message"
	TagError             Tag = "error"
	TagPong              Tag = "pong"
)

// Envelope is the top level structure of every frame.
type Envelope struct {
	Type      Tag             `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}
