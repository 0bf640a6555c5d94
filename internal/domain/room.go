package domain

import "time"

const (
	MinRoomNameLen = 2
	MaxRoomNameLen = 30
)

type (
	RoomName string
	RoomID   string
)

// RoomSummary is one row of the server's room list.
type RoomSummary struct {
	ID        RoomID    `json:"room_id"`
	Name      RoomName  `json:"room_name"`
	UserCount int       `json:"users_count"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomMembership is the client's view of the room it has joined.
// It only exists between a successful join and the next leave/disconnect.
type RoomMembership struct {
	ID        RoomID        `json:"room_id"`
	Name      RoomName      `json:"room_name"`
	UserCount int           `json:"users_count"`
	Users     []string      `json:"users"`
	History   []ChatMessage `json:"history"`
}

// Clone returns a deep copy so readers outside the event loop never share
// slices with the live session.
func (m RoomMembership) Clone() RoomMembership {
	out := m
	out.Users = append([]string(nil), m.Users...)
	out.History = append([]ChatMessage(nil), m.History...)
	return out
}
