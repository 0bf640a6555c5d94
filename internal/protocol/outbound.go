package protocol

import "github.com/dkeye/chatcube/internal/domain"

// Outbound is an intent the client sends to the server.
type Outbound interface {
	Tag() Tag
}

type UserConnect struct {
	Username string `json:"username"`
}

type RoomCreate struct {
	RoomName  domain.RoomName `json:"room_name"`
	CreatedBy string          `json:"created_by"`
}

type RoomJoin struct {
	RoomID   domain.RoomID `json:"room_id"`
	Username string        `json:"username"`
}

type RoomLeave struct {
	RoomID   domain.RoomID `json:"room_id"`
	Username string        `json:"username"`
}

type MessageSend struct {
	RoomID    domain.RoomID `json:"room_id"`
	Username  string        `json:"username"`
	Text      string        `json:"text"`
	MessageID string        `json:"message_id"`
}

type RoomsListRequest struct{}

type Ping struct{}

func (UserConnect) Tag() Tag      { return TagUserConnect }
func (RoomCreate) Tag() Tag       { return TagRoomCreate }
func (RoomJoin) Tag() Tag         { return TagRoomJoin }
func (RoomLeave) Tag() Tag        { return TagRoomLeave }
func (MessageSend) Tag() Tag      { return TagMessageSend }
func (RoomsListRequest) Tag() Tag { return TagRoomsList }
func (Ping) Tag() Tag             { return TagPing }
