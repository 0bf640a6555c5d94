package protocol

import "github.com/dkeye/chatcube/internal/domain"

// Inbound is the closed set of server messages. Only types in this package
// implement it.
type Inbound interface {
	Tag() Tag
	inbound()
}

type UserConnected struct {
	UserID domain.UserID `json:"user_id" validate:"required"`
}

type RoomCreated struct {
	RoomID   domain.RoomID   `json:"room_id" validate:"required"`
	RoomName domain.RoomName `json:"room_name"`
}

type HistoryEntry struct {
	Username  string    `json:"username" validate:"required"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

type RoomJoined struct {
	RoomID         domain.RoomID   `json:"room_id" validate:"required"`
	RoomName       domain.RoomName `json:"room_name"`
	UsersCount     int             `json:"users_count" validate:"gte=0"`
	MessageHistory []HistoryEntry  `json:"message_history" validate:"dive"`
}

// MessageReceive may carry room_id and message_id; the reference server
// sends both even though only username, text and timestamp are required.
type MessageReceive struct {
	RoomID    domain.RoomID `json:"room_id,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Username  string        `json:"username" validate:"required"`
	Text      string        `json:"text"`
	Timestamp Timestamp     `json:"timestamp"`
}

type RoomInfo struct {
	RoomID     domain.RoomID   `json:"room_id" validate:"required"`
	RoomName   domain.RoomName `json:"room_name"`
	UsersCount int             `json:"users_count" validate:"gte=0"`
	CreatedAt  Timestamp       `json:"created_at"`
}

type RoomsList struct {
	Rooms []RoomInfo `json:"rooms" validate:"required,dive"`
}

type RoomUser struct {
	Username string `json:"username" validate:"required"`
}

type RoomUsers struct {
	Users []RoomUser `json:"users" validate:"required,dive"`
}

type UsersOnlineUpdate struct {
	Users       []string `json:"users" validate:"required,dive,required"`
	TotalOnline *int     `json:"total_online" validate:"required,gte=0"`
}

type SystemMessage struct {
	Text string `json:"text" validate:"required"`
}

type ServerError struct {
	Message string `json:"message" validate:"required"`
}

type Pong struct{}

func (UserConnected) Tag() Tag     { return TagUserConnected }
func (RoomCreated) Tag() Tag       { return TagRoomCreated }
func (RoomJoined) Tag() Tag        { return TagRoomJoined }
func (MessageReceive) Tag() Tag    { return TagMessageReceive }
func (RoomsList) Tag() Tag         { return TagRoomsList }
func (RoomUsers) Tag() Tag         { return TagRoomUsers }
func (UsersOnlineUpdate) Tag() Tag { return TagUsersOnlineUpdate }
func (SystemMessage) Tag() Tag     { return TagSystemMessage }
func (ServerError) Tag() Tag       { return TagError }
func (Pong) Tag() Tag              { return TagPong }

func (UserConnected) inbound()     {}
func (RoomCreated) inbound()       {}
func (RoomJoined) inbound()        {}
func (MessageReceive) inbound()    {}
func (RoomsList) inbound()         {}
func (RoomUsers) inbound()         {}
func (UsersOnlineUpdate) inbound() {}
func (SystemMessage) inbound()     {}
func (ServerError) inbound()       {}
func (Pong) inbound()              {}
