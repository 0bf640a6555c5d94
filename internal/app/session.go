package app

import (
	"sync"
	"time"

	"github.com/dkeye/chatcube/internal/domain"
	"github.com/rs/zerolog/log"
)

// Session is the client's local view of the server. The Client's event loop
// is its only writer; anything else reads through Snapshot.
type Session struct {
	mu       sync.RWMutex
	identity domain.Identity
	state    domain.ConnectionState
	room     *domain.RoomMembership
	rooms    []domain.RoomSummary
	presence domain.PresenceSnapshot
	attempts int
	lastPong time.Time
}

// SessionSnapshot is a detached copy of Session.
type SessionSnapshot struct {
	Identity          domain.Identity         `json:"identity"`
	State             domain.ConnectionState  `json:"-"`
	CurrentRoom       domain.RoomID           `json:"current_room,omitempty"`
	Room              *domain.RoomMembership  `json:"room,omitempty"`
	Rooms             []domain.RoomSummary    `json:"rooms"`
	Presence          domain.PresenceSnapshot `json:"presence"`
	ReconnectAttempts int                     `json:"reconnect_attempts"`
	LastPong          time.Time               `json:"last_pong,omitempty"`
}

func NewSession() *Session {
	return &Session{state: domain.Disconnected}
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := SessionSnapshot{
		Identity:          s.identity,
		State:             s.state,
		Rooms:             append([]domain.RoomSummary(nil), s.rooms...),
		Presence:          domain.PresenceSnapshot{OnlineUsers: append([]string(nil), s.presence.OnlineUsers...), TotalOnline: s.presence.TotalOnline},
		ReconnectAttempts: s.attempts,
		LastPong:          s.lastPong,
	}
	if s.room != nil {
		room := s.room.Clone()
		snap.Room = &room
		snap.CurrentRoom = room.ID
	}
	return snap
}

func (s *Session) State() domain.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) CurrentRoom() (domain.RoomID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return "", false
	}
	return s.room.ID, true
}

func (s *Session) setState(state domain.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// beginIdentity starts a new identification round. The user id is scoped to
// one server connection, so it is cleared here.
func (s *Session) beginIdentity(displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = domain.Identity{DisplayName: displayName}
	log.Debug().Str("module", "app.session").Str("username", displayName).Msg("identity pending")
}

// confirmIdentity assigns the user id once per connection.
func (s *Session) confirmIdentity(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity.UserID != "" {
		return false
	}
	s.identity.UserID = id
	log.Info().Str("module", "app.session").Str("username", s.identity.DisplayName).Str("user_id", string(id)).Msg("identity confirmed")
	return true
}

func (s *Session) dropConfirmation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity.UserID = ""
}

func (s *Session) joinRoom(m domain.RoomMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := m.Clone()
	s.room = &room
	log.Info().Str("module", "app.session").Str("room_id", string(m.ID)).Msg("joined room")
}

// leaveRoom clears the current room and its membership together.
func (s *Session) leaveRoom() (domain.RoomID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return "", false
	}
	id := s.room.ID
	s.room = nil
	log.Info().Str("module", "app.session").Str("room_id", string(id)).Msg("left room")
	return id, true
}

func (s *Session) appendMessage(msg domain.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return false
	}
	s.room.History = append(s.room.History, msg)
	return true
}

func (s *Session) setRoomUsers(users []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return false
	}
	s.room.Users = append([]string(nil), users...)
	return true
}

func (s *Session) setRooms(rooms []domain.RoomSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = rooms
}

func (s *Session) setPresence(p domain.PresenceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = p
}

func (s *Session) markPong(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPong = at
}

func (s *Session) reconnectAttempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}

func (s *Session) setReconnectAttempts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = n
}
