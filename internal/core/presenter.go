package core

import (
	"time"

	"github.com/dkeye/chatcube/internal/domain"
)

// Presenter is the display surface. Every call carries already validated
// data. Calls come from the client's event loop and must not block on it.
type Presenter interface {
	StateChanged(state domain.ConnectionState)
	Welcome(id domain.Identity)
	RoomCreated(id domain.RoomID, name domain.RoomName)
	RoomJoined(room domain.RoomMembership)
	RoomLeft(id domain.RoomID)
	MessageReceived(msg domain.ChatMessage)
	RoomsListed(rooms []domain.RoomSummary)
	RoomUsers(users []string)
	PresenceUpdated(p domain.PresenceSnapshot)
	SystemNotice(text string)
	ServerError(message string)
	TransportError(err error)
	ReconnectScheduled(attempt, max int, delay time.Duration)
	ReconnectExhausted(err error)
}

// NopPresenter discards everything. Embed it to implement a subset.
type NopPresenter struct{}

func (NopPresenter) StateChanged(domain.ConnectionState)        {}
func (NopPresenter) Welcome(domain.Identity)                    {}
func (NopPresenter) RoomCreated(domain.RoomID, domain.RoomName) {}
func (NopPresenter) RoomJoined(domain.RoomMembership)           {}
func (NopPresenter) RoomLeft(domain.RoomID)                     {}
func (NopPresenter) MessageReceived(domain.ChatMessage)         {}
func (NopPresenter) RoomsListed([]domain.RoomSummary)           {}
func (NopPresenter) RoomUsers([]string)                         {}
func (NopPresenter) PresenceUpdated(domain.PresenceSnapshot)    {}
func (NopPresenter) SystemNotice(string)                        {}
func (NopPresenter) ServerError(string)                         {}
func (NopPresenter) TransportError(error)                       {}
func (NopPresenter) ReconnectScheduled(int, int, time.Duration) {}
func (NopPresenter) ReconnectExhausted(error)                   {}
