package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/chatcube/internal/core"
	"github.com/dkeye/chatcube/internal/domain"
	"github.com/dkeye/chatcube/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (c *Client) onFrame(frame core.Frame) {
	in, err := c.opts.Codec.Decode(frame)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			c.opts.Metrics.envelopesDropped.WithLabelValues("unknown_type").Inc()
			log.Warn().Err(err).Str("module", "app.router").Msg("unknown envelope")
			return
		}
		c.opts.Metrics.envelopesDropped.WithLabelValues("malformed").Inc()
		log.Error().Err(err).Str("module", "app.router").Int("size", len(frame)).Msg("bad envelope")
		return
	}
	c.opts.Metrics.envelopesReceived.WithLabelValues(string(in.Tag())).Inc()
	c.route(in)
}

// route applies one inbound envelope to the session and tells the presenter.
func (c *Client) route(in protocol.Inbound) {
	switch m := in.(type) {
	case protocol.UserConnected:
		c.onUserConnected(m)
	case protocol.RoomCreated:
		c.onRoomCreated(m)
	case protocol.RoomJoined:
		c.onRoomJoined(m)
	case protocol.MessageReceive:
		c.onMessageReceive(m)
	case protocol.RoomsList:
		c.onRoomsList(m)
	case protocol.RoomUsers:
		c.onRoomUsers(m)
	case protocol.UsersOnlineUpdate:
		p := domain.NewPresenceSnapshot(m.Users, *m.TotalOnline)
		c.session.setPresence(p)
		c.opts.Presenter.PresenceUpdated(p)
	case protocol.SystemMessage:
		c.opts.Presenter.SystemNotice(m.Text)
	case protocol.ServerError:
		log.Warn().Str("module", "app.router").Str("message", m.Message).Msg("server error")
		c.opts.Presenter.ServerError(m.Message)
	case protocol.Pong:
		c.session.markPong(c.opts.Now())
	default:
		log.Warn().Str("module", "app.router").Str("type", string(in.Tag())).Msg("no route")
	}
}

func (c *Client) onUserConnected(m protocol.UserConnected) {
	if state := c.session.State(); state != domain.AwaitingIdentity {
		log.Warn().Str("module", "app.router").Str("state", state.String()).Msg("user_connected in unexpected state")
		return
	}
	if !c.session.confirmIdentity(m.UserID) {
		log.Warn().Str("module", "app.router").Msg("user id already assigned")
		return
	}
	c.session.setReconnectAttempts(0)
	c.setState(domain.Connected)
	c.opts.Presenter.Welcome(c.session.Identity())
	if err := c.send(protocol.RoomsListRequest{}); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Msg("rooms list after welcome")
	}
}

func (c *Client) onRoomCreated(m protocol.RoomCreated) {
	if c.requireConnected() != nil {
		log.Warn().Str("module", "app.router").Str("room_id", string(m.RoomID)).Msg("room_created while not connected")
		return
	}
	c.opts.Presenter.RoomCreated(m.RoomID, m.RoomName)
	name := c.session.Identity().DisplayName
	if err := c.send(protocol.RoomJoin{RoomID: m.RoomID, Username: name}); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Msg("join created room")
	}
	if err := c.send(protocol.RoomsListRequest{}); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Msg("rooms list after create")
	}
}

func (c *Client) onRoomJoined(m protocol.RoomJoined) {
	if c.requireConnected() != nil {
		log.Warn().Str("module", "app.router").Str("room_id", string(m.RoomID)).Msg("room_joined while not connected")
		return
	}
	self := c.session.Identity().DisplayName
	history := make([]domain.ChatMessage, 0, len(m.MessageHistory))
	for _, h := range m.MessageHistory {
		history = append(history, domain.NewChatMessage(h.Username, h.Text, h.Timestamp.Time, self))
	}
	room := domain.RoomMembership{
		ID:        m.RoomID,
		Name:      m.RoomName,
		UserCount: m.UsersCount,
		History:   history,
	}
	c.session.joinRoom(room)
	c.opts.Presenter.RoomJoined(room.Clone())
	if len(history) == 0 {
		c.opts.Presenter.SystemNotice(fmt.Sprintf("You joined room %q", roomLabel(room)))
	}
}

// onMessageReceive drops messages addressed to a room other than the
// current one. Messages without a room id belong to the current room.
func (c *Client) onMessageReceive(m protocol.MessageReceive) {
	current, inRoom := c.session.CurrentRoom()
	if m.RoomID != "" && m.RoomID != current {
		c.opts.Metrics.envelopesDropped.WithLabelValues("other_room").Inc()
		log.Debug().Str("module", "app.router").Str("room_id", string(m.RoomID)).Msg("message for another room")
		return
	}
	sentAt := m.Timestamp.Time
	if sentAt.IsZero() {
		sentAt = c.opts.Now()
	}
	msg := domain.NewChatMessage(m.Username, m.Text, sentAt, c.session.Identity().DisplayName)
	if inRoom {
		c.session.appendMessage(msg)
	}
	c.opts.Presenter.MessageReceived(msg)
}

func (c *Client) onRoomsList(m protocol.RoomsList) {
	rooms := make([]domain.RoomSummary, 0, len(m.Rooms))
	for _, r := range m.Rooms {
		rooms = append(rooms, domain.RoomSummary{
			ID:        r.RoomID,
			Name:      r.RoomName,
			UserCount: r.UsersCount,
			CreatedAt: r.CreatedAt.Time,
		})
	}
	c.session.setRooms(rooms)
	c.opts.Presenter.RoomsListed(append([]domain.RoomSummary(nil), rooms...))
}

func (c *Client) onRoomUsers(m protocol.RoomUsers) {
	users := make([]string, 0, len(m.Users))
	for _, u := range m.Users {
		users = append(users, u.Username)
	}
	c.session.setRoomUsers(users)
	c.opts.Presenter.RoomUsers(users)
}

func roomLabel(r domain.RoomMembership) string {
	if r.Name != "" {
		return string(r.Name)
	}
	return string(r.ID)
}
