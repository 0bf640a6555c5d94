package app

import (
	"strings"

	"github.com/dkeye/chatcube/internal/domain"
	"github.com/dkeye/chatcube/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestConnect starts a connection as displayName. Validation happens
// before anything touches the network.
func (c *Client) RequestConnect(displayName string) error {
	name, err := domain.NormalizeDisplayName(displayName)
	if err != nil {
		return err
	}
	return c.do(func() error {
		return c.connect(name, true)
	})
}

func (c *Client) RequestCreateRoom(name string) error {
	roomName, err := domain.NormalizeRoomName(name)
	if err != nil {
		return err
	}
	return c.do(func() error {
		if err := c.requireConnected(); err != nil {
			return err
		}
		return c.send(protocol.RoomCreate{
			RoomName:  roomName,
			CreatedBy: c.session.Identity().DisplayName,
		})
	})
}

func (c *Client) RequestJoinRoom(id domain.RoomID) error {
	if err := domain.ValidateRoomID(id); err != nil {
		return err
	}
	id = domain.RoomID(strings.TrimSpace(string(id)))
	return c.do(func() error {
		if err := c.requireConnected(); err != nil {
			return err
		}
		return c.send(protocol.RoomJoin{
			RoomID:   id,
			Username: c.session.Identity().DisplayName,
		})
	})
}

// RequestLeaveRoom tells the server and drops the local room right away;
// there is no acknowledgement to wait for.
func (c *Client) RequestLeaveRoom() error {
	return c.do(func() error {
		if err := c.requireConnected(); err != nil {
			return err
		}
		id, ok := c.session.CurrentRoom()
		if !ok {
			return ErrNoRoom
		}
		err := c.send(protocol.RoomLeave{
			RoomID:   id,
			Username: c.session.Identity().DisplayName,
		})
		if err != nil {
			return err
		}
		c.session.leaveRoom()
		c.opts.Presenter.RoomLeft(id)
		return nil
	})
}

func (c *Client) RequestSendMessage(text string) error {
	body, err := domain.NormalizeMessageText(text)
	if err != nil {
		return err
	}
	return c.do(func() error {
		if err := c.requireConnected(); err != nil {
			return err
		}
		id, ok := c.session.CurrentRoom()
		if !ok {
			return ErrNoRoom
		}
		if !c.opts.Limiter.Allow() {
			log.Warn().Str("module", "app.intents").Msg("message rate limited")
			return ErrRateLimited
		}
		return c.send(protocol.MessageSend{
			RoomID:    id,
			Username:  c.session.Identity().DisplayName,
			Text:      body,
			MessageID: newMessageID(),
		})
	})
}

func (c *Client) RequestRoomsList() error {
	return c.do(func() error {
		if err := c.requireConnected(); err != nil {
			return err
		}
		return c.send(protocol.RoomsListRequest{})
	})
}

// RequestDisconnect closes the connection without triggering a reconnect.
// Calling it again is a no-op.
func (c *Client) RequestDisconnect() error {
	return c.do(func() error {
		c.disconnect()
		return nil
	})
}

func newMessageID() string {
	return "msg_" + uuid.NewString()
}
