package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/chatcube/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Conn is one connection attempt. It reports Open or Error and then exactly
// one Close on its events channel.
type Conn struct {
	gen    uint64
	events chan<- core.TransportEvent
	parent context.Context
	send   chan core.Frame
	cancel context.CancelFunc

	mu     sync.RWMutex
	conn   *websocket.Conn
	open   bool
	closed bool

	closeOnce sync.Once
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || !c.open {
		return core.ErrNotOpen
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close is safe to call at any time, including while dialing.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		ws := c.conn
		c.mu.Unlock()

		if ws != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}
		c.cancel()
		if ws != nil {
			_ = ws.Close()
		}
	})
}

func (c *Conn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Conn) run(ctx context.Context, d *Dialer) {
	defer c.emit(core.TransportEvent{Kind: core.EventClose})

	ws, err := d.dial(ctx)
	if err != nil {
		if !c.isClosed() {
			log.Warn().Err(err).Str("module", "adapters.ws").Uint64("gen", c.gen).Msg("dial failed")
			c.emit(core.TransportEvent{Kind: core.EventError, Err: fmt.Errorf("dial %s: %w", d.URL, err)})
		}
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ws.Close()
		return
	}
	c.conn = ws
	c.open = true
	c.mu.Unlock()

	log.Info().Str("module", "adapters.ws").Uint64("gen", c.gen).Str("url", d.URL).Msg("connected")
	c.emit(core.TransportEvent{Kind: core.EventOpen})

	writeDone := make(chan struct{})
	go c.writePump(ctx, ws, d.writeWait(), writeDone)
	c.readPump(ws)

	c.cancel()
	_ = ws.Close()
	<-writeDone

	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

func (c *Conn) readPump(ws *websocket.Conn) {
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			switch {
			case c.isClosed():
				log.Debug().Str("module", "adapters.ws").Uint64("gen", c.gen).Msg("readPump closed locally")
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				log.Info().Str("module", "adapters.ws").Uint64("gen", c.gen).Msg("server closed connection")
			default:
				log.Error().Err(err).Str("module", "adapters.ws").Uint64("gen", c.gen).Msg("readPump read error")
				c.emit(core.TransportEvent{Kind: core.EventError, Err: err})
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		c.emit(core.TransportEvent{Kind: core.EventMessage, Data: data})
	}
}

func (c *Conn) writePump(ctx context.Context, ws *websocket.Conn, wait time.Duration, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			if err := ws.SetWriteDeadline(time.Now().Add(wait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				_ = ws.Close()
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				if !c.isClosed() && !errors.Is(err, websocket.ErrCloseSent) {
					log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				}
				// unblocks readPump, which reports the close
				_ = ws.Close()
				return
			}
		}
	}
}

func (c *Conn) emit(ev core.TransportEvent) {
	ev.Gen = c.gen
	select {
	case c.events <- ev:
	case <-c.parent.Done():
	}
}
