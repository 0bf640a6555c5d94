// Package ws is the websocket transport of the chat client.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/chatcube/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultWriteWait   = 10 * time.Second
	defaultReadLimit   = 64 << 10
	defaultSendBuffer  = 32
)

// Dialer opens gorilla websocket connections to one server URL.
type Dialer struct {
	URL         string
	Header      http.Header
	DialTimeout time.Duration
	WriteWait   time.Duration
	ReadLimit   int64
	SendBuffer  int
}

func NewDialer(url string) *Dialer {
	return &Dialer{
		URL:         url,
		DialTimeout: defaultDialTimeout,
		WriteWait:   defaultWriteWait,
		ReadLimit:   defaultReadLimit,
		SendBuffer:  defaultSendBuffer,
	}
}

func (d *Dialer) Open(ctx context.Context, gen uint64, events chan<- core.TransportEvent) core.Transport {
	sendBuffer := d.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	connCtx, cancel := context.WithCancel(ctx)
	c := &Conn{
		gen:    gen,
		events: events,
		parent: ctx,
		send:   make(chan core.Frame, sendBuffer),
		cancel: cancel,
	}
	log.Debug().Str("module", "adapters.ws").Uint64("gen", gen).Str("url", d.URL).Msg("dialing")
	go c.run(connCtx, d)
	return c
}

func (d *Dialer) dial(ctx context.Context) (*websocket.Conn, error) {
	timeout := d.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}
	conn, _, err := dialer.DialContext(dialCtx, d.URL, d.Header)
	if err != nil {
		return nil, err
	}
	readLimit := d.ReadLimit
	if readLimit <= 0 {
		readLimit = defaultReadLimit
	}
	conn.SetReadLimit(readLimit)
	return conn, nil
}

func (d *Dialer) writeWait() time.Duration {
	if d.WriteWait <= 0 {
		return defaultWriteWait
	}
	return d.WriteWait
}
