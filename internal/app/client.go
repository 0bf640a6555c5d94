// Package app holds the chat client's connection state machine, the inbound
// message router and the session state they share.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dkeye/chatcube/internal/core"
	"github.com/dkeye/chatcube/internal/domain"
	"github.com/dkeye/chatcube/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultPingPeriod           = 30 * time.Second

	eventBuffer = 64
)

var (
	ErrNotConnected       = errors.New("not connected to server")
	ErrAlreadyConnected   = errors.New("already connected")
	ErrNoRoom             = errors.New("no room joined")
	ErrRateLimited        = errors.New("sending messages too fast")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	ErrClientStopped      = errors.New("client stopped")
	ErrAlreadyRunning     = errors.New("client already running")
)

type Options struct {
	Dialer    core.Dialer
	Presenter core.Presenter
	Codec     *protocol.Codec
	Metrics   *Metrics
	Policy    Policy
	// Limiter throttles RequestSendMessage. Nil means unlimited.
	Limiter *RateLimiter

	// Zero values fall back to the Default* constants.
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	PingPeriod           time.Duration

	Now func() time.Time
}

type command struct {
	run   func() error
	reply chan error
}

// Client is the connection state machine. All session mutation happens on
// the goroutine running Run; the Request* methods hand work to it.
type Client struct {
	opts    Options
	session *Session

	events chan core.TransportEvent
	cmds   chan command
	done   chan struct{}

	running atomic.Bool
	ctx     context.Context

	// owned by the event loop
	transport      core.Transport
	gen            uint64
	reconnectTimer *time.Timer
	reconnectC     <-chan time.Time
	keepalive      keepalive
}

func NewClient(opts Options) *Client {
	if opts.Dialer == nil {
		panic("app: Options.Dialer is required")
	}
	if opts.Presenter == nil {
		opts.Presenter = core.NopPresenter{}
	}
	if opts.Codec == nil {
		opts.Codec = protocol.NewCodec()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Policy == nil {
		opts.Policy = SimplePolicy{}
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = DefaultPingPeriod
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		opts:      opts,
		session:   NewSession(),
		events:    make(chan core.TransportEvent, eventBuffer),
		cmds:      make(chan command),
		done:      make(chan struct{}),
		ctx:       context.Background(),
		keepalive: keepalive{period: opts.PingPeriod},
	}
}

// Session exposes read access to the client's state.
func (c *Client) Session() *Session {
	return c.session
}

// Run is the client's single event loop. It returns when ctx is done, after
// closing any open transport.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	c.ctx = ctx
	defer c.stop()

	log.Info().Str("module", "app.client").Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.client").Msg("event loop stopping")
			return nil
		case ev := <-c.events:
			c.handleEvent(ev)
		case cmd := <-c.cmds:
			cmd.reply <- cmd.run()
		case <-c.reconnectC:
			c.onReconnectTimer()
		case <-c.keepalive.C():
			c.onKeepalive()
		}
	}
}

func (c *Client) stop() {
	c.disconnect()
	close(c.done)
}

// do runs fn on the event loop and waits for its result.
func (c *Client) do(fn func() error) error {
	cmd := command{run: fn, reply: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return ErrClientStopped
	}
	return <-cmd.reply
}

func (c *Client) connect(name string, manual bool) error {
	if state := c.session.State(); state != domain.Disconnected {
		return fmt.Errorf("%w (state %s)", ErrAlreadyConnected, state)
	}
	c.cancelReconnect()
	if manual {
		c.session.setReconnectAttempts(0)
	}
	c.session.beginIdentity(name)
	c.gen++
	c.setState(domain.Connecting)
	c.transport = c.opts.Dialer.Open(c.ctx, c.gen, c.events)
	c.opts.Metrics.dialsTotal.Inc()
	log.Info().Str("module", "app.client").Str("username", name).Uint64("gen", c.gen).Bool("manual", manual).Msg("connecting")
	return nil
}

// disconnect is idempotent. The close event of the transport it shuts is
// ignored, so no reconnect follows.
func (c *Client) disconnect() {
	c.cancelReconnect()
	if c.transport == nil {
		return
	}
	t := c.transport
	c.transport = nil
	t.Close()
	c.resetConnection()
	log.Info().Str("module", "app.client").Uint64("gen", c.gen).Msg("disconnected by user")
}

func (c *Client) handleEvent(ev core.TransportEvent) {
	if c.transport == nil || ev.Gen != c.gen {
		log.Debug().Str("module", "app.client").Uint64("gen", ev.Gen).Str("kind", ev.Kind.String()).Msg("stale transport event")
		return
	}
	switch ev.Kind {
	case core.EventOpen:
		c.onOpen()
	case core.EventMessage:
		c.onFrame(ev.Data)
	case core.EventError:
		c.onTransportError(ev.Err)
	case core.EventClose:
		c.onClose()
	}
}

func (c *Client) onOpen() {
	if state := c.session.State(); state != domain.Connecting {
		log.Warn().Str("module", "app.client").Str("state", state.String()).Msg("open in unexpected state")
		return
	}
	c.setState(domain.AwaitingIdentity)
	name := c.session.Identity().DisplayName
	if err := c.send(protocol.UserConnect{Username: name}); err != nil {
		log.Error().Err(err).Str("module", "app.client").Msg("identify")
	}
}

func (c *Client) onTransportError(err error) {
	c.opts.Metrics.transportErrors.Inc()
	log.Warn().Err(err).Str("module", "app.client").Msg("transport error")
	c.opts.Presenter.TransportError(err)
}

func (c *Client) onClose() {
	c.transport = nil
	c.resetConnection()

	attempts := c.session.reconnectAttempts()
	limit := c.opts.MaxReconnectAttempts
	if attempts >= limit {
		err := fmt.Errorf("%w after %d attempts", ErrReconnectExhausted, attempts)
		log.Error().Err(err).Str("module", "app.client").Msg("giving up")
		c.opts.Presenter.ReconnectExhausted(err)
		return
	}
	attempts++
	c.session.setReconnectAttempts(attempts)
	c.scheduleReconnect()
	log.Info().Str("module", "app.client").Int("attempt", attempts).Int("max", limit).Dur("delay", c.opts.ReconnectDelay).Msg("reconnect scheduled")
	c.opts.Presenter.ReconnectScheduled(attempts, limit, c.opts.ReconnectDelay)
}

// resetConnection puts the session back to Disconnected. The room and its
// membership go together.
func (c *Client) resetConnection() {
	c.keepalive.stop()
	if id, ok := c.session.leaveRoom(); ok {
		c.opts.Presenter.RoomLeft(id)
	}
	c.session.dropConfirmation()
	c.setState(domain.Disconnected)
}

func (c *Client) scheduleReconnect() {
	c.cancelReconnect()
	c.reconnectTimer = time.NewTimer(c.opts.ReconnectDelay)
	c.reconnectC = c.reconnectTimer.C
	c.opts.Metrics.reconnectsTotal.Inc()
}

func (c *Client) cancelReconnect() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.reconnectC = nil
}

func (c *Client) onReconnectTimer() {
	c.reconnectTimer = nil
	c.reconnectC = nil
	name := c.session.Identity().DisplayName
	if err := c.connect(name, false); err != nil {
		log.Warn().Err(err).Str("module", "app.client").Msg("reconnect skipped")
	}
}

func (c *Client) onKeepalive() {
	if err := c.send(protocol.Ping{}); err != nil {
		log.Warn().Err(err).Str("module", "app.client").Msg("ping")
	}
}

func (c *Client) setState(state domain.ConnectionState) {
	prev := c.session.State()
	if prev == state {
		return
	}
	c.session.setState(state)
	c.opts.Metrics.connectionState.Set(float64(state))
	if state == domain.Connected {
		c.keepalive.start()
	} else {
		c.keepalive.stop()
	}
	log.Info().Str("module", "app.client").Str("from", prev.String()).Str("to", state.String()).Msg("state changed")
	c.opts.Presenter.StateChanged(state)
}

func (c *Client) requireConnected() error {
	if c.transport == nil || c.session.State() != domain.Connected {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) send(out protocol.Outbound) error {
	if c.transport == nil {
		return ErrNotConnected
	}
	frame := c.opts.Codec.MustEncode(out)
	if err := c.transport.TrySend(frame); err != nil {
		c.opts.Metrics.envelopesDropped.WithLabelValues("send_failed").Inc()
		if errors.Is(err, core.ErrBackpressure) && c.opts.Policy.OnBackPressure(out.Tag()) == ResetConnection {
			log.Warn().Str("module", "app.client").Str("type", string(out.Tag())).Msg("backpressure, resetting connection")
			c.transport.Close()
		}
		return fmt.Errorf("send %s: %w", out.Tag(), err)
	}
	c.opts.Metrics.envelopesSent.WithLabelValues(string(out.Tag())).Inc()
	log.Debug().Str("module", "app.client").Str("type", string(out.Tag())).Msg("sent")
	return nil
}
