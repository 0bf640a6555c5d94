package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/chatcube/internal/core"
	"github.com/dkeye/chatcube/internal/domain"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
	opened     chan *fakeTransport
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{opened: make(chan *fakeTransport, 32)}
}

func (d *fakeDialer) Open(_ context.Context, gen uint64, events chan<- core.TransportEvent) core.Transport {
	tr := &fakeTransport{gen: gen, events: events}
	d.mu.Lock()
	d.transports = append(d.transports, tr)
	d.mu.Unlock()
	d.opened <- tr
	return tr
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

func (d *fakeDialer) next(t *testing.T) *fakeTransport {
	t.Helper()
	select {
	case tr := <-d.opened:
		return tr
	case <-time.After(waitFor):
		t.Fatal("no transport opened")
		return nil
	}
}

type fakeTransport struct {
	gen    uint64
	events chan<- core.TransportEvent

	mu     sync.Mutex
	sent   []core.Frame
	closes int
	full   bool
}

func (f *fakeTransport) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return core.ErrBackpressure
	}
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeTransport) emit(kind core.EventKind, data string) {
	ev := core.TransportEvent{Gen: f.gen, Kind: kind}
	if data != "" {
		ev.Data = core.Frame(data)
	}
	f.events <- ev
}

func (f *fakeTransport) open()                { f.emit(core.EventOpen, "") }
func (f *fakeTransport) closed()              { f.emit(core.EventClose, "") }
func (f *fakeTransport) receive(frame string) { f.emit(core.EventMessage, frame) }

type sentEnvelope struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func (f *fakeTransport) envelopes() []sentEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEnvelope, 0, len(f.sent))
	for _, frame := range f.sent {
		var env sentEnvelope
		if err := json.Unmarshal(frame, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeTransport) types() []string {
	var out []string
	for _, env := range f.envelopes() {
		out = append(out, env.Type)
	}
	return out
}

func (f *fakeTransport) countType(tag string) int {
	n := 0
	for _, env := range f.envelopes() {
		if env.Type == tag {
			n++
		}
	}
	return n
}

func (f *fakeTransport) lastOf(tag string) (sentEnvelope, bool) {
	envs := f.envelopes()
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == tag {
			return envs[i], true
		}
	}
	return sentEnvelope{}, false
}

type recordingPresenter struct {
	core.NopPresenter

	mu         sync.Mutex
	states     []domain.ConnectionState
	welcomes   []domain.Identity
	created    []domain.RoomID
	joined     []domain.RoomMembership
	left       []domain.RoomID
	messages   []domain.ChatMessage
	roomLists  [][]domain.RoomSummary
	roomUsers  [][]string
	presence   []domain.PresenceSnapshot
	notices    []string
	serverErrs []string
	transErrs  []error
	scheduled  []int
	exhausted  int
}

func (p *recordingPresenter) StateChanged(s domain.ConnectionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, s)
}

func (p *recordingPresenter) Welcome(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.welcomes = append(p.welcomes, id)
}

func (p *recordingPresenter) RoomCreated(id domain.RoomID, _ domain.RoomName) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, id)
}

func (p *recordingPresenter) RoomJoined(room domain.RoomMembership) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joined = append(p.joined, room)
}

func (p *recordingPresenter) RoomLeft(id domain.RoomID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.left = append(p.left, id)
}

func (p *recordingPresenter) MessageReceived(msg domain.ChatMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *recordingPresenter) RoomsListed(rooms []domain.RoomSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomLists = append(p.roomLists, rooms)
}

func (p *recordingPresenter) RoomUsers(users []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomUsers = append(p.roomUsers, users)
}

func (p *recordingPresenter) PresenceUpdated(s domain.PresenceSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presence = append(p.presence, s)
}

func (p *recordingPresenter) SystemNotice(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, text)
}

func (p *recordingPresenter) ServerError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.serverErrs = append(p.serverErrs, msg)
}

func (p *recordingPresenter) TransportError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transErrs = append(p.transErrs, err)
}

func (p *recordingPresenter) ReconnectScheduled(attempt, _ int, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled = append(p.scheduled, attempt)
}

func (p *recordingPresenter) ReconnectExhausted(error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exhausted++
}

func (p *recordingPresenter) read(fn func(p *recordingPresenter)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

type harness struct {
	client    *Client
	dialer    *fakeDialer
	presenter *recordingPresenter
}

func startClient(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{dialer: newFakeDialer(), presenter: &recordingPresenter{}}
	opts.Dialer = h.dialer
	opts.Presenter = h.presenter
	h.client = NewClient(opts)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = h.client.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return h
}

func (h *harness) state() domain.ConnectionState {
	return h.client.Session().State()
}

func (h *harness) waitState(t *testing.T, want domain.ConnectionState) {
	t.Helper()
	require.Eventually(t, func() bool { return h.state() == want }, waitFor, tick, "want state %s", want)
}

// connect runs the handshake up to Connected as name.
func (h *harness) connect(t *testing.T, name string) *fakeTransport {
	t.Helper()
	require.NoError(t, h.client.RequestConnect(name))
	tr := h.dialer.next(t)
	tr.open()
	h.waitState(t, domain.AwaitingIdentity)
	tr.receive(`{"type":"user_connected","data":{"user_id":"u1"}}`)
	h.waitState(t, domain.Connected)
	return tr
}

// join drives a room_joined for id on tr and waits for it to land.
func (h *harness) join(t *testing.T, tr *fakeTransport, id string) {
	t.Helper()
	tr.receive(`{"type":"room_joined","data":{"room_id":"` + id + `","room_name":"general","users_count":1,"message_history":[]}}`)
	require.Eventually(t, func() bool {
		cur, ok := h.client.Session().CurrentRoom()
		return ok && string(cur) == id
	}, waitFor, tick)
}
