package term

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/chatcube/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CmdNone}},
		{"   ", Command{Kind: CmdNone}},
		{"hello there", Command{Kind: CmdSay, Arg: "hello there"}},
		{"/create  general chat ", Command{Kind: CmdCreate, Arg: "general chat"}},
		{"/join r1", Command{Kind: CmdJoin, Arg: "r1"}},
		{"/JOIN r1", Command{Kind: CmdJoin, Arg: "r1"}},
		{"/connect alice", Command{Kind: CmdConnect, Arg: "alice"}},
		{"/leave", Command{Kind: CmdLeave}},
		{"/rooms", Command{Kind: CmdRooms}},
		{"/help", Command{Kind: CmdHelp}},
		{"/quit", Command{Kind: CmdQuit}},
		{"/exit", Command{Kind: CmdQuit}},
	}
	for _, tc := range cases {
		got, err := ParseLine(tc.line)
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}
}

func TestParseLine_Errors(t *testing.T) {
	_, err := ParseLine("/dance")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = ParseLine("/join")
	assert.EqualError(t, err, "/join needs an argument")
}

type call struct {
	name string
	arg  string
}

type fakeIntents struct {
	mu    sync.Mutex
	calls []call
	fail  error
}

func (f *fakeIntents) record(name, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{name, arg})
	return f.fail
}

func (f *fakeIntents) RequestConnect(n string) error          { return f.record("connect", n) }
func (f *fakeIntents) RequestCreateRoom(n string) error       { return f.record("create", n) }
func (f *fakeIntents) RequestJoinRoom(id domain.RoomID) error { return f.record("join", string(id)) }
func (f *fakeIntents) RequestLeaveRoom() error                { return f.record("leave", "") }
func (f *fakeIntents) RequestSendMessage(t string) error      { return f.record("say", t) }
func (f *fakeIntents) RequestRoomsList() error                { return f.record("rooms", "") }

func TestRun_DispatchesUntilQuit(t *testing.T) {
	in := strings.NewReader("/rooms\n/create general\n\nhi all\n/join r2\n/leave\n/quit\nnot sent\n")
	intents := &fakeIntents{}
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), in, intents, NewPresenter(&out)))

	assert.Equal(t, []call{
		{"rooms", ""},
		{"create", "general"},
		{"say", "hi all"},
		{"join", "r2"},
		{"leave", ""},
	}, intents.calls)
}

func TestRun_ReportsRejectedCommands(t *testing.T) {
	in := strings.NewReader("/bogus\nhello\n")
	intents := &fakeIntents{fail: errors.New("not connected to server")}
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), in, intents, NewPresenter(&out)))

	assert.Contains(t, out.String(), "!!! unknown command: /bogus")
	assert.Contains(t, out.String(), "!!! not connected to server")
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}

func TestRun_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, blockingReader{}, &fakeIntents{}, NewPresenter(&bytes.Buffer{}))
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
