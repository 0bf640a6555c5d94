// Package term renders client events as lines of text and turns typed lines
// into client intents.
package term

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/chatcube/internal/core"
	"github.com/dkeye/chatcube/internal/domain"
)

const timeLayout = "15:04:05"

var _ core.Presenter = (*Presenter)(nil)

// Presenter writes one line per event. Writes are serialized so the event
// loop and the input loop can share it.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Presenter) StateChanged(state domain.ConnectionState) {
	p.printf("-- %s", state)
}

func (p *Presenter) Welcome(id domain.Identity) {
	p.printf("*** Welcome, %s! (id %s)", id.DisplayName, id.UserID)
}

func (p *Presenter) RoomCreated(id domain.RoomID, name domain.RoomName) {
	p.printf("*** Room %q created (%s)", name, id)
}

func (p *Presenter) RoomJoined(room domain.RoomMembership) {
	p.printf("*** Joined %q (%s), %d online", room.Name, room.ID, room.UserCount)
	for _, msg := range room.History {
		p.MessageReceived(msg)
	}
}

func (p *Presenter) RoomLeft(id domain.RoomID) {
	p.printf("*** Left room %s", id)
}

func (p *Presenter) MessageReceived(msg domain.ChatMessage) {
	author := msg.Author
	if msg.IsSelf {
		author = "you"
	}
	p.printf("[%s] %s: %s", msg.SentAt.Local().Format(timeLayout), author, msg.Text)
}

func (p *Presenter) RoomsListed(rooms []domain.RoomSummary) {
	if len(rooms) == 0 {
		p.printf("*** No rooms yet, /create one")
		return
	}
	p.printf("*** Rooms:")
	for _, r := range rooms {
		p.printf("    %s  %-30s %d users", r.ID, r.Name, r.UserCount)
	}
}

func (p *Presenter) RoomUsers(users []string) {
	p.printf("*** In room: %s", strings.Join(users, ", "))
}

func (p *Presenter) PresenceUpdated(s domain.PresenceSnapshot) {
	p.printf("*** Online (%d): %s", s.TotalOnline, strings.Join(s.OnlineUsers, ", "))
}

func (p *Presenter) SystemNotice(text string) {
	p.printf("*** %s", text)
}

func (p *Presenter) ServerError(message string) {
	p.printf("!!! server: %s", message)
}

func (p *Presenter) TransportError(err error) {
	p.printf("!!! connection: %v", err)
}

func (p *Presenter) ReconnectScheduled(attempt, limit int, delay time.Duration) {
	p.printf("-- reconnecting in %s (attempt %d/%d)", delay, attempt, limit)
}

func (p *Presenter) ReconnectExhausted(err error) {
	p.printf("!!! %v, use /connect to try again", err)
}

// Error reports a rejected command.
func (p *Presenter) Error(err error) {
	p.printf("!!! %v", err)
}
