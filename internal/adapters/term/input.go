package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dkeye/chatcube/internal/domain"
	"github.com/rs/zerolog/log"
)

// Intents is what the input loop can ask of the client.
type Intents interface {
	RequestConnect(displayName string) error
	RequestCreateRoom(name string) error
	RequestJoinRoom(id domain.RoomID) error
	RequestLeaveRoom() error
	RequestSendMessage(text string) error
	RequestRoomsList() error
}

type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdSay
	CmdConnect
	CmdCreate
	CmdJoin
	CmdLeave
	CmdRooms
	CmdHelp
	CmdQuit
)

type Command struct {
	Kind CommandKind
	Arg  string
}

var ErrUnknownCommand = errors.New("unknown command")

const helpText = `commands:
  /connect <name>   connect again after giving up
  /create <name>    create a room and join it
  /join <room id>   join a room
  /leave            leave the current room
  /rooms            list rooms
  /quit             exit
anything else is sent to the current room`

// ParseLine turns one typed line into a Command. Blank lines are CmdNone.
func ParseLine(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CmdNone}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CmdSay, Arg: line}, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	needArg := func(kind CommandKind) (Command, error) {
		if arg == "" {
			return Command{}, fmt.Errorf("/%s needs an argument", name)
		}
		return Command{Kind: kind, Arg: arg}, nil
	}

	switch strings.ToLower(name) {
	case "connect":
		return needArg(CmdConnect)
	case "create":
		return needArg(CmdCreate)
	case "join":
		return needArg(CmdJoin)
	case "leave":
		return Command{Kind: CmdLeave}, nil
	case "rooms":
		return Command{Kind: CmdRooms}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
}

// Run reads commands from in until /quit, EOF or ctx is done.
func Run(ctx context.Context, in io.Reader, intents Intents, p *Presenter) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	p.printf("Type a message, or /help")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			cmd, err := ParseLine(line)
			if err != nil {
				p.Error(err)
				continue
			}
			if cmd.Kind == CmdQuit {
				return nil
			}
			if err := dispatch(cmd, intents, p); err != nil {
				log.Debug().Err(err).Str("module", "adapters.term").Int("kind", int(cmd.Kind)).Msg("command rejected")
				p.Error(err)
			}
		}
	}
}

func dispatch(cmd Command, intents Intents, p *Presenter) error {
	switch cmd.Kind {
	case CmdSay:
		return intents.RequestSendMessage(cmd.Arg)
	case CmdConnect:
		return intents.RequestConnect(cmd.Arg)
	case CmdCreate:
		return intents.RequestCreateRoom(cmd.Arg)
	case CmdJoin:
		return intents.RequestJoinRoom(domain.RoomID(cmd.Arg))
	case CmdLeave:
		return intents.RequestLeaveRoom()
	case CmdRooms:
		return intents.RequestRoomsList()
	case CmdHelp:
		p.printf("%s", helpText)
	}
	return nil
}
