// Package domain contains entity without logic, just meta-data
package domain

const (
	MinUsernameLen = 2
	MaxUsernameLen = 20
)

type UserID string

// Identity is the display name chosen by the client plus the id the server
// assigned to it. UserID stays empty until the server confirms the name.
type Identity struct {
	DisplayName string `json:"display_name"`
	UserID      UserID `json:"user_id,omitempty"`
}

func (i Identity) Confirmed() bool {
	return i.UserID != ""
}

// ConnectionState is where the client is in the connect/identify cycle.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	AwaitingIdentity
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingIdentity:
		return "awaiting_identity"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
