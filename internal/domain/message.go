package domain

import "time"

const MaxMessageLen = 1000

type ChatMessage struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
	IsSelf bool      `json:"is_self"`
}

// NewChatMessage derives IsSelf locally; the server never sends it.
func NewChatMessage(author, text string, sentAt time.Time, self string) ChatMessage {
	return ChatMessage{
		Author: author,
		Text:   text,
		SentAt: sentAt,
		IsSelf: author == self,
	}
}
