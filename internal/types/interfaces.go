// internal/types/interfaces.go
package types

import (
	"context"
)

// HistoryStore keeps the recent messages of every chat.
type HistoryStore interface {
	Append(msg *Message)
	Recent(chat ChatKey, limit int) []*Message
	Chats() []ChatKey
}

// Sender emits an outgoing message into a chat.
type Sender interface {
	Send(ctx context.Context, chat ChatKey, text string) error
}
