// internal/types/ids.go
package types

import (
	"strings"

	"github.com/google/uuid"
)

type ChatKey string
type MessageID string
type RunID string
type WorkflowID string

func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

func NewRunID() RunID {
	return RunID(uuid.New().String())
}

func NewWorkflowID() WorkflowID {
	return WorkflowID(uuid.New().String())
}

// NewChatKey joins a platform and its native chat identifier, e.g.
// "telegram:-100123". The platform prefix is what delivery routes on.
func NewChatKey(platform Platform, chatID string) ChatKey {
	return ChatKey(string(platform) + ":" + chatID)
}

// Platform returns the platform prefix of the key.
func (k ChatKey) Platform() Platform {
	p, _, _ := strings.Cut(string(k), ":")
	return Platform(p)
}

// ChatID returns the part of the key after the platform prefix.
func (k ChatKey) ChatID() string {
	_, id, found := strings.Cut(string(k), ":")
	if !found {
		return string(k)
	}
	return id
}
