// Package ingest decodes platform payloads into chat messages.
package ingest

import (
	"errors"
	"strings"
	"time"

	"github.com/user/chathub/internal/types"
)

// ErrIgnored is returned for well-formed payloads that carry no chat
// message worth processing (edits, joins, stickers, ...).
var ErrIgnored = errors.New("payload carries no message")

// finish fills the fields every decoder leaves to defaults.
func finish(msg *types.Message) *types.Message {
	if msg.ID == "" {
		msg.ID = types.NewMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Type == "" {
		msg.Type = types.MessageTypeText
	}
	msg.Content = strings.TrimSpace(msg.Content)
	return msg
}

func setMeta(msg *types.Message, key, value string) {
	if value == "" {
		return
	}
	if msg.Metadata == nil {
		msg.Metadata = make(map[string]string)
	}
	msg.Metadata[key] = value
}
