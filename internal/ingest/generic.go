package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/user/chathub/internal/types"
)

// DecodeMessage decodes a message posted in the chathub JSON shape. A
// non-empty platform overrides the one in the body.
func DecodeMessage(body []byte, platform types.Platform) (*types.Message, error) {
	var msg types.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if platform != "" {
		msg.Platform = platform
	}
	if msg.Platform == "" {
		return nil, fmt.Errorf("message has no platform")
	}
	if msg.ChatID == "" {
		return nil, fmt.Errorf("message has no chatId")
	}
	if msg.Sender == "" {
		msg.Sender = "unknown"
	}
	return finish(&msg), nil
}
