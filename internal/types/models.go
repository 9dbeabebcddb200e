// internal/types/models.go
package types

import (
	"time"
)

type Platform string

const (
	PlatformWhatsApp Platform = "whatsapp"
	PlatformTelegram Platform = "telegram"
	PlatformSlack    Platform = "slack"
	PlatformDiscord  Platform = "discord"
	PlatformTeams    Platform = "teams"
	PlatformFeishu   Platform = "feishu"
)

var knownPlatforms = map[Platform]bool{
	PlatformWhatsApp: true,
	PlatformTelegram: true,
	PlatformSlack:    true,
	PlatformDiscord:  true,
	PlatformTeams:    true,
	PlatformFeishu:   true,
}

// Known reports whether p is one of the built-in platforms.
func (p Platform) Known() bool {
	return knownPlatforms[p]
}

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
	MessageTypeVoice MessageType = "voice"
	MessageTypeVideo MessageType = "video"
)

// Message is an immutable chat message as observed from a platform.
type Message struct {
	ID        MessageID         `json:"id"`
	ChatID    string            `json:"chatId"`
	Platform  Platform          `json:"platform"`
	Type      MessageType       `json:"type,omitempty"`
	Content   string            `json:"content"`
	Sender    string            `json:"sender"`
	Timestamp time.Time         `json:"timestamp"`
	IsOwn     bool              `json:"isOwn"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ChatKey returns the platform-qualified key of the message's chat.
func (m *Message) ChatKey() ChatKey {
	return NewChatKey(m.Platform, m.ChatID)
}
