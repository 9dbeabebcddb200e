package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/chathub/internal/types"
)

// DecodeTelegramUpdate decodes a Bot API webhook update.
func DecodeTelegramUpdate(body []byte) (*types.Message, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("decode telegram update: %w", err)
	}
	msg := FromTelegram(update.Message)
	if msg == nil {
		msg = FromTelegram(update.ChannelPost)
	}
	if msg == nil {
		return nil, ErrIgnored
	}
	setMeta(msg, "update_id", strconv.Itoa(update.UpdateID))
	return msg, nil
}

// FromTelegram converts a Bot API message. It returns nil for messages
// without text or caption.
func FromTelegram(m *tgbotapi.Message) *types.Message {
	if m == nil || m.Chat == nil {
		return nil
	}
	content := m.Text
	kind := types.MessageTypeText
	switch {
	case content != "":
	case m.Caption != "" && len(m.Photo) > 0:
		content, kind = m.Caption, types.MessageTypeImage
	case m.Caption != "" && m.Video != nil:
		content, kind = m.Caption, types.MessageTypeVideo
	case m.Caption != "" && m.Document != nil:
		content, kind = m.Caption, types.MessageTypeFile
	default:
		return nil
	}

	chatID := strconv.FormatInt(m.Chat.ID, 10)
	msg := &types.Message{
		ID:        types.MessageID(fmt.Sprintf("telegram-%s-%d", chatID, m.MessageID)),
		ChatID:    chatID,
		Platform:  types.PlatformTelegram,
		Type:      kind,
		Content:   content,
		Sender:    telegramSender(m),
		Timestamp: time.Unix(int64(m.Date), 0),
	}
	setMeta(msg, "chat_type", m.Chat.Type)
	setMeta(msg, "chat_title", m.Chat.Title)
	if m.From != nil {
		setMeta(msg, "user_id", strconv.FormatInt(m.From.ID, 10))
	}
	return finish(msg)
}

func telegramSender(m *tgbotapi.Message) string {
	if m.From == nil {
		if m.SenderChat != nil {
			return m.SenderChat.Title
		}
		return "unknown"
	}
	if m.From.UserName != "" {
		return m.From.UserName
	}
	if m.From.FirstName != "" {
		return m.From.FirstName
	}
	return strconv.FormatInt(m.From.ID, 10)
}
