package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"

	"github.com/user/chathub/internal/types"
)

const feishuMessageEvent = "im.message.receive_v1"

// FeishuEvent is the result of decoding a Feishu/Lark event callback:
// either a URL verification challenge or a received message.
type FeishuEvent struct {
	Challenge string
	Message   *types.Message
}

type feishuEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Token     string `json:"token"`
	Header    *struct {
		EventType string `json:"event_type"`
		Token     string `json:"token"`
	} `json:"header"`
}

// DecodeFeishuEvent decodes an unencrypted event callback body. When token
// is non-empty the callback's verification token must match it.
func DecodeFeishuEvent(body []byte, token string) (*FeishuEvent, error) {
	var env feishuEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode feishu event: %w", err)
	}

	got := env.Token
	if env.Header != nil {
		got = env.Header.Token
	}
	if token != "" && got != token {
		return nil, fmt.Errorf("feishu verification token mismatch")
	}

	if env.Type == "url_verification" {
		return &FeishuEvent{Challenge: env.Challenge}, nil
	}
	if env.Header == nil || env.Header.EventType != feishuMessageEvent {
		return nil, ErrIgnored
	}

	var event larkim.P2MessageReceiveV1
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode feishu message event: %w", err)
	}
	msg, err := FromFeishu(&event)
	if err != nil {
		return nil, err
	}
	return &FeishuEvent{Message: msg}, nil
}

// FromFeishu converts a receive_v1 event. Only text and post messages are
// accepted.
func FromFeishu(event *larkim.P2MessageReceiveV1) (*types.Message, error) {
	if event.Event == nil || event.Event.Message == nil {
		return nil, ErrIgnored
	}
	raw := event.Event.Message

	var content string
	var err error
	switch deref(raw.MessageType) {
	case "text":
		content, err = feishuText(deref(raw.Content))
	case "post":
		content, err = feishuPost(deref(raw.Content))
	default:
		return nil, ErrIgnored
	}
	if err != nil {
		return nil, err
	}
	for _, m := range raw.Mentions {
		if m.Key != nil && m.Name != nil {
			content = strings.ReplaceAll(content, *m.Key, "@"+*m.Name)
		}
	}

	msg := &types.Message{
		ID:       types.MessageID(deref(raw.MessageId)),
		ChatID:   deref(raw.ChatId),
		Platform: types.PlatformFeishu,
		Type:     types.MessageTypeText,
		Content:  content,
		Sender:   "unknown",
	}
	if sender := event.Event.Sender; sender != nil {
		if sender.SenderId != nil && sender.SenderId.OpenId != nil {
			msg.Sender = *sender.SenderId.OpenId
		}
		setMeta(msg, "sender_type", deref(sender.SenderType))
	}
	if ms, err := strconv.ParseInt(deref(raw.CreateTime), 10, 64); err == nil {
		msg.Timestamp = time.UnixMilli(ms)
	}
	setMeta(msg, "chat_type", deref(raw.ChatType))
	if msg.ChatID == "" {
		return nil, fmt.Errorf("feishu message without chat_id")
	}
	return finish(msg), nil
}

func feishuText(content string) (string, error) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return "", fmt.Errorf("decode feishu text content: %w", err)
	}
	return body.Text, nil
}

// feishuPost flattens a rich-text post into lines of plain text.
func feishuPost(content string) (string, error) {
	type element struct {
		Tag      string `json:"tag"`
		Text     string `json:"text"`
		UserName string `json:"user_name"`
	}
	var body struct {
		Title   string      `json:"title"`
		Content [][]element `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return "", fmt.Errorf("decode feishu post content: %w", err)
	}

	var lines []string
	if body.Title != "" {
		lines = append(lines, body.Title)
	}
	for _, paragraph := range body.Content {
		var b strings.Builder
		for _, el := range paragraph {
			switch el.Tag {
			case "text", "a":
				b.WriteString(el.Text)
			case "at":
				b.WriteString("@" + el.UserName)
			}
		}
		if b.Len() > 0 {
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n"), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
