package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// FeishuSender posts text messages into Feishu/Lark chats.
type FeishuSender struct {
	client *lark.Client
}

// NewFeishuSender creates a sender for the given app credentials. Extra
// client options (base URL, HTTP client) are passed through to the SDK.
func NewFeishuSender(appID, appSecret string, opts ...lark.ClientOptionFunc) *FeishuSender {
	return &FeishuSender{client: lark.NewClient(appID, appSecret, opts...)}
}

// Send posts text to the chat identified by chatID.
func (s *FeishuSender) Send(ctx context.Context, chatID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := s.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send feishu message: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send feishu message: code %d: %s", resp.Code, resp.Msg)
	}
	return nil
}
