package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/chathub/internal/ingest"
	"github.com/user/chathub/internal/types"
)

const maxTelegramMessage = 4096

// InboundFunc hands a decoded message to the pipeline.
type InboundFunc func(ctx context.Context, msg *types.Message) error

// StatusFunc renders the reply to /status.
type StatusFunc func() string

// Adapter long-polls the Bot API for messages and sends replies.
type Adapter struct {
	bot     *tgbotapi.BotAPI
	inbound InboundFunc
	status  StatusFunc
}

// New creates a Telegram adapter for the bot token.
func New(token string, inbound InboundFunc, status StatusFunc) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{bot: bot, inbound: inbound, status: status}, nil
}

// Start begins long-polling for Telegram updates and blocks until ctx is done.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.IsCommand() {
		a.handleCommand(m)
		return
	}

	msg := ingest.FromTelegram(m)
	if msg == nil {
		return
	}
	msg.IsOwn = m.From != nil && m.From.ID == a.bot.Self.ID
	if err := a.inbound(ctx, msg); err != nil {
		slog.Error("telegram inbound failed", "chat", string(msg.ChatKey()), "error", err)
	}
}

func (a *Adapter) handleCommand(m *tgbotapi.Message) {
	chatID := m.Chat.ID

	switch m.Command() {
	case "start":
		a.sendText(chatID, "Hello! Messages in this chat now run through your workflows.")
	case "status":
		if a.status == nil {
			a.sendText(chatID, "Status unavailable.")
			return
		}
		a.sendText(chatID, a.status())
	default:
		a.sendText(chatID, "Unknown command. Available: /start, /status")
	}
}

// Send delivers text to the chat with the given numeric ID. It matches
// delivery.Handler.
func (a *Adapter) Send(_ context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	for _, part := range splitMessage(text) {
		if _, err := a.bot.Send(tgbotapi.NewMessage(id, part)); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

func (a *Adapter) sendText(chatID int64, text string) {
	if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("send telegram message", "chat_id", chatID, "error", err)
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
