// internal/delivery/registry.go
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/chathub/internal/types"
)

// Handler delivers text to a chat on one platform. chatID is the native
// identifier, without the platform prefix.
type Handler func(ctx context.Context, chatID, text string) error

// Registry routes outgoing messages to the handler registered for the
// platform prefix of the chat key (e.g. "telegram:", "feishu:").
type Registry struct {
	mu       sync.RWMutex
	handlers map[types.Platform]Handler
	fallback Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[types.Platform]Handler),
	}
}

// Register adds a handler for chats on platform.
func (r *Registry) Register(platform types.Platform, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[platform] = handler
}

// SetFallback sets the handler used for platforms without one.
func (r *Registry) SetFallback(handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = handler
}

// Platforms lists the platforms with a registered handler.
func (r *Registry) Platforms() []types.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Platform, 0, len(r.handlers))
	for p := range r.handlers {
		out = append(out, p)
	}
	return out
}

// Send implements types.Sender. It returns an error if neither a platform
// handler nor a fallback is registered.
func (r *Registry) Send(ctx context.Context, chat types.ChatKey, text string) error {
	r.mu.RLock()
	handler, ok := r.handlers[chat.Platform()]
	if !ok {
		handler = r.fallback
	}
	r.mu.RUnlock()

	if handler == nil {
		return fmt.Errorf("no delivery handler for chat: %s", chat)
	}
	return handler(ctx, chat.ChatID(), text)
}

// LogHandler returns a Handler that only logs the outgoing text. It stands
// in for platforms the process has no client for.
func LogHandler(platform string) Handler {
	return func(_ context.Context, chatID, text string) error {
		slog.Info("outbound message", "platform", platform, "chat_id", chatID, "text", text)
		return nil
	}
}
