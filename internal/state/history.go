// internal/state/history.go
package state

import (
	"sort"
	"sync"

	"github.com/user/chathub/internal/types"
)

const defaultHistorySize = 50

// History keeps the most recent messages of every chat in memory. Each chat
// has its own lock so appends to different chats never contend.
type History struct {
	limit int

	mu    sync.Mutex
	chats map[types.ChatKey]*chatLog
}

type chatLog struct {
	mu   sync.Mutex
	msgs []*types.Message
}

// NewHistory creates a History that keeps up to limit messages per chat.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &History{
		limit: limit,
		chats: make(map[types.ChatKey]*chatLog),
	}
}

// getLog returns the per-chat log, creating one if it doesn't exist.
func (h *History) getLog(key types.ChatKey) *chatLog {
	h.mu.Lock()
	defer h.mu.Unlock()

	if log, ok := h.chats[key]; ok {
		return log
	}
	log := &chatLog{}
	h.chats[key] = log
	return log
}

// Append records msg at the end of its chat, dropping the oldest message
// once the chat is full.
func (h *History) Append(msg *types.Message) {
	log := h.getLog(msg.ChatKey())
	log.mu.Lock()
	defer log.mu.Unlock()

	log.msgs = append(log.msgs, msg)
	if over := len(log.msgs) - h.limit; over > 0 {
		log.msgs = append([]*types.Message(nil), log.msgs[over:]...)
	}
}

// Recent returns up to limit of the newest messages of a chat, oldest first.
// A limit of zero or less returns everything kept.
func (h *History) Recent(key types.ChatKey, limit int) []*types.Message {
	h.mu.Lock()
	log, ok := h.chats[key]
	h.mu.Unlock()
	if !ok {
		return []*types.Message{}
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	msgs := log.msgs
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]*types.Message(nil), msgs...)
}

// Chats returns the keys of all chats with history, sorted.
func (h *History) Chats() []types.ChatKey {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]types.ChatKey, 0, len(h.chats))
	for k := range h.chats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Forget drops the history of one chat.
func (h *History) Forget(key types.ChatKey) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.chats, key)
}
