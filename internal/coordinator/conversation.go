package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/user/chathub/internal/types"
)

// seenLimit bounds how many replied-to message IDs a conversation remembers.
const seenLimit = 256

// Conversation owns the scheduled auto-replies of one chat. Closing it
// cancels every reply that has not been sent yet.
type Conversation struct {
	key    types.ChatKey
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[types.MessageID]*pendingReply
	seen    map[types.MessageID]struct{}
	order   []types.MessageID
}

type pendingReply struct {
	timer *time.Timer
	done  func()
}

func newConversation(parent context.Context, key types.ChatKey) *Conversation {
	ctx, cancel := context.WithCancel(parent)
	return &Conversation{
		key:     key,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[types.MessageID]*pendingReply),
		seen:    make(map[types.MessageID]struct{}),
	}
}

// Key returns the chat the conversation belongs to.
func (c *Conversation) Key() types.ChatKey {
	return c.key
}

// Closed reports whether the conversation has been closed.
func (c *Conversation) Closed() bool {
	return c.ctx.Err() != nil
}

// Pending returns the number of replies waiting for their delay.
func (c *Conversation) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// schedule runs send after delay unless the conversation is closed first.
// done is called exactly once for every accepted reply, whether it was
// sent or cancelled. It returns false when the conversation is closed or a
// reply for msgID was already scheduled.
func (c *Conversation) schedule(msgID types.MessageID, delay time.Duration, send func(ctx context.Context), done func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return false
	}
	if _, dup := c.seen[msgID]; dup {
		return false
	}
	c.remember(msgID)

	c.pending[msgID] = &pendingReply{
		done: done,
		timer: time.AfterFunc(delay, func() {
			defer done()
			c.mu.Lock()
			_, live := c.pending[msgID]
			delete(c.pending, msgID)
			c.mu.Unlock()
			if !live || c.ctx.Err() != nil {
				return
			}
			send(c.ctx)
		}),
	}
	return true
}

func (c *Conversation) remember(msgID types.MessageID) {
	c.seen[msgID] = struct{}{}
	c.order = append(c.order, msgID)
	if len(c.order) > seenLimit {
		delete(c.seen, c.order[0])
		c.order = c.order[1:]
	}
}

// close cancels the conversation and every pending reply.
func (c *Conversation) close() {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.pending {
		if p.timer.Stop() {
			p.done()
		}
		delete(c.pending, id)
	}
}
