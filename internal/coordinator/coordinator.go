package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/gateway"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

// DefaultReplyDelay is how long an auto-reply waits before it is sent.
const DefaultReplyDelay = 1000 * time.Millisecond

// SentimentAnalyzer is the slice of the analysis provider the coordinator
// needs.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) analysis.SentimentResult
}

// ReplyHook observes every auto-reply send attempt.
type ReplyHook func(chat types.ChatKey, text string, err error)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSink sets the UI sink that receives reports.
func WithSink(s Sink) Option {
	return func(c *Coordinator) { c.sink = s }
}

// WithSender sets the outgoing send path used for auto-replies.
func WithSender(s types.Sender) Option {
	return func(c *Coordinator) { c.sender = s }
}

// WithHistory records every processed message and every sent reply.
func WithHistory(h types.HistoryStore) Option {
	return func(c *Coordinator) { c.history = h }
}

// WithReplyDelay overrides DefaultReplyDelay.
func WithReplyDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.replyDelay = d }
}

// WithRetry sets the retry policy for auto-reply delivery.
func WithRetry(p *gateway.RetryPolicy) Option {
	return func(c *Coordinator) { c.retry = p }
}

// WithReplyHook registers a hook called after each auto-reply attempt.
func WithReplyHook(h ReplyHook) Option {
	return func(c *Coordinator) { c.onReply = h }
}

// Coordinator runs analysis, workflow evaluation and auto-reply
// scheduling for each message. Messages may be handled concurrently.
type Coordinator struct {
	analyzer   SentimentAnalyzer
	engine     *workflow.Engine
	sink       Sink
	sender     types.Sender
	history    types.HistoryStore
	retry      *gateway.RetryPolicy
	replyDelay time.Duration
	onReply    ReplyHook

	ctx    context.Context
	cancel context.CancelFunc
	sends  sync.WaitGroup

	mu            sync.Mutex
	conversations map[types.ChatKey]*Conversation
}

// New creates a Coordinator over analyzer and engine.
func New(analyzer SentimentAnalyzer, engine *workflow.Engine, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		analyzer:      analyzer,
		engine:        engine,
		sink:          nopSink{},
		retry:         gateway.DefaultRetryPolicy(),
		replyDelay:    DefaultReplyDelay,
		ctx:           ctx,
		cancel:        cancel,
		conversations: make(map[types.ChatKey]*Conversation),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the workflow engine the coordinator drives.
func (c *Coordinator) Engine() *workflow.Engine {
	return c.engine
}

// HandleMessage processes one message. Own messages are recorded in the
// history and otherwise ignored. For other messages the sentiment is
// computed, every enabled workflow is evaluated with it, the first
// auto-reply result is scheduled on the chat's conversation and the
// report is published to the sink. A message without an ID is given one.
func (c *Coordinator) HandleMessage(ctx context.Context, msg *types.Message) (*Report, error) {
	if msg == nil {
		return nil, fmt.Errorf("nil message")
	}
	// Replies are de-duplicated per message ID.
	if msg.ID == "" {
		msg.ID = types.NewMessageID()
	}
	if c.history != nil {
		c.history.Append(msg)
	}

	report := &Report{
		Message:  msg,
		Outcomes: []workflow.Outcome{},
		Actions:  []workflow.TriggeredActionResult{},
		At:       time.Now(),
	}
	if msg.IsOwn {
		return report, nil
	}

	sentiment := c.analyzer.AnalyzeSentiment(ctx, msg.Content)
	report.Sentiment = &sentiment

	ev := c.engine.Evaluate(msg, workflow.Context{Sentiment: &sentiment})
	report.Outcomes = append(report.Outcomes, ev.Outcomes...)
	report.Actions = ev.Results()

	if reply, ok := firstAutoReply(report.Actions); ok {
		report.ReplyScheduled = c.scheduleReply(msg, reply)
	}

	slog.Debug("message processed",
		"chat", string(msg.ChatKey()),
		"message_id", string(msg.ID),
		"sentiment", string(sentiment.Sentiment),
		"triggered", report.Triggered(),
		"failed", report.Failed(),
	)
	c.sink.Publish(ctx, report)
	return report, nil
}

// ProcessRun adapts HandleMessage to the gateway queue.
func (c *Coordinator) ProcessRun(run *gateway.Run) error {
	ctx := run.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := c.HandleMessage(ctx, run.Message)
	return err
}

func firstAutoReply(results []workflow.TriggeredActionResult) (workflow.AutoReplyResult, bool) {
	for _, r := range results {
		if reply, ok := r.Result.(workflow.AutoReplyResult); ok {
			return reply, true
		}
	}
	return workflow.AutoReplyResult{}, false
}

func (c *Coordinator) scheduleReply(msg *types.Message, reply workflow.AutoReplyResult) bool {
	if c.sender == nil {
		slog.Warn("auto-reply dropped, no sender configured", "chat", string(msg.ChatKey()))
		return false
	}
	chat := types.NewChatKey(reply.Platform, reply.ChatID)

	// The wait group slot is taken under c.mu so Close never races an Add.
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return false
	}
	conv := c.openLocked(chat)
	c.sends.Add(1)
	c.mu.Unlock()

	scheduled := conv.schedule(msg.ID, c.replyDelay, func(ctx context.Context) {
		c.sendReply(ctx, chat, reply.Message)
	}, c.sends.Done)
	if !scheduled {
		c.sends.Done()
	}
	return scheduled
}

func (c *Coordinator) sendReply(ctx context.Context, chat types.ChatKey, text string) {
	err := c.retry.Execute(ctx, func(ctx context.Context) error {
		return c.sender.Send(ctx, chat, text)
	})
	if c.onReply != nil {
		c.onReply(chat, text, err)
	}
	if err != nil {
		slog.Error("auto-reply delivery failed", "chat", string(chat), "error", err)
		return
	}
	slog.Info("auto-reply sent", "chat", string(chat))

	if c.history != nil {
		c.history.Append(&types.Message{
			ID:        types.NewMessageID(),
			ChatID:    chat.ChatID(),
			Platform:  chat.Platform(),
			Type:      types.MessageTypeText,
			Content:   text,
			Sender:    "me",
			Timestamp: time.Now(),
			IsOwn:     true,
		})
	}
}

func (c *Coordinator) openLocked(chat types.ChatKey) *Conversation {
	conv, ok := c.conversations[chat]
	if !ok {
		conv = newConversation(c.ctx, chat)
		c.conversations[chat] = conv
	}
	return conv
}

// Conversation returns the open conversation for chat, if any.
func (c *Coordinator) Conversation(chat types.ChatKey) (*Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.conversations[chat]
	return conv, ok
}

// CloseConversation cancels every pending auto-reply of chat. A later
// message in the same chat opens a fresh conversation. It reports whether
// a conversation was open.
func (c *Coordinator) CloseConversation(chat types.ChatKey) bool {
	c.mu.Lock()
	conv, ok := c.conversations[chat]
	delete(c.conversations, chat)
	c.mu.Unlock()
	if !ok {
		return false
	}
	conv.close()
	slog.Debug("conversation closed", "chat", string(chat))
	return true
}

// Close cancels all conversations and waits for replies already being
// delivered.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.cancel()
	convs := c.conversations
	c.conversations = make(map[types.ChatKey]*Conversation)
	c.mu.Unlock()

	for _, conv := range convs {
		conv.close()
	}
	c.sends.Wait()
}
