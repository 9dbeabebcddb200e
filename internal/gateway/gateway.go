package gateway

import (
	"context"
	"fmt"

	"github.com/user/chathub/internal/types"
)

// Gateway turns inbound chat messages into runs on per-chat lanes.
type Gateway struct {
	Queue *Queue
	Retry *RetryPolicy
}

// New creates a Gateway with the given concurrency limit for simultaneous
// run processing.
func New(maxConcurrent ...int64) *Gateway {
	var concurrency int64 = 2
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	return &Gateway{
		Queue: NewQueue(concurrency),
		Retry: DefaultRetryPolicy(),
	}
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.Queue.Start(ctx)
}

// Stop stops the queue and waits for outstanding work to finish.
func (g *Gateway) Stop() {
	g.Queue.Stop()
}

// SetProcessor installs the function that handles each run.
func (g *Gateway) SetProcessor(fn func(*Run) error) {
	g.Queue.SetProcessor(fn)
}

// RunOption configures optional behavior on a Run.
type RunOption func(*Run)

// WithOnComplete sets a callback invoked after the run has been processed,
// whether it succeeded or not.
func WithOnComplete(fn func(*Run)) RunOption {
	return func(r *Run) { r.OnComplete = fn }
}

// HandleInbound validates msg, wraps it in a Run and enqueues it on the
// lane of its chat.
func (g *Gateway) HandleInbound(_ context.Context, msg *types.Message, opts ...RunOption) (*Run, error) {
	if msg == nil {
		return nil, fmt.Errorf("nil message")
	}
	if msg.ChatID == "" {
		return nil, fmt.Errorf("message %s has no chat", msg.ID)
	}
	if msg.ID == "" {
		msg.ID = types.NewMessageID()
	}
	run := NewRun(msg)
	for _, opt := range opts {
		opt(run)
	}
	if err := g.Queue.Enqueue(run); err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	return run, nil
}
