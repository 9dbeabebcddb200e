package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

// Report is what the UI layer sees for one processed message.
type Report struct {
	Message        *types.Message                   `json:"message"`
	Sentiment      *analysis.SentimentResult        `json:"sentiment,omitempty"`
	Outcomes       []workflow.Outcome               `json:"outcomes"`
	Actions        []workflow.TriggeredActionResult `json:"actions"`
	ReplyScheduled bool                             `json:"replyScheduled"`
	At             time.Time                        `json:"at"`
}

// Triggered counts the workflows that fired without error.
func (r *Report) Triggered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Triggered && !o.Failed() {
			n++
		}
	}
	return n
}

// Failed counts the workflows that failed.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Summary renders the short status line shown next to a message.
func (r *Report) Summary() string {
	n := r.Triggered()
	if n == 1 {
		return "1 workflow triggered"
	}
	return fmt.Sprintf("%d workflows triggered", n)
}

// Sink receives every report of an analysed message.
type Sink interface {
	Publish(ctx context.Context, report *Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, report *Report)

func (f SinkFunc) Publish(ctx context.Context, report *Report) { f(ctx, report) }

type nopSink struct{}

func (nopSink) Publish(context.Context, *Report) {}
