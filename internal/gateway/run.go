package gateway

import (
	"context"
	"time"

	"github.com/user/chathub/internal/types"
)

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run tracks the processing of one inbound message on its chat lane.
type Run struct {
	ID         types.RunID
	ChatKey    types.ChatKey
	Message    *types.Message
	Status     RunStatus
	Attempts   int
	CreatedAt  time.Time
	StartedAt  *time.Time
	EndedAt    *time.Time
	Error      error
	OnComplete func(run *Run)

	// Ctx is set by the queue before the processor is called.
	Ctx context.Context
}

// NewRun creates a Run in the Queued state for msg.
func NewRun(msg *types.Message) *Run {
	return &Run{
		ID:        types.NewRunID(),
		ChatKey:   msg.ChatKey(),
		Message:   msg,
		Status:    RunStatusQueued,
		CreatedAt: time.Now(),
	}
}

func (r *Run) start() {
	now := time.Now()
	r.StartedAt = &now
	r.Status = RunStatusRunning
	r.Attempts++
}

func (r *Run) finish(err error) {
	now := time.Now()
	r.EndedAt = &now
	r.Error = err
	if err != nil {
		r.Status = RunStatusFailed
	} else {
		r.Status = RunStatusComplete
	}
}
