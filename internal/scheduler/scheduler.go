// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Kind selects what a job does when it fires.
type Kind string

const (
	KindWorkflowStats Kind = "workflow_stats"
	KindActionDigest  Kind = "action_digest"
)

// Job is one configured cron entry.
type Job struct {
	Name     string `json:"name" yaml:"name"`
	Schedule string `json:"schedule" yaml:"schedule"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	// Chat is the chat key an action_digest reads from and reports to.
	Chat     string `json:"chat,omitempty" yaml:"chat,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Handler runs a fired job.
type Handler func(ctx context.Context, job Job) error

// Scheduler evaluates cron expressions for the configured jobs and dispatches
// each firing to the handler registered for the job's kind.
type Scheduler struct {
	mu       sync.Mutex
	jobs     []Job
	handlers map[Kind]Handler
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler for jobs. Handlers are attached with Handle.
func New(jobs []Job) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		handlers: make(map[Kind]Handler),
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Handle registers the handler for a job kind.
func (s *Scheduler) Handle(kind Kind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

// Validate checks a job's schedule and kind without registering it.
func Validate(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if _, err := cronParser.Parse(job.Schedule); err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", job.Name, job.Schedule, err)
	}
	switch job.Kind {
	case KindWorkflowStats:
	case KindActionDigest:
		if job.Chat == "" {
			return fmt.Errorf("job %s: action_digest needs a chat", job.Name)
		}
	default:
		return fmt.Errorf("job %s: unknown kind %q", job.Name, job.Kind)
	}
	return nil
}

// Start registers every enabled, valid job and starts the cron ticker.
// Invalid jobs are logged and skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		if job.Disabled {
			continue
		}
		if err := Validate(job); err != nil {
			slog.Error("invalid scheduled job", "name", job.Name, "error", err)
			continue
		}
		handler, ok := s.handlers[job.Kind]
		if !ok {
			slog.Warn("no handler for job kind", "name", job.Name, "kind", job.Kind)
			continue
		}

		job := job
		runCtx := s.ctx
		if _, err := s.cron.AddFunc(job.Schedule, func() {
			slog.Info("cron firing job", "name", job.Name, "kind", job.Kind)
			if err := handler(runCtx, job); err != nil {
				slog.Error("scheduled job failed", "name", job.Name, "error", err)
			}
		}); err != nil {
			slog.Error("invalid cron schedule", "name", job.Name, "schedule", job.Schedule, "error", err)
			continue
		}
		slog.Info("scheduled job", "name", job.Name, "schedule", job.Schedule, "kind", job.Kind)
	}

	s.cron.Start()
	return nil
}

// Entries reports how many jobs are registered with the ticker.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cron.Entries())
}

// Reload stops the existing cron and starts again with jobs.
func (s *Scheduler) Reload(ctx context.Context, jobs []Job) error {
	s.Stop()
	s.mu.Lock()
	s.jobs = jobs
	s.cron = cron.New(cron.WithParser(cronParser))
	s.mu.Unlock()
	return s.Start(ctx)
}

// Stop stops the cron ticker and cancels running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-c.Stop().Done()
}
