// Package notify fans coordinator reports out to the UI layer.
package notify

import (
	"context"
	"log/slog"

	"github.com/user/chathub/internal/coordinator"
	"github.com/user/chathub/internal/workflow"
)

// Multi publishes every report to each sink in order.
type Multi []coordinator.Sink

func (m Multi) Publish(ctx context.Context, report *coordinator.Report) {
	for _, s := range m {
		s.Publish(ctx, report)
	}
}

// LogSink writes one structured log line per triggered action.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Publish(_ context.Context, report *coordinator.Report) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chat := string(report.Message.ChatKey())

	for _, o := range report.Outcomes {
		if o.Failed() {
			logger.Warn("workflow failed", "chat", chat, "workflow_id", string(o.WorkflowID), "error", o.Err)
		}
	}
	if len(report.Actions) == 0 {
		return
	}
	logger.Info(report.Summary(), "chat", chat, "message_id", string(report.Message.ID), "actions", len(report.Actions))

	for _, a := range report.Actions {
		attrs := []any{"chat", chat, "workflow_id", string(a.WorkflowID), "action", string(a.Action)}
		switch r := a.Result.(type) {
		case workflow.NotificationResult:
			level := slog.LevelInfo
			if r.Priority == "high" {
				level = slog.LevelWarn
			}
			logger.Log(context.Background(), level, r.Message, attrs...)
		case workflow.CategorizeResult:
			logger.Info("message categorized", append(attrs, "category", r.Category)...)
		case workflow.ForwardResult:
			logger.Info("message forwarded", append(attrs, "destination", r.Destination)...)
		case workflow.ReminderResult:
			logger.Info("reminder requested", append(attrs, "delay_ms", r.Delay, "reminder", r.Message)...)
		case workflow.SuggestReplyResult:
			logger.Debug("replies suggested", append(attrs, "count", len(r.Suggestions))...)
		case workflow.AutoReplyResult:
			logger.Debug("auto-reply produced", attrs...)
		}
	}
}
