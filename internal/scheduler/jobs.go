package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

// DigestWindow is how many recent messages an action digest reads.
const DigestWindow = 50

// StatsJob logs the workflow store's aggregate statistics.
func StatsJob(store *workflow.Store) Handler {
	return func(ctx context.Context, job Job) error {
		st := store.Stats()
		slog.Info("workflow stats",
			"job", job.Name,
			"total", st.TotalWorkflows,
			"enabled", st.EnabledWorkflows,
			"triggers", st.TotalTriggers,
			"most_triggered", st.MostTriggered,
		)
		return nil
	}
}

// ActionExtractor is the part of the analysis provider the digest needs.
type ActionExtractor interface {
	ExtractActionItems(ctx context.Context, messages []*types.Message) []analysis.ActionItem
}

// DigestJob extracts action items from the job chat's recent history and
// sends them back to the chat. Nothing is sent when there are none.
func DigestJob(extractor ActionExtractor, history types.HistoryStore, sender types.Sender) Handler {
	return func(ctx context.Context, job Job) error {
		chat := types.ChatKey(job.Chat)
		msgs := history.Recent(chat, DigestWindow)
		if len(msgs) == 0 {
			return nil
		}
		items := extractor.ExtractActionItems(ctx, msgs)
		if len(items) == 0 {
			slog.Debug("no action items for digest", "job", job.Name, "chat", chat)
			return nil
		}
		if err := sender.Send(ctx, chat, FormatDigest(items)); err != nil {
			return fmt.Errorf("send digest to %s: %w", chat, err)
		}
		slog.Info("action digest sent", "job", job.Name, "chat", chat, "items", len(items))
		return nil
	}
}

// FormatDigest renders action items as a plain-text list.
func FormatDigest(items []analysis.ActionItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action items (%d):\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "- [%s] %s", it.Priority, it.Content)
		if it.Responsible != "" {
			fmt.Fprintf(&b, " (%s)", it.Responsible)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
