package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/coordinator"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

func TestPublishCountsOutcomes(t *testing.T) {
	m := New()
	m.Publish(context.Background(), &coordinator.Report{
		Message:   &types.Message{Platform: types.PlatformTeams},
		Sentiment: &analysis.SentimentResult{Sentiment: analysis.Negative},
		Outcomes: []workflow.Outcome{
			{WorkflowID: "a", Triggered: true},
			{WorkflowID: "b", Err: errors.New("x")},
			{WorkflowID: "c"},
		},
		Actions: []workflow.TriggeredActionResult{
			{WorkflowID: "a", Action: workflow.ActionNotification},
			{WorkflowID: "a", Action: workflow.ActionCategorize},
		},
	})

	if got := testutil.ToFloat64(m.messages.WithLabelValues("teams")); got != 1 {
		t.Errorf("expected 1 message, got %v", got)
	}
	if got := testutil.ToFloat64(m.sentiment.WithLabelValues("negative")); got != 1 {
		t.Errorf("expected 1 negative, got %v", got)
	}
	if got := testutil.ToFloat64(m.triggers.WithLabelValues("a")); got != 1 {
		t.Errorf("expected 1 trigger for a, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("b")); got != 1 {
		t.Errorf("expected 1 failure for b, got %v", got)
	}
	if got := testutil.CollectAndCount(m.triggers); got != 1 {
		t.Errorf("expected only workflow a in triggers, got %d series", got)
	}
	if got := testutil.ToFloat64(m.actions.WithLabelValues("categorize")); got != 1 {
		t.Errorf("expected 1 categorize action, got %v", got)
	}
}

func TestObservers(t *testing.T) {
	m := New()
	m.ObserveAnalysis(analysis.OpSentiment, analysis.PathFallback)
	m.ObserveAnalysis(analysis.OpSentiment, analysis.PathFallback)
	m.ObserveReply("telegram:1", "hi", nil)
	m.ObserveReply("telegram:1", "hi", errors.New("down"))

	if got := testutil.ToFloat64(m.analysis.WithLabelValues(string(analysis.OpSentiment), string(analysis.PathFallback))); got != 2 {
		t.Errorf("expected 2 fallback sentiment calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.replies.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected 1 failed reply, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Gauge("queue_lanes", "Chats with a lane.", func() float64 { return 3 })
	m.ObserveReply("slack:x", "hi", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{"chathub_queue_lanes 3", `chathub_auto_replies_total{result="sent"} 1`, "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition", want)
		}
	}
}
