package analysis

import (
	"context"
	"testing"

	"github.com/user/chathub/internal/types"
)

func TestFallbackSentimentPositive(t *testing.T) {
	a := New(nil)
	if a.IsAvailable() {
		t.Fatal("expected analyzer without provider to be unavailable")
	}

	got := a.AnalyzeSentiment(context.Background(), "This is great, thanks!")
	if got.Sentiment != Positive {
		t.Errorf("expected positive, got %s", got.Sentiment)
	}
	if got.Confidence < 0.5 {
		t.Errorf("expected confidence >= 0.5, got %v", got.Confidence)
	}
}

func TestFallbackSentimentNegative(t *testing.T) {
	got := New(nil).AnalyzeSentiment(context.Background(), "This is a terrible problem")
	if got.Sentiment != Negative {
		t.Errorf("expected negative, got %s", got.Sentiment)
	}
	if got.Confidence < 0.69 || got.Confidence > 0.71 {
		t.Errorf("expected confidence 0.7, got %v", got.Confidence)
	}
}

func TestFallbackSentimentNeutralAndCap(t *testing.T) {
	got := fallbackSentiment("see you at noon")
	if got.Sentiment != Neutral || got.Confidence != 0.5 {
		t.Errorf("expected neutral/0.5, got %+v", got)
	}

	got = fallbackSentiment("good bad")
	if got.Sentiment != Neutral {
		t.Errorf("expected tie to be neutral, got %s", got.Sentiment)
	}

	got = fallbackSentiment("good great excellent awesome love happy")
	if got.Confidence != 0.8 {
		t.Errorf("expected confidence capped at 0.8, got %v", got.Confidence)
	}
}

func TestFallbackReplies(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	got := a.GenerateSmartReplies(ctx, nil, "Thank you so much")
	if len(got) != 3 || got[0] != "You're welcome!" {
		t.Errorf("unexpected gratitude replies: %v", got)
	}

	got = a.GenerateSmartReplies(ctx, nil, "Can you HELP me?")
	if len(got) != 3 || got[0] != "I'd be happy to help!" {
		t.Errorf("unexpected help replies: %v", got)
	}

	got = a.GenerateSmartReplies(ctx, nil, "see you later")
	if len(got) != 3 || got[2] != "Sounds good!" {
		t.Errorf("unexpected generic replies: %v", got)
	}
}

func TestFallbackCategoryOrder(t *testing.T) {
	a := New(nil)
	ctx := context.Background()

	cases := map[string]CategoryResult{
		"URGENT: meeting moved":  {CategoryUrgent, 0.5},
		"can we schedule a call": {CategoryMeeting, 0.4},
		"the project deadline":   {CategoryWork, 0.4},
		"I have a question":      {CategorySupport, 0.4},
		"lovely weather today":   {CategoryGeneral, 0.3},
	}
	for text, want := range cases {
		got := a.CategorizeMessage(ctx, text)
		if got != want {
			t.Errorf("%q: expected %+v, got %+v", text, want, got)
		}
	}
}

func TestFallbackActionItems(t *testing.T) {
	a := New(nil)
	items := a.ExtractActionItems(context.Background(), []*types.Message{
		{ID: "m1", Content: "Please finish the report by Friday"},
	})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Responsible != "Unknown" {
		t.Errorf("expected responsible Unknown, got %q", items[0].Responsible)
	}
	if items[0].Priority != PriorityMedium {
		t.Errorf("expected medium priority, got %s", items[0].Priority)
	}
	if items[0].ID != "action-0-m1" {
		t.Errorf("expected id action-0-m1, got %q", items[0].ID)
	}
}

func TestFallbackActionItemsUrgentAndSkipped(t *testing.T) {
	items := fallbackActionItems([]*types.Message{
		{ID: "a", Content: "hello there"},
		{ID: "b", Content: "URGENT: deliver the build"},
	})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Priority != PriorityHigh {
		t.Errorf("expected high priority, got %s", items[0].Priority)
	}
	if items[0].ID != "action-1-b" {
		t.Errorf("expected index of original message in id, got %q", items[0].ID)
	}

	if got := fallbackActionItems(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}
