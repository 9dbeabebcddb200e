package context

import (
	"fmt"
	"testing"
)

func TestNewEngine(t *testing.T) {
	e, err := New("gpt-4", 128000, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if e == nil {
		t.Fatal("expected non-nil engine")
	}
}

func TestNewEngineUnknownModel(t *testing.T) {
	e, err := New("gpt-4.1-mini-unknown", 8000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if e.CountTokens("hello world") == 0 {
		t.Error("expected non-zero token count")
	}
}

func TestFitTranscriptKeepsEverythingWhenSmall(t *testing.T) {
	e, err := New("gpt-4", 128000, 4096)
	if err != nil {
		t.Fatal(err)
	}

	lines := []string{"alice: hi", "bob: hello", "alice: how are you?"}
	got := e.FitTranscript("prompt", lines)
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	if got[0] != "alice: hi" {
		t.Errorf("expected chronological order, got %q first", got[0])
	}
}

func TestFitTranscriptDropsOldest(t *testing.T) {
	e, err := New("gpt-4", 300, 100)
	if err != nil {
		t.Fatal(err)
	}

	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("user%d: message number %d about the project", i, i))
	}

	got := e.FitTranscript("", lines)
	if len(got) == 0 {
		t.Fatal("expected some lines to fit")
	}
	if len(got) >= len(lines) {
		t.Fatalf("expected transcript to be trimmed, got %d lines", len(got))
	}
	if got[len(got)-1] != lines[len(lines)-1] {
		t.Errorf("expected newest line kept, got %q", got[len(got)-1])
	}
}

func TestFitTranscriptNoBudget(t *testing.T) {
	e, err := New("gpt-4", 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.FitTranscript("", []string{"a: b"}); got != nil {
		t.Errorf("expected nil when no budget remains, got %v", got)
	}
}
