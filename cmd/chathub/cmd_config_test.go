package main

import (
	"strings"
	"testing"

	"github.com/user/chathub/internal/config"
)

func TestJobProblems(t *testing.T) {
	jobs := []config.Job{
		{Name: "stats", Schedule: "@hourly", Kind: "workflow_stats"},
		{Name: "digest", Schedule: "0 9 * * *", Kind: "action_digest"},
		{Name: "broken", Schedule: "every tuesday", Kind: "workflow_stats"},
	}
	problems := jobProblems(jobs)
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %v", problems)
	}
	if !strings.Contains(problems[0], "digest") || !strings.Contains(problems[0], "needs a chat") {
		t.Errorf("unexpected first problem %q", problems[0])
	}
	if !strings.Contains(problems[1], "invalid schedule") {
		t.Errorf("unexpected second problem %q", problems[1])
	}
}
