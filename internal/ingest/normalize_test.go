package ingest

import (
	"strings"
	"testing"

	"github.com/user/chathub/internal/types"
)

func TestNormalizeHTML(t *testing.T) {
	msg := &types.Message{Content: "<p>Please <strong>review</strong> the project update</p>"}
	Normalize(msg)
	if strings.Contains(msg.Content, "<") {
		t.Errorf("expected tags removed, got %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "**review**") {
		t.Errorf("expected markdown emphasis, got %q", msg.Content)
	}
	if msg.Metadata["format"] != "markdown" {
		t.Errorf("expected format metadata, got %v", msg.Metadata)
	}
}

func TestNormalizePlainTextUntouched(t *testing.T) {
	msg := &types.Message{Content: "a < b and c > d"}
	Normalize(msg)
	if msg.Content != "a < b and c > d" {
		t.Errorf("expected content unchanged, got %q", msg.Content)
	}
	if msg.Metadata != nil {
		t.Errorf("expected no metadata, got %v", msg.Metadata)
	}
}
