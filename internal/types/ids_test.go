// internal/types/ids_test.go
package types

import (
	"testing"
)

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()
	if id == "" {
		t.Error("expected non-empty MessageID")
	}
	if len(string(id)) != 36 {
		t.Errorf("expected UUID format, got %s", id)
	}
}

func TestChatKeyFormat(t *testing.T) {
	key := NewChatKey(PlatformTelegram, "-100123")
	expected := ChatKey("telegram:-100123")
	if key != expected {
		t.Errorf("expected %s, got %s", expected, key)
	}
	if key.Platform() != PlatformTelegram {
		t.Errorf("expected platform telegram, got %s", key.Platform())
	}
	if key.ChatID() != "-100123" {
		t.Errorf("expected chat id -100123, got %s", key.ChatID())
	}
}

func TestChatKeyWithColonInID(t *testing.T) {
	key := NewChatKey(PlatformSlack, "T01:C02")
	if key.Platform() != PlatformSlack {
		t.Errorf("expected platform slack, got %s", key.Platform())
	}
	if key.ChatID() != "T01:C02" {
		t.Errorf("expected chat id T01:C02, got %s", key.ChatID())
	}
}

func TestChatKeyWithoutPlatform(t *testing.T) {
	key := ChatKey("orphan")
	if key.ChatID() != "orphan" {
		t.Errorf("expected chat id orphan, got %s", key.ChatID())
	}
}
