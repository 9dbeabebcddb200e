package presence

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/chathub/internal/coordinator"
	"github.com/user/chathub/internal/types"
)

const room = "telegram:42"

func startHub(t *testing.T, opts ...Option) (*Hub, string) {
	t.Helper()
	hub := NewHub(opts...)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, _ := json.Marshal(data)
	if err := conn.WriteJSON(Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

// expect reads frames until one with the given event arrives.
func expect(t *testing.T, conn *websocket.Conn, event string, into any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if env.Event != event {
			continue
		}
		if into != nil {
			if err := json.Unmarshal(env.Data, into); err != nil {
				t.Fatalf("decode %s: %v", event, err)
			}
		}
		return
	}
}

func join(t *testing.T, conn *websocket.Conn, userID, username string) []Participant {
	t.Helper()
	send(t, conn, EventJoinChat, joinChat{ChatID: room, UserID: userID, Username: username})
	var list participantsList
	expect(t, conn, EventParticipantsList, &list)
	return list.Participants
}

func TestJoinBroadcastsAndListsParticipants(t *testing.T) {
	_, url := startHub(t)
	alice := dial(t, url)
	bob := dial(t, url)

	if got := join(t, alice, "u1", "alice"); len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("alice participants = %+v", got)
	}
	got := join(t, bob, "u2", "bob")
	if len(got) != 2 || got[0].UserID != "u1" || got[1].UserID != "u2" {
		t.Fatalf("bob participants = %+v", got)
	}

	var joined userJoined
	expect(t, alice, EventUserJoined, &joined)
	if joined.UserID != "u2" || joined.Username != "bob" {
		t.Errorf("user-joined = %+v", joined)
	}
}

func TestTypingStatus(t *testing.T) {
	hub, url := startHub(t)
	alice := dial(t, url)
	bob := dial(t, url)
	join(t, alice, "u1", "alice")
	join(t, bob, "u2", "bob")

	send(t, bob, EventUserTyping, userTyping{ChatID: room, UserID: "u2", IsTyping: true})
	var status typingStatus
	expect(t, alice, EventTypingStatus, &status)
	if status.UserID != "u2" || !status.IsTyping {
		t.Errorf("typing-status = %+v", status)
	}

	var typing bool
	for _, p := range hub.Participants(room) {
		if p.UserID == "u2" {
			typing = p.IsTyping
		}
	}
	if !typing {
		t.Error("participant should be marked typing")
	}
}

func TestSendMessageRelaysAndFeedsPipeline(t *testing.T) {
	var mu sync.Mutex
	var fed []*types.Message
	_, url := startHub(t, WithMessageHandler(func(ctx context.Context, msg *types.Message) error {
		mu.Lock()
		fed = append(fed, msg)
		mu.Unlock()
		return nil
	}))
	alice := dial(t, url)
	bob := dial(t, url)
	join(t, alice, "u1", "alice")
	join(t, bob, "u2", "bob")

	send(t, alice, EventSendMessage, ChatMessage{ChatID: room, Message: "hello", UserID: "u1", Username: "alice"})
	var got ChatMessage
	expect(t, bob, EventReceiveMessage, &got)
	if got.Message != "hello" || got.Username != "alice" {
		t.Errorf("receive-message = %+v", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(fed)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(fed) != 1 {
		t.Fatalf("fed %d messages, want 1", len(fed))
	}
	msg := fed[0]
	if msg.Platform != types.PlatformTelegram || msg.ChatID != "42" || msg.Sender != "alice" || msg.IsOwn {
		t.Errorf("pipeline message = %+v", msg)
	}
}

func TestLeaveEmptiesRoom(t *testing.T) {
	emptied := make(chan types.ChatKey, 1)
	hub, url := startHub(t, WithRoomEmpty(func(chat types.ChatKey) { emptied <- chat }))
	alice := dial(t, url)
	bob := dial(t, url)
	join(t, alice, "u1", "alice")
	join(t, bob, "u2", "bob")

	send(t, bob, EventLeaveChat, leaveChat{ChatID: room})
	var left userLeft
	expect(t, alice, EventUserLeft, &left)
	if left.UserID != "u2" {
		t.Errorf("user-left = %+v", left)
	}

	// Closing the last connection empties the room.
	alice.Close()
	select {
	case chat := <-emptied:
		if chat != room {
			t.Errorf("emptied %q", chat)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("room never emptied")
	}
	if n := len(hub.Participants(room)); n != 0 {
		t.Errorf("participants = %d, want 0", n)
	}
}

func TestInvalidEventsReportErrors(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)

	send(t, conn, "bogus", struct{}{})
	var e errorEvent
	expect(t, conn, EventError, &e)
	if !strings.Contains(e.Message, "bogus") {
		t.Errorf("error = %q", e.Message)
	}

	send(t, conn, EventJoinChat, joinChat{ChatID: "nocolon", UserID: "u1"})
	expect(t, conn, EventError, &e)
	if !strings.Contains(e.Message, "platform:chat") {
		t.Errorf("error = %q", e.Message)
	}
}

func TestPublishBroadcastsReport(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	join(t, conn, "u1", "alice")

	hub.Publish(context.Background(), &coordinator.Report{
		Message: &types.Message{ID: "m1", Platform: types.PlatformTelegram, ChatID: "42", Content: "hi"},
	})

	var report struct {
		Message types.Message `json:"message"`
	}
	expect(t, conn, EventWorkflowActions, &report)
	if report.Message.ID != "m1" {
		t.Errorf("report message = %+v", report.Message)
	}
}
