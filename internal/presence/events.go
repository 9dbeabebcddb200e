// Package presence runs the real-time presence and typing channel over
// WebSocket. Clients join chat rooms, see who else is there and who is
// typing, relay messages, and receive the workflow report of every
// message analysed in their rooms.
package presence

import (
	"encoding/json"
	"time"
)

// Client to server events.
const (
	EventJoinChat        = "join-chat"
	EventLeaveChat       = "leave-chat"
	EventUserTyping      = "user-typing"
	EventGetParticipants = "get-participants"
	EventSendMessage     = "send-message"
)

// Server to client events.
const (
	EventUserJoined       = "user-joined"
	EventUserLeft         = "user-left"
	EventTypingStatus     = "typing-status"
	EventParticipantsList = "participants-list"
	EventReceiveMessage   = "receive-message"
	EventWorkflowActions  = "workflow-actions"
	EventError            = "error"
)

// Envelope frames every event on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Participant is one user present in a chat room.
type Participant struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type joinChat struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type leaveChat struct {
	ChatID string `json:"chatId"`
}

type userTyping struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type getParticipants struct {
	ChatID string `json:"chatId"`
}

// ChatMessage is the payload of send-message and receive-message.
type ChatMessage struct {
	ChatID    string    `json:"chatId"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

type userJoined struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type userLeft struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type typingStatus struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type participantsList struct {
	ChatID       string        `json:"chatId"`
	Participants []Participant `json:"participants"`
}

type errorEvent struct {
	Message string `json:"message"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
