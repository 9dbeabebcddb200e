package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/chathub/internal/coordinator"
	"github.com/user/chathub/internal/types"
)

// MessageFunc feeds a message relayed through the channel into the
// pipeline.
type MessageFunc func(ctx context.Context, msg *types.Message) error

// Hub tracks chat rooms and the clients present in them. Room IDs are
// chat keys ("platform:chat").
type Hub struct {
	upgrader websocket.Upgrader

	onMessage   MessageFunc
	onRoomEmpty func(chat types.ChatKey)

	mu      sync.Mutex
	rooms   map[string]map[*client]*Participant
	clients map[*client]struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithMessageHandler routes send-message events into the pipeline.
func WithMessageHandler(fn MessageFunc) Option {
	return func(h *Hub) { h.onMessage = fn }
}

// WithRoomEmpty is called when the last participant leaves a room.
func WithRoomEmpty(fn func(chat types.ChatKey)) Option {
	return func(h *Hub) { h.onRoomEmpty = fn }
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		rooms:   make(map[string]map[*client]*Participant),
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("presence upgrade failed", "error", err)
		return
	}
	c := &client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]*Participant),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	c.readPump()
}

// Participants returns the participants of a room, sorted by user ID.
func (h *Hub) Participants(chatID string) []Participant {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.participantsLocked(chatID)
}

func (h *Hub) participantsLocked(chatID string) []Participant {
	out := []Participant{}
	seen := map[string]bool{}
	for _, p := range h.rooms[chatID] {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Publish implements coordinator.Sink by broadcasting the report to the
// message's room.
func (h *Hub) Publish(_ context.Context, report *coordinator.Report) {
	if report == nil || report.Message == nil {
		return
	}
	room := string(report.Message.ChatKey())
	frame, err := encode(EventWorkflowActions, report)
	if err != nil {
		slog.Error("encode workflow actions", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(room, frame, nil)
}

func (h *Hub) dispatch(c *client, env Envelope) {
	var err error
	switch env.Event {
	case EventJoinChat:
		var p joinChat
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = h.join(c, p)
		}
	case EventLeaveChat:
		var p leaveChat
		if err = json.Unmarshal(env.Data, &p); err == nil {
			h.leave(c, p.ChatID)
		}
	case EventUserTyping:
		var p userTyping
		if err = json.Unmarshal(env.Data, &p); err == nil {
			h.typing(c, p)
		}
	case EventGetParticipants:
		var p getParticipants
		if err = json.Unmarshal(env.Data, &p); err == nil {
			h.mu.Lock()
			list := participantsList{ChatID: p.ChatID, Participants: h.participantsLocked(p.ChatID)}
			h.mu.Unlock()
			h.reply(c, EventParticipantsList, list)
		}
	case EventSendMessage:
		var p ChatMessage
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = h.relay(c, p)
		}
	default:
		err = fmt.Errorf("unknown event %q", env.Event)
	}
	if err != nil {
		h.reply(c, EventError, errorEvent{Message: err.Error()})
	}
}

func validRoom(chatID string) error {
	platform, id, ok := strings.Cut(chatID, ":")
	if !ok || platform == "" || id == "" {
		return fmt.Errorf("chatId must look like platform:chat, got %q", chatID)
	}
	return nil
}

func (h *Hub) join(c *client, p joinChat) error {
	if err := validRoom(p.ChatID); err != nil {
		return err
	}
	if p.UserID == "" {
		return fmt.Errorf("userId is required")
	}

	h.mu.Lock()
	room, ok := h.rooms[p.ChatID]
	if !ok {
		room = make(map[*client]*Participant)
		h.rooms[p.ChatID] = room
	}
	participant := &Participant{UserID: p.UserID, Username: p.Username}
	room[c] = participant
	c.rooms[p.ChatID] = participant

	frame, _ := encode(EventUserJoined, userJoined{UserID: p.UserID, Username: p.Username})
	h.broadcastLocked(p.ChatID, frame, c)
	list := participantsList{ChatID: p.ChatID, Participants: h.participantsLocked(p.ChatID)}
	h.mu.Unlock()

	h.reply(c, EventParticipantsList, list)
	return nil
}

func (h *Hub) leave(c *client, chatID string) {
	h.mu.Lock()
	empty := h.leaveLocked(c, chatID)
	h.mu.Unlock()
	if empty && h.onRoomEmpty != nil {
		h.onRoomEmpty(types.ChatKey(chatID))
	}
}

// leaveLocked removes c from a room and reports whether the room is now
// empty.
func (h *Hub) leaveLocked(c *client, chatID string) bool {
	room, ok := h.rooms[chatID]
	if !ok {
		return false
	}
	p, present := room[c]
	if !present {
		return false
	}
	delete(room, c)
	delete(c.rooms, chatID)

	frame, _ := encode(EventUserLeft, userLeft{UserID: p.UserID, Username: p.Username})
	h.broadcastLocked(chatID, frame, c)

	if len(room) == 0 {
		delete(h.rooms, chatID)
		return true
	}
	return false
}

func (h *Hub) typing(c *client, p userTyping) {
	h.mu.Lock()
	defer h.mu.Unlock()
	participant, ok := c.rooms[p.ChatID]
	if !ok {
		return
	}
	participant.IsTyping = p.IsTyping
	frame, _ := encode(EventTypingStatus, typingStatus{UserID: participant.UserID, IsTyping: p.IsTyping})
	h.broadcastLocked(p.ChatID, frame, c)
}

func (h *Hub) relay(c *client, m ChatMessage) error {
	if err := validRoom(m.ChatID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}

	h.mu.Lock()
	if participant, ok := c.rooms[m.ChatID]; ok {
		participant.IsTyping = false
	}
	frame, _ := encode(EventReceiveMessage, m)
	h.broadcastLocked(m.ChatID, frame, c)
	h.mu.Unlock()

	if h.onMessage == nil {
		return nil
	}
	key := types.ChatKey(m.ChatID)
	sender := m.Username
	if sender == "" {
		sender = m.UserID
	}
	msg := &types.Message{
		ID:        types.NewMessageID(),
		ChatID:    key.ChatID(),
		Platform:  key.Platform(),
		Type:      types.MessageTypeText,
		Content:   m.Message,
		Sender:    sender,
		Timestamp: m.Timestamp,
		Metadata:  map[string]string{"user_id": m.UserID, "source": "presence"},
	}
	return h.onMessage(context.Background(), msg)
}

// disconnect removes c from every room it joined.
func (h *Hub) disconnect(c *client) {
	h.mu.Lock()
	var emptied []string
	for chatID := range c.rooms {
		if h.leaveLocked(c, chatID) {
			emptied = append(emptied, chatID)
		}
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	if h.onRoomEmpty != nil {
		for _, chatID := range emptied {
			h.onRoomEmpty(types.ChatKey(chatID))
		}
	}
}

// broadcastLocked queues frame for every client in the room except skip.
// Slow clients whose buffer is full lose the frame.
func (h *Hub) broadcastLocked(chatID string, frame []byte, skip *client) {
	for c := range h.rooms[chatID] {
		if c == skip {
			continue
		}
		h.queueLocked(c, frame)
	}
}

func (h *Hub) queueLocked(c *client, frame []byte) {
	if _, live := h.clients[c]; !live {
		return
	}
	select {
	case c.send <- frame:
	default:
		slog.Warn("presence client too slow, dropping frame")
	}
}

func (h *Hub) reply(c *client, event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queueLocked(c, frame)
}
