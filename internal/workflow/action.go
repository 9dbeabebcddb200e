package workflow

import (
	"fmt"
	"time"

	"github.com/user/chathub/internal/types"
)

type ActionKind string

const (
	ActionAutoReply        ActionKind = "auto_reply"
	ActionSuggestReply     ActionKind = "suggest_reply"
	ActionNotification     ActionKind = "notification"
	ActionCategorize       ActionKind = "categorize"
	ActionForward          ActionKind = "forward"
	ActionScheduleReminder ActionKind = "schedule_reminder"
)

const (
	defaultPriority        = "normal"
	defaultReminderDelay   = time.Hour
	defaultReminderMessage = "Reminder: Follow up on this message"
)

// Action turns a matched message into a result record. Actions are pure:
// acting on the result is the caller's job. The set of implementations is
// closed to this package.
type Action interface {
	Kind() ActionKind
	// Execute returns false when the action has nothing to act on, e.g. an
	// auto-reply for a message without a chat.
	Execute(msg *types.Message, wc Context) (ActionResult, bool)
	isAction()
}

type AutoReply struct {
	Message string
}

type SuggestReply struct {
	Suggestions []string
}

type Notification struct {
	Priority string
	Sound    bool
}

type Categorize struct {
	Category string
}

type Forward struct {
	Destination string
}

type ScheduleReminder struct {
	Delay   time.Duration
	Message string
}

func (AutoReply) Kind() ActionKind        { return ActionAutoReply }
func (SuggestReply) Kind() ActionKind     { return ActionSuggestReply }
func (Notification) Kind() ActionKind     { return ActionNotification }
func (Categorize) Kind() ActionKind       { return ActionCategorize }
func (Forward) Kind() ActionKind          { return ActionForward }
func (ScheduleReminder) Kind() ActionKind { return ActionScheduleReminder }

func (AutoReply) isAction()        {}
func (SuggestReply) isAction()     {}
func (Notification) isAction()     {}
func (Categorize) isAction()       {}
func (Forward) isAction()          {}
func (ScheduleReminder) isAction() {}

// ActionResult is the payload produced by an executed action.
type ActionResult interface {
	isActionResult()
}

type AutoReplyResult struct {
	Message  string         `json:"message"`
	ChatID   string         `json:"chatId"`
	Platform types.Platform `json:"platform"`
}

type SuggestReplyResult struct {
	Suggestions []string `json:"suggestions"`
}

type NotificationResult struct {
	Priority string `json:"priority"`
	Sound    bool   `json:"sound"`
	Message  string `json:"message"`
}

type CategorizeResult struct {
	Category  string          `json:"category"`
	MessageID types.MessageID `json:"messageId"`
}

type ForwardResult struct {
	Destination string          `json:"destination"`
	MessageID   types.MessageID `json:"messageId"`
}

type ReminderResult struct {
	// Delay is in milliseconds.
	Delay   int64  `json:"delay"`
	Message string `json:"message"`
}

func (AutoReplyResult) isActionResult()    {}
func (SuggestReplyResult) isActionResult() {}
func (NotificationResult) isActionResult() {}
func (CategorizeResult) isActionResult()   {}
func (ForwardResult) isActionResult()      {}
func (ReminderResult) isActionResult()     {}

func (a AutoReply) Execute(msg *types.Message, _ Context) (ActionResult, bool) {
	if msg.ChatID == "" {
		return nil, false
	}
	return AutoReplyResult{Message: a.Message, ChatID: msg.ChatID, Platform: msg.Platform}, true
}

func (a SuggestReply) Execute(_ *types.Message, _ Context) (ActionResult, bool) {
	return SuggestReplyResult{Suggestions: a.Suggestions}, true
}

func (a Notification) Execute(msg *types.Message, _ Context) (ActionResult, bool) {
	priority := a.Priority
	if priority == "" {
		priority = defaultPriority
	}
	return NotificationResult{
		Priority: priority,
		Sound:    a.Sound,
		Message:  fmt.Sprintf("New %s priority message from %s", priority, msg.Sender),
	}, true
}

func (a Categorize) Execute(msg *types.Message, _ Context) (ActionResult, bool) {
	return CategorizeResult{Category: a.Category, MessageID: msg.ID}, true
}

func (a Forward) Execute(msg *types.Message, _ Context) (ActionResult, bool) {
	if a.Destination == "" {
		return nil, false
	}
	return ForwardResult{Destination: a.Destination, MessageID: msg.ID}, true
}

func (a ScheduleReminder) Execute(_ *types.Message, _ Context) (ActionResult, bool) {
	delay := a.Delay
	if delay <= 0 {
		delay = defaultReminderDelay
	}
	message := a.Message
	if message == "" {
		message = defaultReminderMessage
	}
	return ReminderResult{Delay: delay.Milliseconds(), Message: message}, true
}

// TriggeredActionResult is one action result tagged with the workflow that
// produced it.
type TriggeredActionResult struct {
	WorkflowID   types.WorkflowID `json:"workflowId"`
	WorkflowName string           `json:"workflowName"`
	Action       ActionKind       `json:"action"`
	Result       ActionResult     `json:"result"`
}
