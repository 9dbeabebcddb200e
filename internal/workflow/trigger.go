package workflow

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/types"
)

// Context is side-channel information computed before workflows run.
type Context struct {
	Sentiment *analysis.SentimentResult
}

type TriggerKind string

const (
	TriggerIncomingMessage TriggerKind = "incoming_message"
	TriggerKeywordMatch    TriggerKind = "keyword_match"
	TriggerSenderMatch     TriggerKind = "sender_match"
	TriggerPlatformMatch   TriggerKind = "platform_match"
	TriggerTimeBased       TriggerKind = "time_based"
	TriggerSentimentMatch  TriggerKind = "sentiment_match"
)

// Trigger decides whether a workflow fires for a message. The set of
// implementations is closed to this package.
type Trigger interface {
	Kind() TriggerKind
	Matches(msg *types.Message, wc Context, now time.Time) (bool, error)
	isTrigger()
}

// IncomingMessage fires for every message not authored by the local user.
type IncomingMessage struct{}

// KeywordMatch fires when the content contains any keyword, ignoring case.
type KeywordMatch struct {
	Keywords []string
}

// SenderMatch fires when the sender is listed.
type SenderMatch struct {
	Senders []string
}

// PlatformMatch fires when the message came from a listed platform.
type PlatformMatch struct {
	Platforms []types.Platform
}

// TimeBased fires when the local hour is within [StartHour, EndHour].
type TimeBased struct {
	StartHour int
	EndHour   int
}

// SentimentMatch fires when the computed sentiment label is listed. It never
// fires without a sentiment in the context.
type SentimentMatch struct {
	Sentiments []analysis.Sentiment
}

func (IncomingMessage) Kind() TriggerKind { return TriggerIncomingMessage }
func (KeywordMatch) Kind() TriggerKind    { return TriggerKeywordMatch }
func (SenderMatch) Kind() TriggerKind     { return TriggerSenderMatch }
func (PlatformMatch) Kind() TriggerKind   { return TriggerPlatformMatch }
func (TimeBased) Kind() TriggerKind       { return TriggerTimeBased }
func (SentimentMatch) Kind() TriggerKind  { return TriggerSentimentMatch }

func (IncomingMessage) isTrigger() {}
func (KeywordMatch) isTrigger()    {}
func (SenderMatch) isTrigger()     {}
func (PlatformMatch) isTrigger()   {}
func (TimeBased) isTrigger()       {}
func (SentimentMatch) isTrigger()  {}

func (IncomingMessage) Matches(msg *types.Message, _ Context, _ time.Time) (bool, error) {
	return !msg.IsOwn, nil
}

func (t KeywordMatch) Matches(msg *types.Message, _ Context, _ time.Time) (bool, error) {
	content := strings.ToLower(msg.Content)
	for _, k := range t.Keywords {
		if strings.Contains(content, strings.ToLower(k)) {
			return true, nil
		}
	}
	return false, nil
}

func (t SenderMatch) Matches(msg *types.Message, _ Context, _ time.Time) (bool, error) {
	return slices.Contains(t.Senders, msg.Sender), nil
}

func (t PlatformMatch) Matches(msg *types.Message, _ Context, _ time.Time) (bool, error) {
	return slices.Contains(t.Platforms, msg.Platform), nil
}

func (t TimeBased) Matches(_ *types.Message, _ Context, now time.Time) (bool, error) {
	if t.StartHour < 0 || t.StartHour > 23 || t.EndHour < 0 || t.EndHour > 23 {
		return false, fmt.Errorf("hour range %d-%d outside 0-23", t.StartHour, t.EndHour)
	}
	hour := now.Hour()
	return hour >= t.StartHour && hour <= t.EndHour, nil
}

func (t SentimentMatch) Matches(_ *types.Message, wc Context, _ time.Time) (bool, error) {
	if wc.Sentiment == nil {
		return false, nil
	}
	return slices.Contains(t.Sentiments, wc.Sentiment.Sentiment), nil
}
