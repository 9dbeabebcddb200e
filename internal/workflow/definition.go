package workflow

import (
	"fmt"
	"time"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/types"
)

// TriggerSpec is the declarative, tagged form of a Trigger as it appears in
// JSON request bodies and the YAML definitions file.
type TriggerSpec struct {
	Type       string   `json:"type" yaml:"type"`
	Keywords   []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Senders    []string `json:"senders,omitempty" yaml:"senders,omitempty"`
	Platforms  []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	StartHour  int      `json:"startHour,omitempty" yaml:"startHour,omitempty"`
	EndHour    int      `json:"endHour,omitempty" yaml:"endHour,omitempty"`
	Sentiments []string `json:"sentiments,omitempty" yaml:"sentiments,omitempty"`
}

// ActionSpec is the declarative, tagged form of an Action.
type ActionSpec struct {
	Type        string   `json:"type" yaml:"type"`
	Message     string   `json:"message,omitempty" yaml:"message,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Priority    string   `json:"priority,omitempty" yaml:"priority,omitempty"`
	Sound       bool     `json:"sound,omitempty" yaml:"sound,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Destination string   `json:"destination,omitempty" yaml:"destination,omitempty"`
	// Delay is in milliseconds.
	Delay int64 `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// Definition is a workflow candidate before it enters the Store.
type Definition struct {
	ID      types.WorkflowID `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string           `json:"name" yaml:"name"`
	Enabled *bool            `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Trigger *TriggerSpec     `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Actions []ActionSpec     `json:"actions" yaml:"actions"`
}

// Build returns the Trigger variant described by s.
func (s TriggerSpec) Build() (Trigger, error) {
	switch TriggerKind(s.Type) {
	case TriggerIncomingMessage:
		return IncomingMessage{}, nil
	case TriggerKeywordMatch:
		return KeywordMatch{Keywords: s.Keywords}, nil
	case TriggerSenderMatch:
		return SenderMatch{Senders: s.Senders}, nil
	case TriggerPlatformMatch:
		platforms := make([]types.Platform, len(s.Platforms))
		for i, p := range s.Platforms {
			platforms[i] = types.Platform(p)
		}
		return PlatformMatch{Platforms: platforms}, nil
	case TriggerTimeBased:
		return TimeBased{StartHour: s.StartHour, EndHour: s.EndHour}, nil
	case TriggerSentimentMatch:
		sentiments := make([]analysis.Sentiment, len(s.Sentiments))
		for i, v := range s.Sentiments {
			sentiments[i] = analysis.Sentiment(v)
		}
		return SentimentMatch{Sentiments: sentiments}, nil
	}
	return nil, fmt.Errorf("unknown trigger type: %q", s.Type)
}

// Build returns the Action variant described by s.
func (s ActionSpec) Build() (Action, error) {
	switch ActionKind(s.Type) {
	case ActionAutoReply:
		return AutoReply{Message: s.Message}, nil
	case ActionSuggestReply:
		return SuggestReply{Suggestions: s.Suggestions}, nil
	case ActionNotification:
		return Notification{Priority: s.Priority, Sound: s.Sound}, nil
	case ActionCategorize:
		return Categorize{Category: s.Category}, nil
	case ActionForward:
		return Forward{Destination: s.Destination}, nil
	case ActionScheduleReminder:
		return ScheduleReminder{Delay: time.Duration(s.Delay) * time.Millisecond, Message: s.Message}, nil
	}
	return nil, fmt.Errorf("unknown action type: %q", s.Type)
}

// Build validates the definition and converts it into a Workflow. Invalid
// definitions return a *ValidationError.
func (d *Definition) Build() (*Workflow, error) {
	if errs := Validate(d); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	trigger, err := d.Trigger.Build()
	if err != nil {
		return nil, err
	}
	actions := make([]Action, len(d.Actions))
	for i, spec := range d.Actions {
		if actions[i], err = spec.Build(); err != nil {
			return nil, err
		}
	}

	enabled := true
	if d.Enabled != nil {
		enabled = *d.Enabled
	}
	return &Workflow{
		ID:      d.ID,
		Name:    d.Name,
		Enabled: enabled,
		Trigger: trigger,
		Actions: actions,
	}, nil
}

// SpecOf converts a Trigger into its declarative form.
func SpecOf(t Trigger) TriggerSpec {
	switch t := t.(type) {
	case IncomingMessage:
		return TriggerSpec{Type: string(TriggerIncomingMessage)}
	case KeywordMatch:
		return TriggerSpec{Type: string(TriggerKeywordMatch), Keywords: t.Keywords}
	case SenderMatch:
		return TriggerSpec{Type: string(TriggerSenderMatch), Senders: t.Senders}
	case PlatformMatch:
		platforms := make([]string, len(t.Platforms))
		for i, p := range t.Platforms {
			platforms[i] = string(p)
		}
		return TriggerSpec{Type: string(TriggerPlatformMatch), Platforms: platforms}
	case TimeBased:
		return TriggerSpec{Type: string(TriggerTimeBased), StartHour: t.StartHour, EndHour: t.EndHour}
	case SentimentMatch:
		sentiments := make([]string, len(t.Sentiments))
		for i, s := range t.Sentiments {
			sentiments[i] = string(s)
		}
		return TriggerSpec{Type: string(TriggerSentimentMatch), Sentiments: sentiments}
	}
	return TriggerSpec{}
}

// ActionSpecOf converts an Action into its declarative form.
func ActionSpecOf(a Action) ActionSpec {
	switch a := a.(type) {
	case AutoReply:
		return ActionSpec{Type: string(ActionAutoReply), Message: a.Message}
	case SuggestReply:
		return ActionSpec{Type: string(ActionSuggestReply), Suggestions: a.Suggestions}
	case Notification:
		return ActionSpec{Type: string(ActionNotification), Priority: a.Priority, Sound: a.Sound}
	case Categorize:
		return ActionSpec{Type: string(ActionCategorize), Category: a.Category}
	case Forward:
		return ActionSpec{Type: string(ActionForward), Destination: a.Destination}
	case ScheduleReminder:
		return ActionSpec{Type: string(ActionScheduleReminder), Delay: a.Delay.Milliseconds(), Message: a.Message}
	}
	return ActionSpec{}
}
