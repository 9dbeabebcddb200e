package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	ctxengine "github.com/user/chathub/internal/context"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/pkg/llm"
)

const maxReplies = 3

// Observer is told which path served every analysis call.
type Observer func(op Operation, path Path)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPrompts replaces the built-in prompt templates.
func WithPrompts(p *ctxengine.Prompts) Option {
	return func(a *Analyzer) { a.prompts = p }
}

// WithBudget trims conversation history sent to the remote backend to the
// engine's token budget.
func WithBudget(e *ctxengine.Engine) Option {
	return func(a *Analyzer) { a.budget = e }
}

// WithObserver registers a callback for every completed analysis call.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) { a.observe = o }
}

// Analyzer offers sentiment, smart reply, categorization and action item
// extraction. With a provider it asks the remote model first; without one, or
// whenever the remote call or its response is unusable, it answers from
// local keyword heuristics. No method returns an error.
type Analyzer struct {
	provider llm.Provider
	prompts  *ctxengine.Prompts
	budget   *ctxengine.Engine
	observe  Observer
}

// New creates an Analyzer. A nil provider leaves only the local heuristics.
func New(provider llm.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{provider: provider}
	for _, opt := range opts {
		opt(a)
	}
	if a.prompts == nil {
		a.prompts = ctxengine.DefaultPrompts()
	}
	return a
}

// IsAvailable reports whether a remote backend is configured.
func (a *Analyzer) IsAvailable() bool {
	return a.provider != nil
}

func (a *Analyzer) record(op Operation, path Path) {
	if a.observe != nil {
		a.observe(op, path)
	}
}

// complete renders the named prompt and sends it as a single user message.
func (a *Analyzer) complete(ctx context.Context, name ctxengine.PromptName, data any, temperature float32) (string, error) {
	prompt, err := a.prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	resp, err := a.provider.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Options{
		Temperature: temperature,
		JSON:        true,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// AnalyzeSentiment classifies text as positive, negative or neutral.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, text string) SentimentResult {
	if !a.IsAvailable() {
		a.record(OpSentiment, PathFallback)
		return fallbackSentiment(text)
	}

	result, err := a.remoteSentiment(ctx, text)
	if err != nil {
		slog.Warn("remote sentiment analysis failed, using fallback", "error", err)
		a.record(OpSentiment, PathFallback)
		return fallbackSentiment(text)
	}
	a.record(OpSentiment, PathRemote)
	return result
}

func (a *Analyzer) remoteSentiment(ctx context.Context, text string) (SentimentResult, error) {
	content, err := a.complete(ctx, ctxengine.PromptSentiment, map[string]any{"Message": text}, 0.1)
	if err != nil {
		return SentimentResult{}, err
	}
	var raw struct {
		Sentiment  Sentiment `json:"sentiment"`
		Confidence *float64  `json:"confidence"`
	}
	if err := decodeObject(content, &raw); err != nil {
		return SentimentResult{}, err
	}
	result := SentimentResult{Sentiment: Sentiment(strings.ToLower(string(raw.Sentiment)))}
	if !result.Sentiment.Valid() {
		return SentimentResult{}, fmt.Errorf("unknown sentiment label %q", raw.Sentiment)
	}
	if raw.Confidence == nil {
		return SentimentResult{}, fmt.Errorf("confidence missing")
	}
	result.Confidence = *raw.Confidence
	if result.Confidence < 0 || result.Confidence > 1 {
		return SentimentResult{}, fmt.Errorf("confidence %v out of range", result.Confidence)
	}
	return result, nil
}

// GenerateSmartReplies proposes up to three replies to last, given the
// visible conversation history.
func (a *Analyzer) GenerateSmartReplies(ctx context.Context, history []*types.Message, last string) []string {
	if !a.IsAvailable() {
		a.record(OpSmartReplies, PathFallback)
		return fallbackReplies(last)
	}

	replies, err := a.remoteReplies(ctx, history, last)
	if err != nil {
		slog.Warn("remote smart replies failed, using fallback", "error", err)
		a.record(OpSmartReplies, PathFallback)
		return fallbackReplies(last)
	}
	a.record(OpSmartReplies, PathRemote)
	return replies
}

func (a *Analyzer) remoteReplies(ctx context.Context, history []*types.Message, last string) ([]string, error) {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, msg.Sender+": "+msg.Content)
	}
	if a.budget != nil {
		lines = a.budget.FitTranscript(last, lines)
	}

	content, err := a.complete(ctx, ctxengine.PromptSmartReplies, map[string]any{
		"History": lines,
		"Message": last,
	}, 0.5)
	if err != nil {
		return nil, err
	}
	raw, err := decodeList[string](content, "replies")
	if err != nil {
		return nil, err
	}

	replies := make([]string, 0, maxReplies)
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		replies = append(replies, r)
		if len(replies) == maxReplies {
			break
		}
	}
	if len(replies) == 0 {
		return nil, fmt.Errorf("no replies in response")
	}
	return replies, nil
}

// CategorizeMessage assigns text to one of Categories.
func (a *Analyzer) CategorizeMessage(ctx context.Context, text string) CategoryResult {
	if !a.IsAvailable() {
		a.record(OpCategorize, PathFallback)
		return fallbackCategory(text)
	}

	result, err := a.remoteCategory(ctx, text)
	if err != nil {
		slog.Warn("remote categorization failed, using fallback", "error", err)
		a.record(OpCategorize, PathFallback)
		return fallbackCategory(text)
	}
	a.record(OpCategorize, PathRemote)
	return result
}

func (a *Analyzer) remoteCategory(ctx context.Context, text string) (CategoryResult, error) {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	content, err := a.complete(ctx, ctxengine.PromptCategorize, map[string]any{
		"Message":    text,
		"Categories": names,
	}, 0.1)
	if err != nil {
		return CategoryResult{}, err
	}
	var result CategoryResult
	if err := decodeObject(content, &result); err != nil {
		return CategoryResult{}, err
	}
	result.Category = Category(strings.ToLower(string(result.Category)))
	if !result.Category.Valid() {
		return CategoryResult{}, fmt.Errorf("unknown category %q", result.Category)
	}
	return result, nil
}

// ExtractActionItems lists the follow-ups found in messages.
func (a *Analyzer) ExtractActionItems(ctx context.Context, messages []*types.Message) []ActionItem {
	if !a.IsAvailable() {
		a.record(OpActionItems, PathFallback)
		return fallbackActionItems(messages)
	}

	items, err := a.remoteActionItems(ctx, messages)
	if err != nil {
		slog.Warn("remote action item extraction failed, using fallback", "error", err)
		a.record(OpActionItems, PathFallback)
		return fallbackActionItems(messages)
	}
	a.record(OpActionItems, PathRemote)
	return items
}

func (a *Analyzer) remoteActionItems(ctx context.Context, messages []*types.Message) ([]ActionItem, error) {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("[%s at %s] %s", msg.Sender, msg.Timestamp.Format("15:04:05"), msg.Content))
	}
	if a.budget != nil {
		lines = a.budget.FitTranscript("", lines)
	}

	content, err := a.complete(ctx, ctxengine.PromptActionItems, map[string]any{"Messages": lines}, 0.3)
	if err != nil {
		return nil, err
	}
	raw, err := decodeList[ActionItem](content, "action_items")
	if err != nil {
		return nil, err
	}

	items := make([]ActionItem, 0, len(raw))
	for i, item := range raw {
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		if item.Responsible == "" {
			item.Responsible = UnknownResponsible
		}
		switch Priority(strings.ToLower(string(item.Priority))) {
		case PriorityHigh:
			item.Priority = PriorityHigh
		case PriorityLow:
			item.Priority = PriorityLow
		default:
			item.Priority = PriorityMedium
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("action-%d", i)
		}
		items = append(items, item)
	}
	return items, nil
}
