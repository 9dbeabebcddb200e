package context

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptName identifies one of the analysis prompt templates.
type PromptName string

const (
	PromptSentiment    PromptName = "sentiment"
	PromptSmartReplies PromptName = "smart_replies"
	PromptCategorize   PromptName = "categorize"
	PromptActionItems  PromptName = "action_items"
)

// PromptSet is the YAML shape of a prompt override file. Empty fields keep
// the built-in template.
type PromptSet struct {
	Sentiment    string `yaml:"sentiment"`
	SmartReplies string `yaml:"smart_replies"`
	Categorize   string `yaml:"categorize"`
	ActionItems  string `yaml:"action_items"`
}

// DefaultPromptSet holds the built-in templates. They use Go text/template
// syntax; see the Render callers in internal/analysis for the data fields.
var DefaultPromptSet = PromptSet{
	Sentiment: `Analyze the sentiment of the following message. Respond only with a JSON object in the format: {"sentiment": "positive" | "negative" | "neutral", "confidence": 0.0 to 1.0}. Message: "{{.Message}}"`,

	SmartReplies: `Based on the following conversation history and the latest message, generate three concise and appropriate smart reply suggestions. Respond only with a JSON object in the format: {"replies": ["Reply 1", "Reply 2", "Reply 3"]}.
Conversation History:
---
{{join .History "\n"}}
---
Latest Message: "{{.Message}}"`,

	Categorize: `Categorize the following message into one of these categories: {{join .Categories ", "}}. Respond only with a JSON object in the format: {"category": "category_name", "confidence": 0.0 to 1.0}. Message: "{{.Message}}"`,

	ActionItems: `Review the following messages and extract all clear action items, tasks, or follow-ups. For each item, provide a concise description, the person responsible (if mentioned, otherwise 'Unknown'), and a priority ('high', 'medium', or 'low'). Respond only with a JSON object in the format: {"action_items": [{"content": "...", "responsible": "...", "priority": "..."}]}. If no action items are found, return {"action_items": []}.
Messages:
---
{{join .Messages "\n"}}
---`,
}

// Prompts is a compiled set of analysis prompt templates.
type Prompts struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{"join": strings.Join}

// DefaultPrompts compiles the built-in prompt set.
func DefaultPrompts() *Prompts {
	p, err := compile(DefaultPromptSet)
	if err != nil {
		panic(fmt.Sprintf("built-in prompts: %v", err))
	}
	return p
}

// LoadPrompts reads a YAML prompt override file. An empty path or a missing
// file yields the built-in prompts.
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Info("prompt file not found, using defaults", "path", path)
		return DefaultPrompts(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}

	var set PromptSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	set.fillDefaults()
	slog.Info("loaded prompts", "path", path)
	return compile(set)
}

func (s *PromptSet) fillDefaults() {
	if s.Sentiment == "" {
		s.Sentiment = DefaultPromptSet.Sentiment
	}
	if s.SmartReplies == "" {
		s.SmartReplies = DefaultPromptSet.SmartReplies
	}
	if s.Categorize == "" {
		s.Categorize = DefaultPromptSet.Categorize
	}
	if s.ActionItems == "" {
		s.ActionItems = DefaultPromptSet.ActionItems
	}
}

func compile(set PromptSet) (*Prompts, error) {
	root := template.New("prompts").Funcs(funcs)
	for name, text := range map[PromptName]string{
		PromptSentiment:    set.Sentiment,
		PromptSmartReplies: set.SmartReplies,
		PromptCategorize:   set.Categorize,
		PromptActionItems:  set.ActionItems,
	} {
		if _, err := root.New(string(name)).Parse(text); err != nil {
			return nil, fmt.Errorf("parse %s prompt: %w", name, err)
		}
	}
	return &Prompts{tmpl: root}, nil
}

// Render executes the named template with data.
func (p *Prompts) Render(name PromptName, data any) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, string(name), data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
