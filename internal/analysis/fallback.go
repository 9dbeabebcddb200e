package analysis

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/user/chathub/internal/types"
)

var (
	positiveWords = map[string]bool{
		"good": true, "great": true, "excellent": true, "awesome": true, "love": true,
		"happy": true, "thanks": true, "perfect": true, "amazing": true,
	}
	negativeWords = map[string]bool{
		"bad": true, "terrible": true, "awful": true, "hate": true, "angry": true,
		"frustrated": true, "problem": true, "issue": true, "wrong": true,
	}
	actionKeywords = []string{"todo", "task", "action", "deadline", "due", "complete", "finish", "deliver"}
)

// words splits lowercased text on anything that is not a letter or an
// apostrophe, so "great," and "thanks!" still count.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func fallbackSentiment(text string) SentimentResult {
	var pos, neg int
	for _, w := range words(text) {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}

	diff := pos - neg
	confidence := math.Min(0.8, 0.5+0.1*math.Abs(float64(diff)))
	switch {
	case diff > 0:
		return SentimentResult{Sentiment: Positive, Confidence: confidence}
	case diff < 0:
		return SentimentResult{Sentiment: Negative, Confidence: confidence}
	}
	return SentimentResult{Sentiment: Neutral, Confidence: 0.5}
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func fallbackReplies(message string) []string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "thank"):
		return []string{"You're welcome!", "Happy to help!", "No problem!"}
	case containsAny(lower, "question", "help"):
		return []string{"I'd be happy to help!", "What specific information do you need?", "Let me know how I can assist"}
	}
	return []string{"Thanks for your message!", "I'll get back to you soon", "Sounds good!"}
}

func fallbackCategory(text string) CategoryResult {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "urgent", "asap", "emergency"):
		return CategoryResult{Category: CategoryUrgent, Confidence: 0.5}
	case containsAny(lower, "meeting", "schedule", "calendar"):
		return CategoryResult{Category: CategoryMeeting, Confidence: 0.4}
	case containsAny(lower, "project", "task", "deadline"):
		return CategoryResult{Category: CategoryWork, Confidence: 0.4}
	case containsAny(lower, "question", "help", "support"):
		return CategoryResult{Category: CategorySupport, Confidence: 0.4}
	}
	return CategoryResult{Category: CategoryGeneral, Confidence: 0.3}
}

func fallbackActionItems(messages []*types.Message) []ActionItem {
	items := []ActionItem{}
	for i, msg := range messages {
		lower := strings.ToLower(msg.Content)
		if !containsAny(lower, actionKeywords...) {
			continue
		}
		priority := PriorityMedium
		if strings.Contains(lower, "urgent") {
			priority = PriorityHigh
		}
		items = append(items, ActionItem{
			ID:          fmt.Sprintf("action-%d-%s", i, msg.ID),
			Content:     msg.Content,
			Responsible: UnknownResponsible,
			Priority:    priority,
		})
	}
	return items
}
