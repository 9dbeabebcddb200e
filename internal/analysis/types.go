package analysis

// Sentiment is the label produced by sentiment analysis.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the three sentiment labels.
func (s Sentiment) Valid() bool {
	return s == Positive || s == Negative || s == Neutral
}

// Score maps a label onto +1, -1 or 0.
func (s Sentiment) Score() float64 {
	switch s {
	case Positive:
		return 1
	case Negative:
		return -1
	}
	return 0
}

type SentimentResult struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
}

type Category string

const (
	CategoryUrgent   Category = "urgent"
	CategoryMeeting  Category = "meeting"
	CategoryWork     Category = "work"
	CategorySupport  Category = "support"
	CategoryGeneral  Category = "general"
	CategoryFeedback Category = "feedback"
	CategorySales    Category = "sales"
)

// Categories is the closed set a message can be classified into.
var Categories = []Category{
	CategoryUrgent,
	CategoryMeeting,
	CategoryWork,
	CategorySupport,
	CategoryGeneral,
	CategoryFeedback,
	CategorySales,
}

// Valid reports whether c belongs to Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type CategoryResult struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type ActionItem struct {
	ID          string   `json:"id,omitempty"`
	Content     string   `json:"content"`
	Responsible string   `json:"responsible"`
	Priority    Priority `json:"priority"`
}

// Operation names an analysis call for observers.
type Operation string

const (
	OpSentiment    Operation = "sentiment"
	OpSmartReplies Operation = "smart_replies"
	OpCategorize   Operation = "categorize"
	OpActionItems  Operation = "action_items"
)

// Path records whether a result came from the remote backend or the local
// heuristics.
type Path string

const (
	PathRemote   Path = "remote"
	PathFallback Path = "fallback"
)

// UnknownResponsible is used when no owner can be attributed to an action item.
const UnknownResponsible = "Unknown"
