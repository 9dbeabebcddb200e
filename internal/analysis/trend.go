package analysis

import (
	"context"

	"github.com/user/chathub/internal/types"
)

// trendWindow is how many of the most recent messages feed a trend.
const trendWindow = 5

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Trend summarises how the tone of a conversation is moving.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	// Score is the mean sentiment score over the window, in [-1, 1].
	Score   float64 `json:"score"`
	Samples int     `json:"samples"`
}

// SentimentTrend compares the last two messages against the last five. It
// returns nil when messages is empty.
func (a *Analyzer) SentimentTrend(ctx context.Context, messages []*types.Message) *Trend {
	if len(messages) == 0 {
		return nil
	}
	if len(messages) > trendWindow {
		messages = messages[len(messages)-trendWindow:]
	}

	scores := make([]float64, len(messages))
	for i, msg := range messages {
		scores[i] = a.AnalyzeSentiment(ctx, msg.Content).Sentiment.Score()
	}
	return trendFromScores(scores)
}

func trendFromScores(scores []float64) *Trend {
	avg := mean(scores)
	recent := scores
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}
	recentAvg := mean(recent)

	direction := TrendStable
	switch {
	case recentAvg > avg:
		direction = TrendImproving
	case recentAvg < avg:
		direction = TrendDeclining
	}
	return &Trend{Direction: direction, Score: avg, Samples: len(scores)}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
