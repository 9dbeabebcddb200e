package context

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Engine keeps conversation transcripts inside the model's token budget.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// New creates a context engine with the specified token budget.
// model is used to select the appropriate tokenizer (e.g. "gpt-4").
// maxTokens is the model's context window size.
// reserve is the number of tokens to reserve for the model's response.
func New(model string, maxTokens, reserve int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Engine{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

// CountTokens returns the token count for a string.
func (e *Engine) CountTokens(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

// FitTranscript returns the longest suffix of lines that fits the input
// budget once the fixed part of the prompt is accounted for. Lines stay in
// chronological order; the oldest are dropped first.
func (e *Engine) FitTranscript(fixed string, lines []string) []string {
	remaining := e.maxTokens - e.reserve - e.CountTokens(fixed)
	// 70% for history, the rest is safety margin for template glue
	budget := int(float64(remaining) * 0.7)
	if budget <= 0 {
		return nil
	}

	used := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		n := e.CountTokens(lines[i]) + 1
		if used+n > budget {
			break
		}
		used += n
		start = i
	}
	return lines[start:]
}
