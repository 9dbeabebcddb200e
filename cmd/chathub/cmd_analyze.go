package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/types"
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(analyzeSentimentCmd, analyzeCategorizeCmd, analyzeRepliesCmd, analyzeActionsCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a single analysis on text from the command line",
}

// withAnalyzer loads config, builds the analyzer and prints what fn returns
// as indented JSON.
func withAnalyzer(fn func(ctx context.Context, a *analysis.Analyzer, args []string) any) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		a, err := buildAnalyzer(cfg, nil)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
		defer cancel()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fn(ctx, a, args))
	}
}

var analyzeSentimentCmd = &cobra.Command{
	Use:   "sentiment <text...>",
	Short: "Classify the sentiment of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: withAnalyzer(func(ctx context.Context, a *analysis.Analyzer, args []string) any {
		return a.AnalyzeSentiment(ctx, strings.Join(args, " "))
	}),
}

var analyzeCategorizeCmd = &cobra.Command{
	Use:   "categorize <text...>",
	Short: "Categorize text",
	Args:  cobra.MinimumNArgs(1),
	RunE: withAnalyzer(func(ctx context.Context, a *analysis.Analyzer, args []string) any {
		return a.CategorizeMessage(ctx, strings.Join(args, " "))
	}),
}

var analyzeRepliesCmd = &cobra.Command{
	Use:   "replies <text...>",
	Short: "Suggest replies to a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: withAnalyzer(func(ctx context.Context, a *analysis.Analyzer, args []string) any {
		return a.GenerateSmartReplies(ctx, nil, strings.Join(args, " "))
	}),
}

var analyzeActionsCmd = &cobra.Command{
	Use:   "actions <message>...",
	Short: "Extract action items; each argument is one message",
	Args:  cobra.MinimumNArgs(1),
	RunE: withAnalyzer(func(ctx context.Context, a *analysis.Analyzer, args []string) any {
		now := time.Now()
		msgs := make([]*types.Message, len(args))
		for i, text := range args {
			msgs[i] = &types.Message{
				ID:        types.MessageID(fmt.Sprintf("cli-%d", i+1)),
				ChatID:    "cli",
				Platform:  "cli",
				Content:   text,
				Sender:    "me",
				Timestamp: now,
			}
		}
		return a.ExtractActionItems(ctx, msgs)
	}),
}
