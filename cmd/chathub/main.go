package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/config"
	ctxengine "github.com/user/chathub/internal/context"
	"github.com/user/chathub/pkg/llm"
	"github.com/user/chathub/pkg/llm/openai"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "chathub",
	Short:         "Chat analysis and workflow automation hub",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvFile(".env")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".chathub", "config.json"), "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// buildAnalyzer wires the analysis provider. Without an API key only the
// local heuristics are used.
func buildAnalyzer(cfg *config.Config, observer analysis.Observer) (*analysis.Analyzer, error) {
	var opts []analysis.Option
	if observer != nil {
		opts = append(opts, analysis.WithObserver(observer))
	}

	prompts, err := ctxengine.LoadPrompts(cfg.LLM.PromptsFile)
	if err != nil {
		return nil, err
	}
	opts = append(opts, analysis.WithPrompts(prompts))

	budget, err := ctxengine.New(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return nil, fmt.Errorf("create context engine: %w", err)
	}
	opts = append(opts, analysis.WithBudget(budget))

	var provider llm.Provider
	if cfg.LLM.APIKey != "" {
		provider = openai.New(&llm.Config{
			BaseURL:        cfg.LLM.BaseURL,
			APIKey:         cfg.LLM.APIKey,
			Model:          cfg.LLM.Model,
			MaxTokens:      cfg.LLM.MaxTokens,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	} else {
		slog.Warn("no LLM API key configured, using local analysis only")
	}
	return analysis.New(provider, opts...), nil
}
