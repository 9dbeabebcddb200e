package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Job is a scheduled job entry. Kind is workflow_stats or action_digest.
type Job struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Kind     string `json:"kind"`
	Chat     string `json:"chat,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

type Config struct {
	DataDir          string `json:"data_dir"`
	LogLevel         string `json:"log_level"`
	MaxConcurrent    int    `json:"max_concurrent"`
	HistorySize      int    `json:"history_size"`
	AutoReplyDelayMS int    `json:"auto_reply_delay_ms"`
	WorkflowsFile    string `json:"workflows_file"`
	LLM              struct {
		Provider         string `json:"provider"`
		BaseURL          string `json:"base_url"`
		APIKey           string `json:"api_key"`
		Model            string `json:"model"`
		MaxTokens        int    `json:"max_tokens"`
		MaxContextTokens int    `json:"max_context_tokens"`
		OutputReserve    int    `json:"output_reserve"`
		TimeoutSeconds   int    `json:"timeout_seconds"`
		PromptsFile      string `json:"prompts_file"`
	} `json:"llm"`
	HTTP struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	NATS struct {
		URL     string `json:"url"`
		Subject string `json:"subject"`
		Token   string `json:"token"`
	} `json:"nats"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
	Feishu struct {
		AppID             string `json:"app_id"`
		AppSecret         string `json:"app_secret"`
		VerificationToken string `json:"verification_token"`
	} `json:"feishu"`
	Jobs []Job `json:"jobs"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	cfg := &Config{
		DataDir:          filepath.Join(os.Getenv("HOME"), ".chathub"),
		MaxConcurrent:    2,
		HistorySize:      50,
		AutoReplyDelayMS: 1000,
	}
	cfg.LogLevel = "info"
	cfg.LLM.Provider = "openai"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4.1-mini"
	cfg.LLM.MaxTokens = 500
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 1024
	cfg.LLM.TimeoutSeconds = 30
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8484"
	cfg.NATS.Subject = "chathub.reports"
	cfg.Jobs = []Job{}
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides file values from the environment (highest precedence).
func applyEnv(cfg *Config) {
	override := func(dst *string, name string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	override(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	override(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	override(&cfg.LLM.Model, "OPENAI_MODEL")
	override(&cfg.LogLevel, "CHATHUB_LOG_LEVEL")
	override(&cfg.HTTP.Listen, "CHATHUB_HTTP_LISTEN")
	override(&cfg.NATS.URL, "NATS_URL")
	override(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	override(&cfg.Feishu.AppID, "FEISHU_APP_ID")
	override(&cfg.Feishu.AppSecret, "FEISHU_APP_SECRET")
	override(&cfg.Feishu.VerificationToken, "FEISHU_VERIFICATION_TOKEN")
}

// WorkflowsPath returns the definitions file, defaulting to
// <data_dir>/workflows.yaml.
func (c *Config) WorkflowsPath() string {
	if c.WorkflowsFile != "" {
		return c.WorkflowsFile
	}
	return filepath.Join(c.DataDir, "workflows.yaml")
}

// ReplyDelay is the auto-reply delay. Zero or negative values fall back to
// one second.
func (c *Config) ReplyDelay() time.Duration {
	if c.AutoReplyDelayMS <= 0 {
		return time.Second
	}
	return time.Duration(c.AutoReplyDelayMS) * time.Millisecond
}

// Timeout bounds a single remote analysis call.
func (c *Config) Timeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// Save writes cfg as indented JSON, atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
