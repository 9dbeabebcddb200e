package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate returns the problems that keep `chathub serve` from running as
// configured, in key order. Cron expressions are checked by the scheduler.
func (c *Config) Validate() []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !logLevels[strings.ToLower(c.LogLevel)] {
		add("log_level: unknown level %q", c.LogLevel)
	}
	if c.MaxConcurrent < 1 {
		add("max_concurrent: must be at least 1")
	}
	if c.HistorySize < 1 {
		add("history_size: must be at least 1")
	}
	if c.AutoReplyDelayMS < 0 {
		add("auto_reply_delay_ms: must not be negative")
	}
	if c.HTTP.Enabled && c.HTTP.Listen == "" {
		add("http.listen: required when http.enabled is true")
	}
	if (c.Feishu.AppID == "") != (c.Feishu.AppSecret == "") {
		add("feishu: app_id and app_secret must be set together")
	}

	// Missing names, unknown kinds and cron syntax are the scheduler's checks.
	seen := make(map[string]bool, len(c.Jobs))
	for i, j := range c.Jobs {
		if j.Name != "" && seen[j.Name] {
			add("jobs[%d]: duplicate name %q", i, j.Name)
		}
		seen[j.Name] = true
		if j.Kind == "action_digest" && j.Chat != "" && !strings.Contains(j.Chat, ":") {
			add("jobs[%d] %s: chat must be platform:chat, got %q", i, j.Name, j.Chat)
		}
	}
	return problems
}

// ParseJobs decodes the JSON list accepted by `chathub config set jobs`.
func ParseJobs(raw string) ([]Job, error) {
	var jobs []Job
	if err := json.Unmarshal([]byte(raw), &jobs); err != nil {
		return nil, fmt.Errorf("jobs must be a JSON list: %w", err)
	}
	return jobs, nil
}

// String renders a job on one line for `chathub config list`.
func (j Job) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q %s", j.Name, j.Schedule, j.Kind)
	if j.Chat != "" {
		b.WriteString(" " + j.Chat)
	}
	if j.Disabled {
		b.WriteString(" (disabled)")
	}
	return b.String()
}
