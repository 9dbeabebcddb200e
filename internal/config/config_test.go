package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	original := &Config{
		DataDir:       "/tmp/test-data",
		LogLevel:      "debug",
		MaxConcurrent: 4,
		HistorySize:   20,
	}
	original.LLM.Provider = "openai"
	original.LLM.BaseURL = "https://api.openai.com/v1"
	original.LLM.APIKey = "sk-test-round-trip"
	original.LLM.Model = "gpt-4"
	original.LLM.MaxTokens = 4000
	original.LLM.TimeoutSeconds = 15
	original.LLM.MaxContextTokens = 128000
	original.LLM.OutputReserve = 4096
	original.Feishu.AppSecret = "feishu-secret-123"
	original.Jobs = []Job{{Name: "stats", Schedule: "@hourly", Kind: "workflow_stats"}}
	original.Telegram.Token = "bot-token-456"

	// Save
	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file does not exist after Save: %v", err)
	}

	// Reload
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Compare key fields
	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir mismatch: %v != %v", loaded.DataDir, original.DataDir)
	}
	if loaded.LogLevel != original.LogLevel {
		t.Errorf("LogLevel mismatch: %v != %v", loaded.LogLevel, original.LogLevel)
	}
	if loaded.MaxConcurrent != original.MaxConcurrent {
		t.Errorf("MaxConcurrent mismatch: %v != %v", loaded.MaxConcurrent, original.MaxConcurrent)
	}
	if loaded.LLM.Provider != original.LLM.Provider {
		t.Errorf("LLM.Provider mismatch: %v != %v", loaded.LLM.Provider, original.LLM.Provider)
	}
	if loaded.LLM.APIKey != original.LLM.APIKey {
		t.Errorf("LLM.APIKey mismatch: %v != %v", loaded.LLM.APIKey, original.LLM.APIKey)
	}
	if loaded.LLM.Model != original.LLM.Model {
		t.Errorf("LLM.Model mismatch: %v != %v", loaded.LLM.Model, original.LLM.Model)
	}
	if loaded.LLM.TimeoutSeconds != original.LLM.TimeoutSeconds {
		t.Errorf("LLM.TimeoutSeconds mismatch: %v != %v", loaded.LLM.TimeoutSeconds, original.LLM.TimeoutSeconds)
	}
	if loaded.Feishu.AppSecret != original.Feishu.AppSecret {
		t.Errorf("Feishu.AppSecret mismatch: %v != %v", loaded.Feishu.AppSecret, original.Feishu.AppSecret)
	}
	if len(loaded.Jobs) != 1 || loaded.Jobs[0].Kind != "workflow_stats" {
		t.Errorf("Jobs mismatch: %+v", loaded.Jobs)
	}
	if loaded.Telegram.Token != original.Telegram.Token {
		t.Errorf("Telegram.Token mismatch: %v != %v", loaded.Telegram.Token, original.Telegram.Token)
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify no temp file left behind
	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}

	// Verify the file is valid JSON
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestToMap(t *testing.T) {
	cfg := &Config{
		DataDir:  "/tmp/test",
		LogLevel: "debug",
	}
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4"
	cfg.LLM.MaxTokens = 2000

	m, err := ToMap(cfg)
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	if m["data_dir"] != "/tmp/test" {
		t.Errorf("expected data_dir=/tmp/test, got %v", m["data_dir"])
	}
	if m["log_level"] != "debug" {
		t.Errorf("expected log_level=debug, got %v", m["log_level"])
	}

	llm, ok := m["llm"].(map[string]any)
	if !ok {
		t.Fatalf("expected llm to be map, got %T", m["llm"])
	}
	if llm["provider"] != "openai" {
		t.Errorf("expected llm.provider=openai, got %v", llm["provider"])
	}
	if llm["model"] != "gpt-4" {
		t.Errorf("expected llm.model=gpt-4, got %v", llm["model"])
	}
	// JSON numbers are float64
	if llm["max_tokens"] != float64(2000) {
		t.Errorf("expected llm.max_tokens=2000, got %v", llm["max_tokens"])
	}
}

func TestListValues_NoMask(t *testing.T) {
	cfg := &Config{
		LogLevel: "info",
	}
	cfg.LLM.APIKey = "sk-secret-key-1234"
	cfg.Feishu.AppSecret = "feishu-key-5678"
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, false)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}

	// Secrets should be unmasked
	if flat["llm.api_key"] != "sk-secret-key-1234" {
		t.Errorf("expected unmasked llm.api_key, got %v", flat["llm.api_key"])
	}
	if flat["feishu.app_secret"] != "feishu-key-5678" {
		t.Errorf("expected unmasked feishu.app_secret, got %v", flat["feishu.app_secret"])
	}
	if flat["telegram.token"] != "bot-token-abcd" {
		t.Errorf("expected unmasked telegram.token, got %v", flat["telegram.token"])
	}
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestListValues_WithMask(t *testing.T) {
	cfg := &Config{
		LogLevel: "info",
	}
	cfg.LLM.APIKey = "sk-secret-key-1234"
	cfg.Feishu.AppSecret = "feishu-key-5678"
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, true)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}

	// Secrets should be masked
	if flat["llm.api_key"] != "***1234" {
		t.Errorf("expected masked llm.api_key=***1234, got %v", flat["llm.api_key"])
	}
	if flat["feishu.app_secret"] != "***5678" {
		t.Errorf("expected masked feishu.app_secret=***5678, got %v", flat["feishu.app_secret"])
	}
	if flat["telegram.token"] != "***abcd" {
		t.Errorf("expected masked telegram.token=***abcd, got %v", flat["telegram.token"])
	}

	// Non-secrets should be unchanged
	if flat["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", flat["log_level"])
	}
}

func TestGetValue(t *testing.T) {
	path := tempConfigPath(t)

	cfg := Defaults()
	cfg.LogLevel = "debug"
	cfg.MaxConcurrent = 8
	cfg.LLM.Model = "gpt-4"
	writeTestConfig(t, path, cfg)

	want := map[string]any{
		"log_level":      "debug",
		"llm.model":      "gpt-4",
		"max_concurrent": float64(8), // JSON numbers are float64
		"nats.subject":   "chathub.reports",
	}
	for key, expected := range want {
		v, err := GetValue(path, key)
		if err != nil {
			t.Fatalf("GetValue(%s): %v", key, err)
		}
		if v != expected {
			t.Errorf("expected %s=%v, got %v (%T)", key, expected, v, v)
		}
	}

	_, err := GetValue(path, "nonexistent.key")
	if err == nil || err.Error() != "unknown config key: nonexistent.key" {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestGetValue_CreatesDefaults(t *testing.T) {
	path := tempConfigPath(t)

	v, err := GetValue(path, "auto_reply_delay_ms")
	if err != nil {
		t.Fatalf("GetValue on new config failed: %v", err)
	}
	if v != float64(1000) {
		t.Errorf("expected default auto_reply_delay_ms=1000, got %v", v)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should have been written: %v", err)
	}
}

func TestSetValue_ParsesJSON(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, Defaults())

	sets := [][2]string{
		{"auto_reply_delay_ms", "2500"},
		{"http.enabled", "false"},
		{"nats.subject", "hub.events"},
		{"jobs", `[{"name":"digest","schedule":"0 9 * * *","kind":"action_digest","chat":"telegram:42"}]`},
	}
	for _, kv := range sets {
		if err := SetValue(path, kv[0], kv[1]); err != nil {
			t.Fatalf("SetValue(%s): %v", kv[0], err)
		}
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AutoReplyDelayMS != 2500 {
		t.Errorf("expected auto_reply_delay_ms=2500, got %d", cfg.AutoReplyDelayMS)
	}
	if cfg.HTTP.Enabled {
		t.Error("expected http.enabled=false")
	}
	if cfg.NATS.Subject != "hub.events" {
		t.Errorf("expected nats.subject=hub.events, got %s", cfg.NATS.Subject)
	}
	if len(cfg.Jobs) != 1 || cfg.Jobs[0].Kind != "action_digest" || cfg.Jobs[0].Chat != "telegram:42" {
		t.Errorf("unexpected jobs: %+v", cfg.Jobs)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("unrelated keys should be preserved, llm.provider=%s", cfg.LLM.Provider)
	}
}

func TestSetValue_UnknownKeyIsStored(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, Defaults())

	if err := SetValue(path, "analysis.threshold", "0.3"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	v, err := GetValue(path, "analysis.threshold")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != 0.3 {
		t.Errorf("expected analysis.threshold=0.3, got %v (%T)", v, v)
	}
}

func TestSetValue_NonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "config.json")
	if err := SetValue(path, "log_level", "debug"); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.json")

	cfg := &Config{LogLevel: "warn"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save should create parent directory, got: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	path := tempConfigPath(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("CHATHUB_HTTP_LISTEN", ":9999")
	t.Setenv("FEISHU_VERIFICATION_TOKEN", "vtok")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HistorySize != 50 || cfg.AutoReplyDelayMS != 1000 {
		t.Errorf("unexpected defaults: history=%d delay=%d", cfg.HistorySize, cfg.AutoReplyDelayMS)
	}
	if cfg.LLM.APIKey != "sk-env" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("env overrides not applied: %+v", cfg.LLM)
	}
	if cfg.HTTP.Listen != ":9999" || cfg.Feishu.VerificationToken != "vtok" {
		t.Errorf("env overrides not applied: listen=%q token=%q", cfg.HTTP.Listen, cfg.Feishu.VerificationToken)
	}

	// Env values are not written back to the file.
	v, err := GetValue(path, "llm.api_key")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty api key in file, got %v", v)
	}
}

func TestDerivedValues(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.WorkflowsPath(); got != filepath.Join("/data", "workflows.yaml") {
		t.Errorf("unexpected workflows path %q", got)
	}
	cfg.WorkflowsFile = "/etc/chathub/wf.yaml"
	if got := cfg.WorkflowsPath(); got != "/etc/chathub/wf.yaml" {
		t.Errorf("unexpected workflows path %q", got)
	}
	if cfg.ReplyDelay() != time.Second {
		t.Errorf("expected 1s fallback delay, got %v", cfg.ReplyDelay())
	}
	cfg.AutoReplyDelayMS = 250
	if cfg.ReplyDelay() != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.ReplyDelay())
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CHATHUB_TEST_FROM_FILE=hello\nCHATHUB_TEST_PRESET=file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATHUB_TEST_PRESET", "process")
	t.Setenv("CHATHUB_TEST_FROM_FILE", "")
	os.Unsetenv("CHATHUB_TEST_FROM_FILE")

	if err := LoadEnvFile(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv("CHATHUB_TEST_FROM_FILE"); got != "hello" {
		t.Errorf("expected hello from .env, got %q", got)
	}
	if got := os.Getenv("CHATHUB_TEST_PRESET"); got != "process" {
		t.Errorf("existing variable should win, got %q", got)
	}
}

func TestValidate_Defaults(t *testing.T) {
	if problems := Defaults().Validate(); len(problems) != 0 {
		t.Errorf("expected defaults to be valid, got %v", problems)
	}
}

func TestValidate_Problems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.MaxConcurrent = 0
	cfg.HTTP.Listen = ""
	cfg.Feishu.AppID = "cli_a1"
	cfg.Jobs = []Job{
		{Name: "digest", Schedule: "0 9 * * *", Kind: "action_digest", Chat: "42"},
		{Name: "digest", Schedule: "@hourly", Kind: "workflow_stats"},
	}

	want := []string{
		`log_level: unknown level "loud"`,
		"max_concurrent: must be at least 1",
		"http.listen: required when http.enabled is true",
		"feishu: app_id and app_secret must be set together",
		`jobs[0] digest: chat must be platform:chat, got "42"`,
		`jobs[1]: duplicate name "digest"`,
	}
	got := cfg.Validate()
	if len(got) != len(want) {
		t.Fatalf("expected %d problems, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("problem %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestParseJobs(t *testing.T) {
	jobs, err := ParseJobs(`[{"name":"digest","schedule":"0 9 * * *","kind":"action_digest","chat":"telegram:42","disabled":true}]`)
	if err != nil {
		t.Fatalf("ParseJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if got := jobs[0].String(); got != `digest "0 9 * * *" action_digest telegram:42 (disabled)` {
		t.Errorf("unexpected rendering %q", got)
	}

	if _, err := ParseJobs(`{"name":"digest"}`); err == nil {
		t.Error("expected error for a non-list value")
	}
}
