package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalSources = `
sources:
  - name: Remotive
    type: remotive
    enabled: true
`

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123:abc")
	path := writeConfig(t, `
schedule:
  interval: 30m
  timezone: Europe/Berlin
store:
  type: file
  path: seen.json
pipeline:
  max_per_run: 2
  window_days: 3
  on_unknown_date: Include
  producer_timeout: 45s
  delivery_delay: 1s
filters:
  title_keywords: [intern]
  title_exclude_keywords: [senior]
delivery:
  type: telegram
  bot_token: ${TEST_BOT_TOKEN}
  chat_id: "@internships"
query:
  limit: 10
rate_limit:
  min_delay: 3s
  source_overrides:
    rss: 1s
retry:
  max_retries: 0
classification:
  fields:
    - name: Robotics
      keywords: [robot]
sources:
  - name: CERN
    type: smartrecruiters
    board_token: CERN
    enabled: true
  - name: Feed
    type: rss
    url: https://example.com/feed.rss
    keywords: [intern]
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.Interval != 30*time.Minute || cfg.Schedule.Location.String() != "Europe/Berlin" {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Store.Type != "file" || cfg.Store.Path != "seen.json" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Pipeline.MaxPerRun != 2 || cfg.Pipeline.Window() != 72*time.Hour || cfg.Pipeline.OnUnknownDate != "include" {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.ProducerTimeout != 45*time.Second || cfg.Pipeline.DeliveryDelay != time.Second {
		t.Errorf("Pipeline durations = %+v", cfg.Pipeline)
	}
	if cfg.Delivery.BotToken != "123:abc" {
		t.Errorf("BotToken = %q, want env expansion", cfg.Delivery.BotToken)
	}
	if cfg.Query.Limit != 10 || cfg.Query.DailyLimit != defaultDailyLimit {
		t.Errorf("Query = %+v", cfg.Query)
	}
	if cfg.RateLimit.MinDelayFor("rss") != time.Second || cfg.RateLimit.MinDelayFor("remotive") != 3*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("explicit max_retries 0 was overridden: %d", cfg.Retry.MaxRetries)
	}
	if len(cfg.Classification.Fields) != 1 || cfg.Classification.Fields[0].Name != "Robotics" {
		t.Errorf("Classification = %+v", cfg.Classification)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[1].Keywords[0] != "intern" {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalSources))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.Interval != defaultInterval || cfg.Schedule.Location != time.Local {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != defaultStorePath {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Pipeline.MaxPerRun != 4 || cfg.Pipeline.WindowDays != 7 || cfg.Pipeline.OnUnknownDate != "exclude" {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Query.Limit != 5 || cfg.Query.DailyLimit != 100 {
		t.Errorf("Query = %+v", cfg.Query)
	}
	if cfg.Delivery.Type != "log" {
		t.Errorf("Delivery.Type = %q", cfg.Delivery.Type)
	}
	if cfg.Retry.MaxRetries != defaultMaxRetries || cfg.Retry.BaseDelay != defaultRetryBaseDelay {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "schedule: [broken")); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero interval", "schedule:\n  interval: 0s\n" + minimalSources, "schedule.interval"},
		{"bad duration", "pipeline:\n  delivery_delay: soon\n" + minimalSources, "pipeline.delivery_delay"},
		{"bad timezone", "schedule:\n  timezone: Mars/Olympus\n" + minimalSources, "schedule.timezone"},
		{"bad store", "store:\n  type: redis\n" + minimalSources, "store.type"},
		{"bad policy", "pipeline:\n  on_unknown_date: maybe\n" + minimalSources, "on_unknown_date"},
		{"bad delivery", "delivery:\n  type: pigeon\n" + minimalSources, "delivery.type"},
		{"no sources", "sources: []\n", "at least one source"},
		{"unknown source", "sources:\n  - {name: X, type: ftp, enabled: true}\n", "unknown type"},
		{"missing board token", "sources:\n  - {name: X, type: greenhouse, enabled: true}\n", "board_token"},
		{"missing url", "sources:\n  - {name: X, type: rss, enabled: true}\n", "url is required"},
		{"empty field rule", "classification:\n  fields:\n    - name: Empty\n" + minimalSources, "classification.fields[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_CronWithoutInterval(t *testing.T) {
	cfg, err := Load(writeConfig(t, "schedule:\n  cron: \"0 */6 * * *\"\n"+minimalSources))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.Cron != "0 */6 * * *" {
		t.Errorf("Cron = %q", cfg.Schedule.Cron)
	}
}

func TestLoad_DisabledSourcesNotValidated(t *testing.T) {
	_, err := Load(writeConfig(t, minimalSources+"  - {name: LinkedIn, type: linkedin, enabled: false}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestDeliveryConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DeliveryConfig
		missing bool
		wantErr bool
	}{
		{"log", DeliveryConfig{Type: "log"}, false, false},
		{"telegram ok", DeliveryConfig{Type: "telegram", BotToken: "t", ChatID: "@c"}, false, false},
		{"telegram no token", DeliveryConfig{Type: "telegram", ChatID: "@c"}, true, true},
		{"slack ok", DeliveryConfig{Type: "slack", WebhookURL: "https://hooks.slack.com/services/x"}, false, false},
		{"slack no url", DeliveryConfig{Type: "slack"}, true, true},
		{"slack wrong host", DeliveryConfig{Type: "slack", WebhookURL: "https://example.com/hook"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, model.ErrMissingCredentials); got != tt.missing {
				t.Errorf("errors.Is(ErrMissingCredentials) = %v, want %v", got, tt.missing)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("INTERNFEED_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INTERNFEED_TEST_DOTENV", "")
	os.Unsetenv("INTERNFEED_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("INTERNFEED_TEST_DOTENV"); got != "from-file" {
		t.Errorf("env = %q, want from-file", got)
	}
}
