package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/internfeed/internal/model"
)

// Config is the root configuration for internfeed.
type Config struct {
	Schedule       ScheduleConfig
	Store          StoreConfig
	Pipeline       PipelineConfig
	Filters        FilterConfig
	Delivery       DeliveryConfig
	Query          QueryConfig
	RateLimit      RateLimitConfig
	Retry          RetryConfig
	Classification ClassificationConfig
	Sources        []SourceConfig
}

// ScheduleConfig controls the daemon loop. Cron takes precedence over
// Interval when both are set.
type ScheduleConfig struct {
	Interval time.Duration
	Cron     string
	Location *time.Location
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Type string `yaml:"type"` // "sqlite" or "file"
	Path string `yaml:"path"`
}

// PipelineConfig tunes a single run.
type PipelineConfig struct {
	MaxPerRun       int
	WindowDays      int
	OnUnknownDate   string // "include" or "exclude"
	ProducerTimeout time.Duration
	DeliveryDelay   time.Duration
}

// Window returns the recency window as a duration.
func (p PipelineConfig) Window() time.Duration {
	return time.Duration(p.WindowDays) * 24 * time.Hour
}

// FilterConfig holds the optional raw-record keyword filters.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// DeliveryConfig controls which sink is used and its credentials.
type DeliveryConfig struct {
	Type       string `yaml:"type"` // "telegram", "slack" or "log"
	BotToken   string `yaml:"bot_token"`
	ChatID     string `yaml:"chat_id"`
	WebhookURL string `yaml:"webhook_url"`
}

// Validate checks that the selected sink has its credentials. It is called
// before any delivery, not by Load, so ingestion can run without them.
func (d DeliveryConfig) Validate() error {
	switch d.Type {
	case "telegram":
		if d.BotToken == "" || d.ChatID == "" {
			return fmt.Errorf("delivery.bot_token and delivery.chat_id are required for telegram: %w", model.ErrMissingCredentials)
		}
	case "slack":
		if d.WebhookURL == "" {
			return fmt.Errorf("delivery.webhook_url is required for slack: %w", model.ErrMissingCredentials)
		}
		if !strings.HasPrefix(d.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("delivery.webhook_url must start with https://hooks.slack.com/")
		}
	case "", "log":
	default:
		return fmt.Errorf("unknown delivery.type %q", d.Type)
	}
	return nil
}

// QueryConfig bounds the on-demand search path.
type QueryConfig struct {
	Limit      int `yaml:"limit"`
	DailyLimit int `yaml:"daily_limit"`
}

// RateLimitConfig controls per-source request spacing.
type RateLimitConfig struct {
	MinDelay        time.Duration
	SourceOverrides map[string]time.Duration // keyed by source type
}

// MinDelayFor returns the configured delay for the given source type, falling
// back to MinDelay.
func (r RateLimitConfig) MinDelayFor(sourceType string) time.Duration {
	if d, ok := r.SourceOverrides[sourceType]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls producer retries on transient HTTP failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// FieldRuleConfig is one entry of the field classification table.
type FieldRuleConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// ClassificationConfig overrides the built-in field table when Fields is
// non-empty.
type ClassificationConfig struct {
	Fields []FieldRuleConfig `yaml:"fields"`
}

// SourceConfig describes one producer.
type SourceConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	BoardToken string   `yaml:"board_token"` // greenhouse, lever, smartrecruiters
	Company    string   `yaml:"company"`     // display name for board sources
	URL        string   `yaml:"url"`         // rss; optional for internshala, linkedin
	Category   string   `yaml:"category"`    // remotive
	Keywords   []string `yaml:"keywords"`
	Enabled    bool     `yaml:"enabled"`
}

// SourceTypes lists the producer types internfeed can build.
var SourceTypes = []string{"remotive", "smartrecruiters", "rss", "internshala", "linkedin", "greenhouse", "lever"}

const (
	defaultInterval        = 6 * time.Hour
	defaultStorePath       = "internships.db"
	defaultMaxPerRun       = 4
	defaultWindowDays      = 7
	defaultProducerTimeout = 2 * time.Minute
	defaultDeliveryDelay   = 5 * time.Second
	defaultQueryLimit      = 5
	defaultDailyLimit      = 100
	defaultMinDelay        = 2 * time.Second
	defaultMaxRetries      = 2
	defaultRetryBaseDelay  = 5 * time.Second
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Schedule       rawScheduleConfig    `yaml:"schedule"`
	Store          StoreConfig          `yaml:"store"`
	Pipeline       rawPipelineConfig    `yaml:"pipeline"`
	Filters        FilterConfig         `yaml:"filters"`
	Delivery       DeliveryConfig       `yaml:"delivery"`
	Query          QueryConfig          `yaml:"query"`
	RateLimit      rawRateLimitConfig   `yaml:"rate_limit"`
	Retry          rawRetryConfig       `yaml:"retry"`
	Classification ClassificationConfig `yaml:"classification"`
	Sources        []SourceConfig       `yaml:"sources"`
}

type rawScheduleConfig struct {
	Interval string `yaml:"interval"`
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type rawPipelineConfig struct {
	MaxPerRun       int    `yaml:"max_per_run"`
	WindowDays      int    `yaml:"window_days"`
	OnUnknownDate   string `yaml:"on_unknown_date"`
	ProducerTimeout string `yaml:"producer_timeout"`
	DeliveryDelay   string `yaml:"delivery_delay"`
}

type rawRateLimitConfig struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := parseDuration("schedule.interval", raw.Schedule.Interval, defaultInterval)
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if tz := raw.Schedule.Timezone; tz != "" && tz != "Local" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("parse schedule.timezone %q: %w", tz, err)
		}
	}

	producerTimeout, err := parseDuration("pipeline.producer_timeout", raw.Pipeline.ProducerTimeout, defaultProducerTimeout)
	if err != nil {
		return nil, err
	}
	deliveryDelay, err := parseDuration("pipeline.delivery_delay", raw.Pipeline.DeliveryDelay, defaultDeliveryDelay)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, defaultMinDelay)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]time.Duration)
	for src, v := range raw.RateLimit.SourceOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.source_overrides[%q]: %w", src, err)
		}
		overrides[src] = d
	}

	retryDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, defaultRetryBaseDelay)
	if err != nil {
		return nil, err
	}
	maxRetries := defaultMaxRetries
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	storeCfg := raw.Store
	if storeCfg.Type == "" {
		storeCfg.Type = "sqlite"
	}
	if storeCfg.Path == "" {
		storeCfg.Path = defaultStorePath
	}

	delivery := raw.Delivery
	if delivery.Type == "" {
		delivery.Type = "log"
	}

	cfg := &Config{
		Schedule: ScheduleConfig{
			Interval: interval,
			Cron:     strings.TrimSpace(raw.Schedule.Cron),
			Location: loc,
		},
		Store: storeCfg,
		Pipeline: PipelineConfig{
			MaxPerRun:       orDefault(raw.Pipeline.MaxPerRun, defaultMaxPerRun),
			WindowDays:      orDefault(raw.Pipeline.WindowDays, defaultWindowDays),
			OnUnknownDate:   strings.ToLower(strings.TrimSpace(raw.Pipeline.OnUnknownDate)),
			ProducerTimeout: producerTimeout,
			DeliveryDelay:   deliveryDelay,
		},
		Filters:  raw.Filters,
		Delivery: delivery,
		Query: QueryConfig{
			Limit:      orDefault(raw.Query.Limit, defaultQueryLimit),
			DailyLimit: orDefault(raw.Query.DailyLimit, defaultDailyLimit),
		},
		RateLimit: RateLimitConfig{
			MinDelay:        minDelay,
			SourceOverrides: overrides,
		},
		Retry: RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  retryDelay,
		},
		Classification: raw.Classification,
		Sources:        raw.Sources,
	}
	if cfg.Pipeline.OnUnknownDate == "" {
		cfg.Pipeline.OnUnknownDate = "exclude"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(key, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, v, err)
	}
	return d, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.Schedule.Cron == "" && cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}

	switch cfg.Store.Type {
	case "sqlite", "file":
	default:
		return fmt.Errorf("store.type must be \"sqlite\" or \"file\", got %q", cfg.Store.Type)
	}

	if cfg.Pipeline.MaxPerRun < 0 {
		return fmt.Errorf("pipeline.max_per_run must be positive, got %d", cfg.Pipeline.MaxPerRun)
	}
	if cfg.Pipeline.WindowDays < 0 {
		return fmt.Errorf("pipeline.window_days must be positive, got %d", cfg.Pipeline.WindowDays)
	}
	switch cfg.Pipeline.OnUnknownDate {
	case "include", "exclude":
	default:
		return fmt.Errorf("pipeline.on_unknown_date must be \"include\" or \"exclude\", got %q", cfg.Pipeline.OnUnknownDate)
	}
	if cfg.Pipeline.ProducerTimeout <= 0 {
		return fmt.Errorf("pipeline.producer_timeout must be positive, got %v", cfg.Pipeline.ProducerTimeout)
	}

	if cfg.Query.Limit < 0 || cfg.Query.DailyLimit < 0 {
		return fmt.Errorf("query.limit and query.daily_limit must be positive")
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	for i, f := range cfg.Classification.Fields {
		if f.Name == "" || len(f.Keywords) == 0 {
			return fmt.Errorf("classification.fields[%d] needs a name and at least one keyword", i)
		}
	}

	enabled := 0
	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}
		enabled++
		if err := validateSource(s); err != nil {
			return err
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Delivery.Type {
	case "telegram", "slack", "log":
	default:
		return fmt.Errorf("unknown delivery.type %q", cfg.Delivery.Type)
	}

	return nil
}

func validateSource(s SourceConfig) error {
	if s.Name == "" {
		return fmt.Errorf("source of type %q has no name", s.Type)
	}
	switch s.Type {
	case "greenhouse", "lever", "smartrecruiters":
		if s.BoardToken == "" {
			return fmt.Errorf("source %q: board_token is required for %s", s.Name, s.Type)
		}
	case "rss":
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required for %s", s.Name, s.Type)
		}
	case "remotive", "internshala", "linkedin":
	default:
		return fmt.Errorf("source %q: unknown type %q", s.Name, s.Type)
	}
	return nil
}
