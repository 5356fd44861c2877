package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/internfeed/internal/adapter"
	"github.com/amishk599/internfeed/internal/config"
	"github.com/amishk599/internfeed/internal/filter"
	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/normalize"
	"github.com/amishk599/internfeed/internal/notifier"
	"github.com/amishk599/internfeed/internal/pipeline"
	"github.com/amishk599/internfeed/internal/ratelimit"
	"github.com/amishk599/internfeed/internal/recency"
	"github.com/amishk599/internfeed/internal/retry"
	"github.com/amishk599/internfeed/internal/store"
)

var (
	cfgPath string
	envPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "internfeed",
	Short: "Internship feed: harvest, dedup and broadcast postings",
	Long:  "internfeed collects internship postings from job boards and feeds, stores each one once, and posts fresh ones to a Telegram channel or Slack.",
	// Default to `start` so that `internfeed` with no args runs the daemon.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: INTERNFEED_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "dotenv file loaded before the config is expanded")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > INTERNFEED_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(envPath); err != nil {
		return nil, err
	}
	if path == "" {
		if env := os.Getenv("INTERNFEED_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// setupSink validates the delivery credentials and builds the configured sink.
func setupSink(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.Sink, error) {
	if err := cfg.Delivery.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Delivery.Type {
	case "telegram":
		logger.Info("using telegram sink", "chat", cfg.Delivery.ChatID)
		return notifier.NewTelegramSink(cfg.Delivery.BotToken, cfg.Delivery.ChatID, httpClient, logger)
	case "slack":
		logger.Info("using slack sink")
		return notifier.NewSlackSink(cfg.Delivery.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogSink(logger), nil
	}
}

func createProducer(src config.SourceConfig, httpClient *http.Client, logger *slog.Logger) (model.Producer, bool) {
	switch src.Type {
	case "remotive":
		return adapter.NewRemotiveAdapter(src.Name, src.Category, src.Keywords, httpClient), true
	case "smartrecruiters":
		return adapter.NewSmartRecruitersAdapter(src.Name, src.BoardToken, src.Keywords, httpClient), true
	case "rss":
		return adapter.NewRSSAdapter(src.Name, src.URL, src.Keywords, httpClient), true
	case "internshala":
		return adapter.NewInternshalaAdapter(src.Name, src.URL, httpClient), true
	case "linkedin":
		return adapter.NewLinkedInAdapter(src.Name, src.URL, httpClient), true
	case "greenhouse":
		return adapter.NewGreenhouseAdapter(src.Name, src.BoardToken, companyName(src), src.Keywords, httpClient), true
	case "lever":
		return adapter.NewLeverAdapter(src.Name, src.BoardToken, companyName(src), src.Keywords, httpClient), true
	default:
		logger.Warn("unsupported source type, skipping", "source", src.Name, "type", src.Type)
		return nil, false
	}
}

func companyName(src config.SourceConfig) string {
	if src.Company != "" {
		return src.Company
	}
	return src.Name
}

// buildProducers wraps every enabled source in per-type rate limiting and
// retries. Sources of the same type share one host, so they share a limiter
// slot.
func buildProducers(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.Producer {
	limiter := ratelimit.NewKeyedLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SourceOverrides)

	var producers []model.Producer
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}
		p, ok := createProducer(src, httpClient, logger)
		if !ok {
			continue
		}
		p = ratelimit.NewRateLimitedProducer(p, limiter, src.Type)
		p = retry.NewRetryProducer(p, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
		producers = append(producers, p)
		logger.Debug("registered source", "name", src.Name, "type", src.Type, "min_delay", limiter.DelayFor(src.Type))
	}
	return producers
}

func fieldRules(cfg *config.Config) []normalize.FieldRule {
	rules := make([]normalize.FieldRule, 0, len(cfg.Classification.Fields))
	for _, f := range cfg.Classification.Fields {
		rules = append(rules, normalize.FieldRule{Label: f.Name, Keywords: f.Keywords})
	}
	return rules
}

// buildPipeline wires a pipeline over st. A nil sink makes it ingest-only.
func buildPipeline(cfg *config.Config, st model.RecordStore, sink model.Sink, httpClient *http.Client, logger *slog.Logger) (*pipeline.Pipeline, error) {
	policy, err := recency.ParsePolicy(cfg.Pipeline.OnUnknownDate)
	if err != nil {
		return nil, err
	}
	producers := buildProducers(cfg, httpClient, logger)
	if len(producers) == 0 {
		return nil, fmt.Errorf("no sources to fetch")
	}

	opts := pipeline.Options{
		Filter: filter.NewKeywordFilter(filter.Keywords{
			Titles:           cfg.Filters.TitleKeywords,
			TitleExcludes:    cfg.Filters.TitleExcludeKeywords,
			Locations:        cfg.Filters.Locations,
			LocationExcludes: cfg.Filters.ExcludeLocations,
		}),
		Normalizer:      normalize.NewNormalizer(normalize.NewFieldClassifier(fieldRules(cfg))),
		Recency:         recency.NewFilter(cfg.Pipeline.Window(), policy),
		Pacer:           ratelimit.NewPacer(cfg.Pipeline.DeliveryDelay),
		MaxPerRun:       cfg.Pipeline.MaxPerRun,
		ProducerTimeout: cfg.Pipeline.ProducerTimeout,
	}
	return pipeline.New(producers, st, sink, opts, logger), nil
}

// openStore locks and opens the configured store. The returned func closes
// the store and releases the lock.
func openStore(cfg *config.Config) (store.Store, func(), error) {
	unlock, err := store.Lock(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		unlock()
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return st, func() {
		st.Close()
		unlock()
	}, nil
}
