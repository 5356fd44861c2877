// Package pipeline runs one harvest cycle: collect from every producer,
// interleave, normalize, gate on recency, dedup into the store, and deliver
// a capped batch of pending records.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/internfeed/internal/filter"
	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/normalize"
	"github.com/amishk599/internfeed/internal/ratelimit"
	"github.com/amishk599/internfeed/internal/recency"
	"github.com/amishk599/internfeed/internal/scheduler"
)

// Options tunes a Pipeline. Zero values fall back to the defaults below.
type Options struct {
	Filter          model.RecordFilter
	Normalizer      *normalize.Normalizer
	Recency         *recency.Filter
	Pacer           *ratelimit.Pacer
	MaxPerRun       int
	ProducerTimeout time.Duration
}

const (
	DefaultMaxPerRun       = 4
	DefaultWindow          = 7 * 24 * time.Hour
	DefaultProducerTimeout = 2 * time.Minute
)

// Stats summarises one run.
type Stats struct {
	RunID          string
	Fetched        int
	Matched        int
	Fresh          int
	Inserted       int
	Duplicates     int
	Collisions     int
	ProducerErrors int
	Delivered      int
	DeliveryFailed int
}

// Pipeline owns the full harvest cycle. A nil sink makes it ingest-only.
type Pipeline struct {
	producers       []model.Producer
	filter          model.RecordFilter
	normalizer      *normalize.Normalizer
	recency         *recency.Filter
	store           model.RecordStore
	sink            model.Sink
	pacer           *ratelimit.Pacer
	maxPerRun       int
	producerTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// New creates a pipeline wired with all its dependencies.
func New(
	producers []model.Producer,
	store model.RecordStore,
	sink model.Sink,
	opts Options,
	logger *slog.Logger,
) *Pipeline {
	p := &Pipeline{
		producers:       producers,
		filter:          opts.Filter,
		normalizer:      opts.Normalizer,
		recency:         opts.Recency,
		store:           store,
		sink:            sink,
		pacer:           opts.Pacer,
		maxPerRun:       opts.MaxPerRun,
		producerTimeout: opts.ProducerTimeout,
		logger:          logger,
		now:             time.Now,
	}
	if p.filter == nil {
		p.filter = filter.AcceptAll{}
	}
	if p.normalizer == nil {
		p.normalizer = normalize.NewNormalizer(nil)
	}
	if p.recency == nil {
		p.recency = recency.NewFilter(DefaultWindow, recency.ExcludeUnknown)
	}
	if p.pacer == nil {
		p.pacer = ratelimit.NewPacer(0)
	}
	if p.maxPerRun <= 0 {
		p.maxPerRun = DefaultMaxPerRun
	}
	if p.producerTimeout <= 0 {
		p.producerTimeout = DefaultProducerTimeout
	}
	return p
}

// Run executes one full cycle: ingest, then deliver when a sink is set.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", stats.RunID)

	if err := p.ingest(ctx, &stats, logger); err != nil {
		return stats, err
	}
	if p.sink != nil {
		if err := p.deliver(ctx, &stats, logger); err != nil {
			return stats, err
		}
	}

	logger.Info("run complete",
		"fetched", stats.Fetched,
		"matched", stats.Matched,
		"fresh", stats.Fresh,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"collisions", stats.Collisions,
		"producer_errors", stats.ProducerErrors,
		"delivered", stats.Delivered,
		"delivery_failed", stats.DeliveryFailed,
	)
	return stats, nil
}

// Ingest collects and stores new records without delivering anything.
func (p *Pipeline) Ingest(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString()}
	err := p.ingest(ctx, &stats, p.logger.With("run_id", stats.RunID))
	return stats, err
}

// Broadcast delivers up to the per-run cap of pending records without
// collecting new ones.
func (p *Pipeline) Broadcast(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString()}
	if p.sink == nil {
		return stats, fmt.Errorf("broadcast: no sink configured")
	}
	err := p.deliver(ctx, &stats, p.logger.With("run_id", stats.RunID))
	return stats, err
}

func (p *Pipeline) ingest(ctx context.Context, stats *Stats, logger *slog.Logger) error {
	runStart := p.now()
	batches := p.collect(ctx, stats, logger)
	raws := scheduler.Interleave(batches)
	stats.Fetched = len(raws)

	for _, raw := range raws {
		if !p.filter.Match(raw) {
			continue
		}
		stats.Matched++

		if !p.recency.Accept(raw.Date) {
			logger.Debug("skipping stale posting", "title", raw.Title, "date", raw.Date, "source", raw.Source)
			continue
		}
		stats.Fresh++

		rec := p.normalizer.NormalizeAt(raw, runStart)
		res, err := p.store.InsertIfAbsent(ctx, rec)
		if err != nil {
			return fmt.Errorf("storing %s: %w", rec.ID, err)
		}
		switch {
		case res.Inserted():
			stats.Inserted++
		case res.Partial():
			stats.Collisions++
			logger.Warn("partial identity collision, keeping first-seen record",
				"result", res.String(),
				"id", rec.ID,
				"link", rec.Link,
				"title", rec.Title,
				"source", rec.Source,
			)
		default:
			stats.Duplicates++
		}
	}

	logger.Info("ingested postings",
		"producers", len(p.producers),
		"fetched", stats.Fetched,
		"fresh", stats.Fresh,
		"new", stats.Inserted,
	)
	return nil
}

// collect runs every producer concurrently. Results stay in producer order; a
// failed or timed-out producer contributes nothing.
func (p *Pipeline) collect(ctx context.Context, stats *Stats, logger *slog.Logger) [][]model.RawRecord {
	results := make([][]model.RawRecord, len(p.producers))
	failed := make([]bool, len(p.producers))

	var g errgroup.Group
	for i, prod := range p.producers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, p.producerTimeout)
			defer cancel()

			start := time.Now()
			raws, err := fetch(pctx, prod)
			if err != nil {
				failed[i] = true
				logger.Error("producer failed", "producer", prod.Name(), "error", err)
				return nil
			}
			for j := range raws {
				if raws[j].Source == "" {
					raws[j].Source = prod.Name()
				}
			}
			results[i] = raws
			logger.Info("fetched postings", "producer", prod.Name(), "count", len(raws), "took", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	g.Wait()

	for _, f := range failed {
		if f {
			stats.ProducerErrors++
		}
	}
	return results
}

type fetchResult struct {
	raws []model.RawRecord
	err  error
}

// fetch returns when prod does or when ctx ends, whichever comes first. A
// producer that ignores ctx is left to finish in the background.
func fetch(ctx context.Context, prod model.Producer) ([]model.RawRecord, error) {
	done := make(chan fetchResult, 1)
	go func() {
		raws, err := prod.Fetch(ctx)
		done <- fetchResult{raws, err}
	}()
	select {
	case r := <-done:
		return r.raws, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("producer timed out: %w", ctx.Err())
	}
}

func (p *Pipeline) deliver(ctx context.Context, stats *Stats, logger *slog.Logger) error {
	pending, err := p.store.QueryPending(ctx, p.maxPerRun, model.NewestFirst)
	if err != nil {
		return fmt.Errorf("querying pending records: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("nothing to deliver")
		return nil
	}

	for _, rec := range pending {
		if err := p.pacer.Wait(ctx); err != nil {
			return err
		}
		if err := p.sink.Deliver(ctx, rec); err != nil {
			stats.DeliveryFailed++
			logger.Error("delivery failed, record stays pending", "id", rec.ID, "title", rec.Title, "error", err)
			continue
		}
		if err := p.store.MarkDelivered(ctx, rec.ID); err != nil {
			return fmt.Errorf("marking %s delivered: %w", rec.ID, err)
		}
		stats.Delivered++
	}

	logger.Info("delivered postings", "delivered", stats.Delivered, "failed", stats.DeliveryFailed)
	return nil
}

// Job adapts the pipeline to the scheduler's daemon loop.
func (p *Pipeline) Job() scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context) error {
		_, err := p.Run(ctx)
		return err
	})
}
